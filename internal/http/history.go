package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/entities"
)

type HistoryController struct {
	store HistoryStore
	limit int
	log   *zap.Logger
}

func NewHistoryController(store HistoryStore, defaultLimit int, log *zap.Logger) *HistoryController {
	return &HistoryController{store: store, limit: defaultLimit, log: log}
}

// ListHistory handles GET /api/history?limit=N. limit=0 returns everything.
func (hc *HistoryController) ListHistory(c *gin.Context) {
	limit, ok := parseLimitQuery(c, hc.limit)
	if !ok {
		return
	}
	items, err := hc.store.List(limit)
	if err != nil {
		respondInternalError(c, hc.log, err, "list history")
		return
	}
	if items == nil {
		items = []entities.ReadingHistoryItem{}
	}
	c.JSON(http.StatusOK, gin.H{"history": items, "total": len(items)})
}

// GetHistoryItem handles GET /api/history/:id
func (hc *HistoryController) GetHistoryItem(c *gin.Context) {
	item, err := hc.store.Get(c.Param("id"))
	if err != nil {
		if isNotFound(err) {
			respondNotFound(c, "history item")
			return
		}
		respondInternalError(c, hc.log, err, "get history item")
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteHistoryItem handles DELETE /api/history/:id
func (hc *HistoryController) DeleteHistoryItem(c *gin.Context) {
	if err := hc.store.Delete(c.Param("id")); err != nil {
		if isNotFound(err) {
			respondNotFound(c, "history item")
			return
		}
		respondInternalError(c, hc.log, err, "delete history item")
		return
	}
	respondSuccess(c, "history item deleted")
}

// ClearHistory handles DELETE /api/history
func (hc *HistoryController) ClearHistory(c *gin.Context) {
	deleted, err := hc.store.Clear()
	if err != nil {
		respondInternalError(c, hc.log, err, "clear history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "history cleared", "deleted": deleted})
}
