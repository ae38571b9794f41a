package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/bible"
)

type CacheController struct {
	store CacheStore
	log   *zap.Logger
}

func NewCacheController(store CacheStore, log *zap.Logger) *CacheController {
	return &CacheController{store: store, log: log}
}

// Stats handles GET /api/cache
func (cc *CacheController) Stats(c *gin.Context) {
	stats, err := cc.store.Stats()
	if err != nil {
		respondInternalError(c, cc.log, err, "cache stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// DeleteStudy handles DELETE /api/cache/studies/:reference so the next
// generation for the passage asks the LLM again.
func (cc *CacheController) DeleteStudy(c *gin.Context) {
	reference, err := bible.Normalize(strings.TrimSpace(c.Param("reference")))
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	if err := cc.store.DeleteStudy(reference); err != nil {
		if isNotFound(err) {
			respondNotFound(c, "cached study")
			return
		}
		respondInternalError(c, cc.log, err, "delete cached study")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cached study deleted", "reference": reference})
}
