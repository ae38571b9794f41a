package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxPreferenceKeyLength = 100

type PreferenceValue struct {
	Value string `json:"value"`
}

type PreferencesController struct {
	store PreferenceStore
	log   *zap.Logger
}

func NewPreferencesController(store PreferenceStore, log *zap.Logger) *PreferencesController {
	return &PreferencesController{store: store, log: log}
}

// ListPreferences handles GET /api/preferences
func (pc *PreferencesController) ListPreferences(c *gin.Context) {
	prefs, err := pc.store.All()
	if err != nil {
		respondInternalError(c, pc.log, err, "list preferences")
		return
	}
	c.JSON(http.StatusOK, gin.H{"preferences": prefs})
}

// GetPreference handles GET /api/preferences/:key
func (pc *PreferencesController) GetPreference(c *gin.Context) {
	pref, err := pc.store.Get(c.Param("key"))
	if err != nil {
		if isNotFound(err) {
			respondNotFound(c, "preference")
			return
		}
		respondInternalError(c, pc.log, err, "get preference")
		return
	}
	c.JSON(http.StatusOK, pref)
}

// SetPreferences handles PUT /api/preferences with a {"key": "value"} map.
func (pc *PreferencesController) SetPreferences(c *gin.Context) {
	var values map[string]string
	if err := c.ShouldBindJSON(&values); err != nil {
		respondBadRequest(c, "expected an object of string values")
		return
	}
	for key := range values {
		if !validPreferenceKey(key) {
			respondBadRequest(c, "invalid preference key: "+key)
			return
		}
	}
	for key, value := range values {
		if err := pc.store.Set(key, value); err != nil {
			respondInternalError(c, pc.log, err, "set preference")
			return
		}
	}
	pc.ListPreferences(c)
}

// SetPreference handles PUT /api/preferences/:key
func (pc *PreferencesController) SetPreference(c *gin.Context) {
	key := c.Param("key")
	if !validPreferenceKey(key) {
		respondBadRequest(c, "invalid preference key")
		return
	}
	var body PreferenceValue
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if err := pc.store.Set(key, body.Value); err != nil {
		respondInternalError(c, pc.log, err, "set preference")
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": body.Value})
}

// DeletePreference handles DELETE /api/preferences/:key
func (pc *PreferencesController) DeletePreference(c *gin.Context) {
	if err := pc.store.Delete(c.Param("key")); err != nil {
		respondInternalError(c, pc.log, err, "delete preference")
		return
	}
	respondSuccess(c, "preference deleted")
}

func validPreferenceKey(key string) bool {
	return strings.TrimSpace(key) != "" && len(key) <= maxPreferenceKeyLength
}
