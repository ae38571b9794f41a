package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/bible"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/llm"
)

type ProvidersResponse struct {
	Mode      string                        `json:"mode"`
	Providers map[string]llm.ProviderStatus `json:"providers"`
	// UserKey reports whether this session carries its own OpenRouter key.
	UserKey bool `json:"userKey"`
}

type MetaController struct {
	providers ProviderStatus
	keys      KeyStore
}

func NewMetaController(providers ProviderStatus, keys KeyStore) *MetaController {
	return &MetaController{providers: providers, keys: keys}
}

// Providers handles GET /api/providers
func (mc *MetaController) Providers(c *gin.Context) {
	resp := ProvidersResponse{
		Mode:      mc.providers.Mode(),
		Providers: mc.providers.Status(),
	}
	if mc.keys != nil {
		resp.UserKey = mc.keys.HasUserKey(c.Request.Context())
	}
	c.JSON(http.StatusOK, resp)
}

// Books handles GET /api/books
func (mc *MetaController) Books(c *gin.Context) {
	books := bible.Books()
	c.JSON(http.StatusOK, gin.H{"books": books, "total": len(books), "maxVerse": bible.MaxVerse})
}
