package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/bible"
)

// PassageRequest names a passage either as a reference string or by parts.
type PassageRequest struct {
	Reference  string `json:"reference"`
	Book       string `json:"book"`
	Chapter    int    `json:"chapter"`
	StartVerse int    `json:"start_verse"`
	EndVerse   int    `json:"end_verse"`
	// IncludeHeadings defaults to true; false returns plain text.
	IncludeHeadings *bool `json:"include_headings,omitempty"`
}

type PassageResponse struct {
	Reference string `json:"reference"`
	Text      string `json:"text"`
	Cached    bool   `json:"cached"`
}

type PassageController struct {
	passages PassageReader
	log      *zap.Logger
}

func NewPassageController(passages PassageReader, log *zap.Logger) *PassageController {
	return &PassageController{passages: passages, log: log}
}

// reference resolves the request into a canonical reference string.
func (r PassageRequest) reference() (string, error) {
	if ref := strings.TrimSpace(r.Reference); ref != "" {
		return bible.Normalize(ref)
	}
	book, err := bible.ValidateRange(r.Book, r.Chapter, r.StartVerse, r.EndVerse)
	if err != nil {
		return "", err
	}
	return bible.Reference(book.Name, r.Chapter, r.StartVerse, r.EndVerse), nil
}

// GetPassage handles POST /api/passage
func (pc *PassageController) GetPassage(c *gin.Context) {
	var req PassageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	reference, err := req.reference()
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	get := pc.passages.Get
	if req.IncludeHeadings != nil && !*req.IncludeHeadings {
		get = pc.passages.GetPlain
	}
	result, err := get(c.Request.Context(), reference)
	if err != nil {
		respondUpstream(c, pc.log, err)
		return
	}

	c.JSON(http.StatusOK, PassageResponse{
		Reference: result.Reference,
		Text:      result.Text,
		Cached:    result.Cached,
	})
}
