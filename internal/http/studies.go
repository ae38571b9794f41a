package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/entities"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/exporters"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/studies"
)

// GenerateResponse is the generated study plus, when ?save=true, the editable
// copy that was stored.
type GenerateResponse struct {
	*studies.GenerateResult
	SavedStudy *entities.EditableStudy `json:"savedStudy,omitempty"`
}

type StudiesController struct {
	studies StudyService
	keys    KeyStore
	log     *zap.Logger
}

func NewStudiesController(svc StudyService, keys KeyStore, log *zap.Logger) *StudiesController {
	return &StudiesController{studies: svc, keys: keys, log: log}
}

// Generate handles POST /api/studies/generate
func (sc *StudiesController) Generate(c *gin.Context) {
	var req studies.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	req.UserKey = userKey(c, sc.keys)

	result, err := sc.studies.Generate(c.Request.Context(), req)
	if err != nil {
		respondUpstream(c, sc.log, err)
		return
	}

	resp := GenerateResponse{GenerateResult: result}
	if save, _ := strconv.ParseBool(c.Query("save")); save {
		saved, err := sc.studies.NewStudy(result)
		if err != nil {
			// The LLM produced something the editor cannot hold.
			respondValidation(c, err)
			return
		}
		resp.SavedStudy = saved
	}
	c.JSON(http.StatusOK, resp)
}

// ListStudies handles GET /api/studies
func (sc *StudiesController) ListStudies(c *gin.Context) {
	list, err := sc.studies.ListStudies()
	if err != nil {
		respondInternalError(c, sc.log, err, "list studies")
		return
	}
	if list == nil {
		list = []entities.EditableStudy{}
	}
	c.JSON(http.StatusOK, gin.H{"studies": list, "total": len(list)})
}

// SaveStudy handles POST /api/studies
func (sc *StudiesController) SaveStudy(c *gin.Context) {
	var study entities.EditableStudy
	if err := c.ShouldBindJSON(&study); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if err := sc.studies.SaveStudy(&study); err != nil {
		sc.respondStudyError(c, err, "save study")
		return
	}
	respondCreated(c, study)
}

// GetStudy handles GET /api/studies/:id
func (sc *StudiesController) GetStudy(c *gin.Context) {
	study, err := sc.studies.GetStudy(c.Param("id"))
	if err != nil {
		sc.respondStudyError(c, err, "get study")
		return
	}
	c.JSON(http.StatusOK, study)
}

// ReplaceStudy handles PUT /api/studies/:id
func (sc *StudiesController) ReplaceStudy(c *gin.Context) {
	var study entities.EditableStudy
	if err := c.ShouldBindJSON(&study); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if err := sc.studies.ReplaceStudy(c.Param("id"), &study); err != nil {
		sc.respondStudyError(c, err, "replace study")
		return
	}
	c.JSON(http.StatusOK, study)
}

// PatchStudy handles PATCH /api/studies/:id. The body is one patch object or
// an array applied in order.
func (sc *StudiesController) PatchStudy(c *gin.Context) {
	patches, err := readPatches(c.Request.Body)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	study, err := sc.studies.PatchStudy(c.Param("id"), patches...)
	if err != nil {
		sc.respondStudyError(c, err, "patch study")
		return
	}
	c.JSON(http.StatusOK, study)
}

// DeleteStudy handles DELETE /api/studies/:id
func (sc *StudiesController) DeleteStudy(c *gin.Context) {
	if err := sc.studies.DeleteStudy(c.Param("id")); err != nil {
		sc.respondStudyError(c, err, "delete study")
		return
	}
	respondSuccess(c, "study deleted")
}

// DownloadMarkdown handles GET /api/studies/:id/markdown
func (sc *StudiesController) DownloadMarkdown(c *gin.Context) {
	study, err := sc.studies.GetStudy(c.Param("id"))
	if err != nil {
		sc.respondStudyError(c, err, "markdown export")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+exporters.FileName(study)+`"`)
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(exporters.GenerateMarkdown(study)))
}

func (sc *StudiesController) respondStudyError(c *gin.Context, err error, context string) {
	switch {
	case isNotFound(err):
		respondNotFound(c, "study")
	case errors.Is(err, studies.ErrInvalidStudy):
		respondValidation(c, err)
	case errors.Is(err, studies.ErrUnknownOp),
		errors.Is(err, studies.ErrUnknownField),
		errors.Is(err, studies.ErrItemNotFound),
		errors.Is(err, studies.ErrOutOfRange),
		errors.Is(err, studies.ErrEmptyQuestion):
		respondBadRequest(c, err.Error())
	default:
		respondInternalError(c, sc.log, err, context)
	}
}

func readPatches(body io.Reader) ([]studies.Patch, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("patch body is required")
	}

	var patches []studies.Patch
	if data[0] == '[' {
		err = json.Unmarshal(data, &patches)
	} else {
		var p studies.Patch
		err = json.Unmarshal(data, &p)
		patches = append(patches, p)
	}
	if err != nil {
		return nil, errors.New("invalid patch body: " + err.Error())
	}
	if len(patches) == 0 {
		return nil, errors.New("at least one patch is required")
	}
	return patches, nil
}
