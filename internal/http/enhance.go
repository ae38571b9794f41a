package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/entities"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/studies"
)

const (
	EnhanceModeComplete = "complete"
	EnhanceModeStudy    = "study"
)

// EnhanceRequest is the LLM proxy body. Mode "complete" (the default) runs
// Prompt as free text; mode "study" drafts a study for Reference and
// PassageText.
type EnhanceRequest struct {
	Mode        string                `json:"mode"`
	Prompt      string                `json:"prompt"`
	Reference   string                `json:"reference"`
	PassageText string                `json:"passageText"`
	FlowContext *entities.FlowContext `json:"flowContext,omitempty"`
	Provider    string                `json:"provider"`
	Model       string                `json:"model"`
}

type EnhanceResponse struct {
	Text     string          `json:"text,omitempty"`
	Study    *entities.Study `json:"study,omitempty"`
	Provider string          `json:"provider"`
	Model    string          `json:"model,omitempty"`
}

type EnhanceController struct {
	studies StudyService
	keys    KeyStore
	log     *zap.Logger
}

func NewEnhanceController(svc StudyService, keys KeyStore, log *zap.Logger) *EnhanceController {
	return &EnhanceController{studies: svc, keys: keys, log: log}
}

// Enhance handles POST /api/enhance
func (ec *EnhanceController) Enhance(c *gin.Context) {
	var req EnhanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	var (
		resp *EnhanceResponse
		err  error
	)
	switch req.Mode {
	case "", EnhanceModeComplete:
		resp, err = ec.complete(c.Request.Context(), req, userKey(c, ec.keys))
	case EnhanceModeStudy:
		resp, err = ec.draft(c.Request.Context(), req, userKey(c, ec.keys))
	default:
		respondBadRequest(c, `mode must be "study" or "complete"`)
		return
	}
	if err != nil {
		respondUpstream(c, ec.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (ec *EnhanceController) complete(ctx context.Context, req EnhanceRequest, key string) (*EnhanceResponse, error) {
	res, err := ec.studies.Enhance(ctx, studies.EnhanceRequest{
		Prompt:   req.Prompt,
		Provider: req.Provider,
		Model:    req.Model,
		UserKey:  key,
	})
	if err != nil {
		return nil, err
	}
	return &EnhanceResponse{Text: res.Text, Provider: res.Provider, Model: res.Model}, nil
}

func (ec *EnhanceController) draft(ctx context.Context, req EnhanceRequest, key string) (*EnhanceResponse, error) {
	res, err := ec.studies.Draft(ctx, studies.DraftRequest{
		Reference:   req.Reference,
		PassageText: req.PassageText,
		FlowContext: req.FlowContext,
		Provider:    req.Provider,
		Model:       req.Model,
		UserKey:     key,
	})
	if err != nil {
		return nil, err
	}
	return &EnhanceResponse{Study: res.Study, Provider: res.Provider, Model: res.Model}, nil
}
