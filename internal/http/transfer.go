package http

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/transfer"
)

// maxImportSize caps import request bodies.
const maxImportSize = 10 << 20

type TransferController struct {
	svc TransferService
	log *zap.Logger
}

func NewTransferController(svc TransferService, log *zap.Logger) *TransferController {
	return &TransferController{svc: svc, log: log}
}

// Export handles GET /api/export
func (tc *TransferController) Export(c *gin.Context) {
	doc, err := tc.svc.Export()
	if err != nil {
		respondInternalError(c, tc.log, err, "export")
		return
	}
	filename := "scribby-export-" + doc.ExportedAt.UTC().Format(time.DateOnly) + ".json"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.IndentedJSON(http.StatusOK, doc)
}

// Import handles POST /api/import?mode=strict|lenient. The body is an export
// document. The report is returned for failed imports too.
func (tc *TransferController) Import(c *gin.Context) {
	mode, err := transfer.ParseMode(c.Query("mode"))
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "import document too large", Code: CodeBadRequest})
			return
		}
		respondBadRequest(c, "could not read request body")
		return
	}

	report, err := tc.svc.Import(data, mode)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, report)
	case errors.Is(err, transfer.ErrMalformedDocument):
		respondError(c, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeBadRequest, Details: report})
	case errors.Is(err, transfer.ErrUnsupportedVersion):
		respondError(c, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeUnsupported, Details: report})
	case errors.Is(err, transfer.ErrInvalidDocument):
		respondError(c, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: CodeValidation, Details: report})
	default:
		respondInternalError(c, tc.log, err, "import")
	}
}
