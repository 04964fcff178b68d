package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"taxrecon/internal/csvexport"
	"taxrecon/internal/domain"
	"taxrecon/internal/service"
)

// Response formats accepted by the reconcile endpoint.
const (
	FormatXLSX = "xlsx"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

const (
	fieldTaxFile      = "tax_file"
	fieldLedgerFile   = "ledger_file"
	fieldIssuedFeed   = "issued_feed"
	fieldReceivedFeed = "received_feed"
)

// ReconcileHandler handles reconciliation runs over uploaded workbooks.
type ReconcileHandler struct {
	reconcileService service.ReconcileService
	maxFileSize      int64
}

// NewReconcileHandler creates a new ReconcileHandler. maxFileSize caps each
// uploaded file in bytes.
func NewReconcileHandler(reconcileService service.ReconcileService, maxFileSize int64) *ReconcileHandler {
	return &ReconcileHandler{reconcileService: reconcileService, maxFileSize: maxFileSize}
}

// ReconcileSummary is the JSON body returned for format=json.
type ReconcileSummary struct {
	Summary domain.RunSummary `json:"summary"`
	Reports []domain.Report   `json:"reports"`
}

// Create handles POST /api/v1/reconciliations
func (h *ReconcileHandler) Create(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", FormatXLSX))
	var kind domain.ReportKind
	switch format {
	case FormatXLSX, FormatJSON:
	case FormatCSV:
		k, err := domain.ParseReportKind(c.Query("report"))
		if err != nil {
			HandleError(c, err)
			return
		}
		kind = k
	default:
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be one of: xlsx, json, csv")
		return
	}

	var closers []io.Closer
	defer func() {
		for _, cl := range closers {
			_ = cl.Close()
		}
	}()

	var input service.ReconcileInput
	for _, u := range []struct {
		field    string
		required bool
		dst      *io.Reader
	}{
		{fieldTaxFile, true, &input.TaxFile},
		{fieldLedgerFile, true, &input.LedgerFile},
		{fieldIssuedFeed, false, &input.IssuedFeed},
		{fieldReceivedFeed, false, &input.ReceivedFeed},
	} {
		f, err := h.openUpload(c, u.field, u.required)
		if err != nil {
			HandleError(c, err)
			return
		}
		if f != nil {
			closers = append(closers, f)
			*u.dst = f
		}
	}

	result, err := h.reconcileService.Run(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}

	switch format {
	case FormatJSON:
		RespondOK(c, ReconcileSummary{Summary: result.Summary, Reports: result.Reports})
	case FormatCSV:
		report, err := result.Report(kind)
		if err != nil {
			HandleError(c, err)
			return
		}
		var buf bytes.Buffer
		if err := csvexport.WriteReport(&buf, report); err != nil {
			HandleError(c, fmt.Errorf("reconcileHandler.Create: writing csv: %w", err))
			return
		}
		attach(c, csvexport.BuildFilename(report.Title, FormatCSV))
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
	default:
		attach(c, csvexport.BuildFilename("reconciliation", FormatXLSX))
		c.Data(http.StatusOK, domain.ContentTypeXLSX, result.Workbook)
	}
}

// openUpload validates and opens one multipart file. It returns nil for an
// absent optional field.
func (h *ReconcileHandler) openUpload(c *gin.Context, field string, required bool) (multipart.File, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			if required {
				return nil, fmt.Errorf("%w: %s", domain.ErrMissingInput, field)
			}
			return nil, nil
		}
		return nil, fmt.Errorf("reconcileHandler.openUpload: %s: %w", field, err)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
	if _, ok := domain.AllowedExtensions[ext]; !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, field)
	}
	if h.maxFileSize > 0 && header.Size > h.maxFileSize {
		return nil, fmt.Errorf("%w: %s", domain.ErrFileTooLarge, field)
	}

	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("reconcileHandler.openUpload: %s: %w", field, err)
	}
	return f, nil
}

func attach(c *gin.Context, filename string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}
