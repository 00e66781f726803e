package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docquery/internal/domain"
	"docquery/internal/export"
	"docquery/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ProcessHandler handles PDF question-answering requests.
type ProcessHandler struct {
	pipeline    service.PipelineService
	maxFileSize int64
}

// NewProcessHandler creates a new ProcessHandler. Uploads larger than
// maxFileSizeMB megabytes are rejected.
func NewProcessHandler(pipeline service.PipelineService, maxFileSizeMB int64) *ProcessHandler {
	return &ProcessHandler{pipeline: pipeline, maxFileSize: maxFileSizeMB << 20}
}

// ProcessPDF handles POST /api/v1/process-pdf
// Expects multipart form with a "file" PDF and a "questions" JSON array.
// Pass ?format=xlsx to receive the answers as a spreadsheet.
func (h *ProcessHandler) ProcessPDF(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil || header.Filename == "" {
		HandleError(c, domain.ErrMissingFile)
		return
	}
	defer func() { _ = file.Close() }()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		HandleError(c, domain.ErrNotPDF)
		return
	}
	if h.maxFileSize > 0 && header.Size > h.maxFileSize {
		HandleError(c, domain.ErrFileTooLarge)
		return
	}

	questions, err := parseQuestions(c.PostForm("questions"))
	if err != nil {
		HandleError(c, err)
		return
	}

	pdf, err := io.ReadAll(file)
	if err != nil {
		HandleError(c, fmt.Errorf("reading upload: %w", err))
		return
	}

	requestID, _ := c.Get("request_id")
	log.Printf("[%s] handler.ProcessHandler.ProcessPDF: %s (%d bytes, %d questions)",
		requestID, header.Filename, len(pdf), len(questions))

	result, err := h.pipeline.Process(c.Request.Context(), pdf, questions)
	if err != nil {
		HandleError(c, err)
		return
	}

	if c.Query("format") == "xlsx" {
		data, err := export.AnswersXLSX(result.Answers, questions)
		if err != nil {
			HandleError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.BuildFilename(header.Filename)))
		c.Data(http.StatusOK, xlsxContentType, data)
		return
	}

	RespondWithMeta(c, result.Answers, ResultMeta{
		Provider:        result.Provider,
		Pages:           result.Pages,
		ConfidenceScale: result.ConfidenceScale,
	})
}

// parseQuestions decodes the questions form field. Every entry needs a
// field_name other than the reserved confidence key; the question text may
// be empty.
func parseQuestions(raw string) ([]domain.Question, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, domain.ErrMissingQuestions
	}
	var questions []domain.Question
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		return nil, domain.ErrInvalidQuestions
	}
	if len(questions) == 0 {
		return nil, domain.ErrMissingQuestions
	}
	for _, q := range questions {
		if strings.TrimSpace(q.FieldName) == "" || q.FieldName == domain.ConfidenceKey {
			return nil, domain.ErrInvalidQuestions
		}
	}
	return questions, nil
}
