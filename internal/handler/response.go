package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"docquery/internal/domain"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *ResultMeta `json:"meta,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ResultMeta describes how an answer set was produced.
type ResultMeta struct {
	Provider        string                 `json:"provider"`
	Pages           int                    `json:"pages"`
	ConfidenceScale domain.ConfidenceScale `json:"confidence_scale"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondWithMeta sends a 200 success response with result metadata.
func RespondWithMeta(c *gin.Context, data interface{}, meta ResultMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrMissingFile):
		return http.StatusBadRequest, "MISSING_FILE", "file field is required"
	case errors.Is(err, domain.ErrNotPDF):
		return http.StatusBadRequest, "NOT_A_PDF", "file is not a PDF"
	case errors.Is(err, domain.ErrMissingQuestions):
		return http.StatusBadRequest, "MISSING_QUESTIONS", "no questions data provided"
	case errors.Is(err, domain.ErrInvalidQuestions):
		return http.StatusBadRequest, "INVALID_QUESTIONS", "questions must be a JSON array of {field_name, question}"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusUnprocessableEntity, "UNSUPPORTED_FORMAT", "document format is not supported by the OCR provider"
	case errors.Is(err, domain.ErrNoTextExtracted):
		return http.StatusInternalServerError, "NO_TEXT_EXTRACTED", "no text extracted from the document"
	case errors.Is(err, domain.ErrModelResponseInvalid):
		return http.StatusInternalServerError, "MODEL_RESPONSE_INVALID", "failed to process model response"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		log.Printf("[%s] internal error: %v", requestID, err)
	}
	RespondError(c, status, code, msg)
}
