package domain

import "errors"

var (
	ErrMissingFile          = errors.New("no file part")
	ErrNotPDF               = errors.New("file is not a PDF")
	ErrFileTooLarge         = errors.New("file exceeds maximum allowed size")
	ErrMissingQuestions     = errors.New("no questions data provided")
	ErrInvalidQuestions     = errors.New("invalid JSON format in questions data")
	ErrUnsupportedFormat    = errors.New("unsupported document format")
	ErrNoTextExtracted      = errors.New("no text extracted from the document")
	ErrModelResponseInvalid = errors.New("failed to process model response")
)
