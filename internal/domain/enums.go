package domain

// OCRProvider selects the text extraction strategy.
type OCRProvider string

const (
	OCRProviderDirectDetect       OCRProvider = "direct-detect"
	OCRProviderRasterizeDetect    OCRProvider = "rasterize-detect"
	OCRProviderExternalDocumentAI OCRProvider = "external-document-ai"
)

// LLMProvider selects the model family used to answer questions.
type LLMProvider string

const (
	LLMProviderClaude  LLMProvider = "claude"
	LLMProviderMistral LLMProvider = "mistral"
	LLMProviderOpenAI  LLMProvider = "openai"
	LLMProviderGemini  LLMProvider = "gemini"
)

// ConfidenceScale describes the range a provider reports confidence in.
type ConfidenceScale string

const (
	ScalePercent ConfidenceScale = "percent" // 0-100
	ScaleUnit    ConfidenceScale = "unit"    // 0-1
)

// Content types accepted for upload and produced by rasterization.
const (
	ContentTypePDF = "application/pdf"
	ContentTypePNG = "image/png"
)
