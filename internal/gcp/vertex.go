package gcp

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

// --- Text Extraction Model Prompts ---
const OCRSystemPrompt = "You are an optical character recognition engine. You transcribe the text visible in an image exactly as it appears, preserving line breaks and reading order."
const OCRUserPrompt = `Transcribe all text visible in the provided image.

Return ONLY the transcribed text. Do not describe the image, do not translate, and do not add any commentary or formatting.
If the image contains no text, return an empty response.`

// DefaultImageMIMEType is used when the object extension is not a known image type.
const DefaultImageMIMEType = "image/jpeg"

// ContentGenerator is the subset of *genai.GenerativeModel used for extraction.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiExtractor reads text from images with a Gemini model on Vertex AI.
type GeminiExtractor struct {
	model      ContentGenerator
	baseClient *genai.Client
}

// NewGeminiExtractor creates a Vertex AI client holding the pre-configured OCR model.
func NewGeminiExtractor(ctx context.Context, projectID, region, modelName string) (*GeminiExtractor, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewGeminiExtractor: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	model := baseClient.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(OCRSystemPrompt)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](0.0),
	}

	return &GeminiExtractor{model: model, baseClient: baseClient}, nil
}

// NewGeminiExtractorFromModel wraps an existing generator.
func NewGeminiExtractorFromModel(model ContentGenerator) *GeminiExtractor {
	return &GeminiExtractor{model: model}
}

// ExtractText asks the model to transcribe the image at gcsURI.
func (g *GeminiExtractor) ExtractText(ctx context.Context, gcsURI string) (string, error) {
	filePart := genai.FileData{
		MIMEType: ImageMIMEType(gcsURI),
		FileURI:  gcsURI,
	}
	resp, err := g.model.GenerateContent(ctx, filePart, genai.Text(OCRUserPrompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content from gemini for %s: %w", gcsURI, err)
	}
	return extractText(resp), nil
}

// extractText concatenates the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}

	text := strings.TrimSpace(b.String())
	text = strings.TrimPrefix(text, "```text")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// ImageMIMEType infers an image MIME type from the object name.
func ImageMIMEType(objectName string) string {
	t := mime.TypeByExtension(strings.ToLower(path.Ext(objectName)))
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	if !strings.HasPrefix(t, "image/") {
		return DefaultImageMIMEType
	}
	return t
}

func (g *GeminiExtractor) Close() error {
	if g.baseClient != nil {
		return g.baseClient.Close()
	}
	return nil
}
