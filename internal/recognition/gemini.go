package recognition

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"github.com/veristamp/veristamp/internal/config"
	"github.com/veristamp/veristamp/pkg/formatting"
)

const systemInstruction = `You read scanned certificates and diplomas. Extract the
requested fields exactly as printed, transcribe all visible text, and report the
bounding box of each extracted field. Respond with JSON only.`

// GeminiClient implements Client against a Vertex AI Gemini model.
type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
	logger *slog.Logger
}

// NewGeminiClient creates a recognition client bound to the configured
// project, region, and model. Call Close when finished.
func NewGeminiClient(ctx context.Context, cfg *config.RecognitionConfig, logger *slog.Logger) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0),
	}

	return &GeminiClient{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

// Close releases the underlying connection.
func (g *GeminiClient) Close() error {
	return g.client.Close()
}

// Recognize sends the image and field keys to the model and parses the
// structured response.
func (g *GeminiClient) Recognize(ctx context.Context, img Image, fieldKeys []string) (*Response, error) {
	if len(img.Data) == 0 {
		return nil, ErrEmptyImage
	}
	if len(fieldKeys) == 0 {
		return nil, ErrNoFields
	}

	resp, err := g.model.GenerateContent(ctx,
		genai.Blob{MIMEType: img.ContentType, Data: img.Data},
		genai.Text(buildPrompt(fieldKeys)),
	)
	if err != nil {
		return nil, fmt.Errorf("recognition request failed: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	parsed, err := formatting.Parse[Response](text)
	if err != nil {
		g.logger.Warn("unparseable recognition output", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnusableResponse, err)
	}

	if parsed.ExtractedData == nil {
		parsed.ExtractedData = make(map[string]string)
	}

	return &parsed, nil
}

func buildPrompt(fieldKeys []string) string {
	var sb strings.Builder
	sb.WriteString("Extract the following fields from this certificate image:\n")
	for _, key := range fieldKeys {
		fmt.Fprintf(&sb, "- %s\n", key)
	}
	sb.WriteString(`
Respond with a JSON object of this shape:
{
  "extractedData": {"<field key>": "<value exactly as printed>", ...},
  "ocrText": "<all visible text on the image>",
  "ocrLocations": [{"key": "<field key>", "location": {"x1": 0, "y1": 0, "x2": 0, "y2": 0}}, ...]
}
Use the field keys verbatim. Omit a field from extractedData if it does not
appear on the image. Coordinates are pixels with the origin at the top left.`)
	return sb.String()
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: no candidates", ErrUnusableResponse)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: empty response", ErrUnusableResponse)
	}

	return sb.String(), nil
}
