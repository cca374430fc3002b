package engine

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"

	textimage "textscope/internal/image"
	"textscope/internal/logger"
	"textscope/internal/ocr"
)

type OllamaEngine struct {
	baseURL string
	model   string
	client  *http.Client
	images  *textimage.ImageProcessor
}

type OllamaRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images"`
	Stream bool     `json:"stream"`
}

type OllamaResponse struct {
	Response json.RawMessage `json:"response"`
	Done     bool            `json:"done"`
}

type ollamaLine struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	// Height is the line height as a fraction of the image height.
	Height float64 `json:"height"`
}

type ollamaLines struct {
	Lines []ollamaLine `json:"lines"`
}

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "llama3.2-vision"
)

const ollamaPrompt = `
You are an OCR engine.
Read every line of text visible in the image, top to bottom.

Return **only** a JSON object with this exact schema:

{
  "lines": [
    {"text": "<line text>", "confidence": <0..1>, "height": <line height / image height>}
  ]
}

* Do not add any other text, explanations, or formatting.
* If there is no text, return {"lines": []}.
* Make sure the JSON is syntactically correct – double quotes, no trailing commas, no comments.
`

func NewOllamaEngine(baseURL, model string) *OllamaEngine {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}

	return &OllamaEngine{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{},
		images:  textimage.NewImageProcessor(),
	}
}

func (o *OllamaEngine) Name() string { return "ollama" }

func (o *OllamaEngine) Recognize(ctx context.Context, req ocr.Request) ([]ocr.Observation, error) {
	imageData, err := o.images.EncodePNG(req.Image)
	if err != nil {
		return nil, err
	}

	request := OllamaRequest{
		Model:  o.model,
		Prompt: ollamaPrompt,
		Images: []string{base64.StdEncoding.EncodeToString(imageData)},
		Stream: false,
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama request failed with status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var ollamaResp OllamaResponse
	if err := json.Unmarshal(body, &ollamaResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	// The model answer arrives as a JSON string holding free text.
	var answer string
	if err := json.Unmarshal(ollamaResp.Response, &answer); err != nil {
		answer = string(ollamaResp.Response)
	}

	jsonObj, err := extractJSON(answer)
	if err != nil {
		return nil, fmt.Errorf("failed to extract JSON from response: %w", err)
	}

	var parsed ollamaLines
	if err := json.Unmarshal(jsonObj, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode lines: %w", err)
	}

	return linesToObservations(parsed.Lines, req.Image.Bounds(), req.Options.MinimumTextHeight), nil
}

func (o *OllamaEngine) Close() error {
	return nil
}

// linesToObservations stacks the reported lines into synthetic bounds so the
// common height filter can be applied.
func linesToObservations(lines []ollamaLine, bounds image.Rectangle, minHeight float64) []ocr.Observation {
	obs := make([]ocr.Observation, 0, len(lines))
	y := bounds.Min.Y
	for _, l := range lines {
		text := strings.TrimSpace(l.Text)
		if text == "" {
			continue
		}
		h := int(l.Height*float64(bounds.Dy()) + 0.5)
		if h < 1 {
			h = 1
		}
		obs = append(obs, ocr.Observation{
			Bounds:     image.Rect(bounds.Min.X, y, bounds.Max.X, y+h),
			Candidates: []ocr.Candidate{{Text: text, Confidence: l.Confidence}},
		})
		y += h
	}
	return ocr.FilterByHeight(obs, bounds.Dy(), minHeight)
}

func extractJSON(input string) (json.RawMessage, error) {
	logger.DebugLog("[ollama]: extracting JSON from input: %s", input)
	normalized := bytes.ReplaceAll([]byte(input), []byte("\\n"), []byte(""))
	normalized = bytes.ReplaceAll(normalized, []byte("\\r"), []byte(""))
	normalized = bytes.ReplaceAll(normalized, []byte("\\t"), []byte(""))
	normalized = bytes.ReplaceAll(normalized, []byte("\\"), []byte(""))
	text := string(normalized)
	// Find opening brace
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return nil, fmt.Errorf("no JSON found in text")
	}

	// Track brace depth to find the matching closing brace
	braceCount := 0
	end := -1

matchingBrace:
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			braceCount++
		case '}':
			braceCount--
			if braceCount == 0 {
				end = i + 1
				break matchingBrace
			}
		}
	}

	if end == -1 {
		return nil, fmt.Errorf("no matching closing brace found")
	}

	jsonStr := text[start:end]

	// Validate that it's actually valid JSON
	var temp any
	if err := json.Unmarshal([]byte(jsonStr), &temp); err != nil {
		return nil, fmt.Errorf("extracted text is not valid JSON: %w", err)
	}

	return json.RawMessage(jsonStr), nil
}
