package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OpenAIClient calls the OpenAI chat completions API with a strict
// json_schema response format for extraction, and the vision content
// format for OCR.
type OpenAIClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

type openAIMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type openAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIResponseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *openAIJSONSchema `json:"json_schema,omitempty"`
}

type openAIJSONSchema struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	Temperature    float64               `json:"temperature"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Index        int    `json:"index"`
		FinishReason string `json:"finish_reason"`
		Message      struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIClient creates an OpenAI-backed provider. An empty model
// selects gpt-4o.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAIClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://api.openai.com/v1/chat/completions",
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Name implements Provider.
func (c *OpenAIClient) Name() string { return "openai" }

// SetBaseURL overrides the API endpoint. Used by tests.
func (c *OpenAIClient) SetBaseURL(u string) { c.baseURL = u }

// ExtractActions implements Provider.
func (c *OpenAIClient) ExtractActions(ctx context.Context, req ExtractionRequest) (*ExtractionResult, []byte, error) {
	if c.apiKey == "" {
		return nil, nil, fmt.Errorf("OpenAI API key not configured")
	}

	request := openAIRequest{
		Model: c.model,
		Messages: []openAIMessage{
			{Role: "system", Content: extractionSystemPrompt},
			{Role: "user", Content: buildUserContent(req)},
		},
		Temperature: 0.2,
		MaxTokens:   4000,
		ResponseFormat: &openAIResponseFormat{
			Type: "json_schema",
			JSONSchema: &openAIJSONSchema{
				Name:   "email_extraction",
				Strict: true,
				Schema: json.RawMessage(extractionSchema),
			},
		},
	}

	response, err := c.call(ctx, request)
	if err != nil {
		return nil, nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(response.Choices) == 0 {
		return nil, nil, fmt.Errorf("%w: no choices returned", ErrMalformedResponse)
	}

	raw := []byte(response.Choices[0].Message.Content)
	result, err := parseExtraction(raw)
	if err != nil {
		return nil, nil, err
	}
	return result, raw, nil
}

// TranscribeImage implements Provider using the vision content format.
func (c *OpenAIClient) TranscribeImage(ctx context.Context, imageData []byte, mimeType string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("OpenAI API key not configured")
	}

	dataURI := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(imageData))
	request := openAIRequest{
		Model: c.model,
		Messages: []openAIMessage{
			{Role: "user", Content: []openAIContentPart{
				{Type: "text", Text: ocrPrompt},
				{Type: "image_url", ImageURL: &openAIImageURL{URL: dataURI}},
			}},
		},
		Temperature: 0,
		MaxTokens:   4000,
	}

	response, err := c.call(ctx, request)
	if err != nil {
		return "", fmt.Errorf("OpenAI vision error: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrMalformedResponse)
	}
	return response.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) call(ctx context.Context, request openAIRequest) (*openAIResponse, error) {
	jsonBody, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var response openAIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w (body: %s)", err, truncate(string(body), 500))
	}
	if response.Error != nil {
		return nil, fmt.Errorf("API error: %s", response.Error.Message)
	}
	return &response, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
