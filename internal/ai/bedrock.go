package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// BedrockClient calls Anthropic Claude models through AWS Bedrock.
// All traffic stays inside AWS.
type BedrockClient struct {
	client  *bedrockruntime.Client
	modelID string
	region  string
}

type bedrockContentBlock struct {
	Type   string              `json:"type"`
	Text   string              `json:"text,omitempty"`
	Source *bedrockImageSource `json:"source,omitempty"`
}

type bedrockImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type bedrockMessage struct {
	Role    string                `json:"role"`
	Content []bedrockContentBlock `json:"content"`
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	System           string           `json:"system,omitempty"`
	Messages         []bedrockMessage `json:"messages"`
	Temperature      float64          `json:"temperature,omitempty"`
}

type bedrockResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// NewBedrockClient creates a Bedrock-backed provider using the default
// AWS credential chain. An empty model selects Claude 3 Sonnet.
func NewBedrockClient(ctx context.Context, region, modelID string) (*BedrockClient, error) {
	if region == "" {
		region = "us-east-1"
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if modelID == "" {
		modelID = "anthropic.claude-3-sonnet-20240229-v1:0"
	}

	bc := &BedrockClient{
		client:  bedrockruntime.NewFromConfig(cfg),
		modelID: modelID,
		region:  region,
	}
	log.Printf("[Bedrock] Initialized with model=%s, region=%s", modelID, region)
	return bc, nil
}

// Name implements Provider.
func (b *BedrockClient) Name() string { return "bedrock" }

// ExtractActions implements Provider. Claude has no server-side schema
// enforcement, so the schema rides in the system prompt and the answer
// is parsed against the same shape; any deviation is an error.
func (b *BedrockClient) ExtractActions(ctx context.Context, req ExtractionRequest) (*ExtractionResult, []byte, error) {
	system := extractionSystemPrompt + "\n\nThe output schema:\n" + extractionSchema

	request := bedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        4000,
		System:           system,
		Temperature:      0.2,
		Messages: []bedrockMessage{{
			Role:    "user",
			Content: []bedrockContentBlock{{Type: "text", Text: buildUserContent(req)}},
		}},
	}

	text, usage, err := b.invoke(ctx, request)
	if err != nil {
		return nil, nil, fmt.Errorf("Bedrock API error: %w", err)
	}
	log.Printf("[Bedrock] Extraction pass (in: %d tokens, out: %d tokens)", usage.InputTokens, usage.OutputTokens)

	raw := []byte(stripCodeFence(text))
	result, err := parseExtraction(raw)
	if err != nil {
		return nil, nil, err
	}
	return result, raw, nil
}

// TranscribeImage implements Provider using Claude's image content block.
func (b *BedrockClient) TranscribeImage(ctx context.Context, imageData []byte, mimeType string) (string, error) {
	request := bedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        4000,
		Messages: []bedrockMessage{{
			Role: "user",
			Content: []bedrockContentBlock{
				{Type: "image", Source: &bedrockImageSource{
					Type:      "base64",
					MediaType: mimeType,
					Data:      base64.StdEncoding.EncodeToString(imageData),
				}},
				{Type: "text", Text: ocrPrompt},
			},
		}},
	}

	text, _, err := b.invoke(ctx, request)
	if err != nil {
		return "", fmt.Errorf("Bedrock vision error: %w", err)
	}
	return text, nil
}

func (b *BedrockClient) invoke(ctx context.Context, request bedrockRequest) (string, *bedrockUsage, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	output, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", nil, err
	}

	var response bedrockResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return "", nil, fmt.Errorf("failed to parse response: %w", err)
	}

	var text strings.Builder
	for _, content := range response.Content {
		if content.Type == "text" {
			text.WriteString(content.Text)
		}
	}
	usage := &bedrockUsage{InputTokens: response.Usage.InputTokens, OutputTokens: response.Usage.OutputTokens}
	return text.String(), usage, nil
}

type bedrockUsage struct {
	InputTokens  int
	OutputTokens int
}

// stripCodeFence unwraps ```json ... ``` fences Claude sometimes adds
// around otherwise valid JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
