// Package llm translates free-text geometric queries into task commands
// via the Mistral chat-completions API. This is the only package that
// makes external API calls.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mmss-network/mmss/internal/domain"
)

const (
	defaultEndpoint = "https://api.mistral.ai/v1/chat/completions"
	defaultModel    = "mistral-small-latest"
)

const systemPrompt = "You are the MMSS Pure Logic agent. Respond strictly with JSON in the " +
	"GeometricTaskCommand schema (task_name, geometric_operator, target_module, " +
	"parameters, expected_output_metric, optional task_id)."

// Config controls the gateway. Zero values fall back to the MISTRAL_API_KEY
// and MISTRAL_MODEL environment variables and the public endpoint.
type Config struct {
	APIKey   string
	Model    string
	Endpoint string
}

// Gateway is a Mistral chat-completions client producing task commands.
type Gateway struct {
	client   *http.Client
	apiKey   string
	model    string
	endpoint string
}

// NewGateway creates a gateway, failing with domain.ErrLLMNotConfigured
// when no API key is available.
func NewGateway(cfg Config) (*Gateway, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv("MISTRAL_API_KEY")
	}
	if key == "" {
		return nil, domain.ErrLLMNotConfigured
	}

	model := cfg.Model
	if model == "" {
		model = os.Getenv("MISTRAL_MODEL")
	}
	if model == "" {
		model = defaultModel
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	return &Gateway{
		client:   &http.Client{Timeout: 30 * time.Second},
		apiKey:   key,
		model:    model,
		endpoint: endpoint,
	}, nil
}

// ─── Wire types ─────────────────────────────────────────────────────────────

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// TranslateQuery sends a free-text geometric query plus context to the
// model and decodes the reply into a task command. The operator label in
// the reply is normalized to the closed enumeration during decoding, so
// whatever the model answers, the command carries one of the four
// variants.
func (g *Gateway) TranslateQuery(ctx context.Context, query string, queryContext map[string]any) (domain.GeometricTaskCommand, error) {
	var cmd domain.GeometricTaskCommand

	contextJSON, err := json.Marshal(queryContext)
	if err != nil {
		return cmd, fmt.Errorf("%w: encode context: %v", domain.ErrSerialization, err)
	}

	payload := chatRequest{
		Model:          g.model,
		ResponseFormat: responseFormat{Type: "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Context: %s\n\nQuery: %s", contextJSON, query)},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return cmd, fmt.Errorf("%w: encode request: %v", domain.ErrSerialization, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return cmd, fmt.Errorf("%w: build request: %v", domain.ErrLLMCommunication, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return cmd, fmt.Errorf("%w: %v", domain.ErrLLMCommunication, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return cmd, fmt.Errorf("%w: API status %d: %s", domain.ErrLLMCommunication, resp.StatusCode, detail)
	}

	var reply chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return cmd, fmt.Errorf("%w: decode response: %v", domain.ErrLLMCommunication, err)
	}
	if len(reply.Choices) == 0 || reply.Choices[0].Message.Content == "" {
		return cmd, fmt.Errorf("%w: empty response", domain.ErrLLMCommunication)
	}

	// Operator normalization happens inside GeometricOperator.UnmarshalJSON.
	if err := json.Unmarshal([]byte(reply.Choices[0].Message.Content), &cmd); err != nil {
		return cmd, fmt.Errorf("%w: decode task command: %v", domain.ErrSerialization, err)
	}
	return cmd, nil
}
