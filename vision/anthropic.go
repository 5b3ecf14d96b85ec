package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/meshgen/config"
	"github.com/BaSui01/meshgen/types"
)

// AnthropicProvider talks to the Anthropic Messages API. The API
// differs from OpenAI-style endpoints in two ways that matter here:
// authentication uses the x-api-key header rather than a bearer token,
// and the system prompt travels in its own field outside the messages.
type AnthropicProvider struct {
	cfg    config.AnthropicConfig
	client *http.Client
	logger *zap.Logger
}

// NewAnthropicProvider creates a provider from resolved configuration.
func NewAnthropicProvider(cfg config.AnthropicConfig, logger *zap.Logger) *AnthropicProvider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second // six images make for a slow call
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2023-06-01"
	}

	return &AnthropicProvider{
		cfg: cfg,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

// HealthCheck pings the models endpoint with the configured credential.
func (p *AnthropicProvider) HealthCheck(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/v1/models", strings.TrimRight(p.cfg.BaseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return types.NewError(types.ErrRemoteCall, "failed to build health request").WithCause(err)
	}
	p.buildHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return types.NewError(types.ErrRemoteCall, "health check failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg := readAnthropicErrMsg(resp.Body)
		return mapAnthropicError(resp.StatusCode, msg)
	}
	return nil
}

// The message structure of the Messages API.
type anthropicMessage struct {
	Role    string             `json:"role"` // user or assistant
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type   string           `json:"type"` // text or image
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

type anthropicSource struct {
	Type      string `json:"type"` // always base64
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"` // system prompt travels separately
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicResponse struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	Role       string             `json:"role"`
	Content    []anthropicContent `json:"content"`
	Model      string             `json:"model"`
	StopReason string             `json:"stop_reason"`
	Usage      *anthropicUsage    `json:"usage,omitempty"`
}

type anthropicErrorResp struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *AnthropicProvider) buildHeaders(req *http.Request) {
	// The Messages API authenticates with x-api-key.
	req.Header.Set("x-api-key", p.cfg.APIKey)
	req.Header.Set("anthropic-version", p.cfg.APIVersion)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

// convertParts maps request parts onto the wire content blocks,
// preserving order.
func convertParts(parts []Part) []anthropicContent {
	out := make([]anthropicContent, 0, len(parts))
	for _, part := range parts {
		if part.IsImage() {
			out = append(out, anthropicContent{
				Type: "image",
				Source: &anthropicSource{
					Type:      "base64",
					MediaType: part.MediaType,
					Data:      part.Data,
				},
			})
			continue
		}
		out = append(out, anthropicContent{
			Type: "text",
			Text: part.Text,
		})
	}
	return out
}

// Generate performs the single remote call of a run. Errors are
// terminal; no retry happens at this layer or any other.
func (p *AnthropicProvider) Generate(ctx context.Context, req *Request) (*Reply, error) {
	body := anthropicRequest{
		Model: p.cfg.Model,
		Messages: []anthropicMessage{{
			Role:    "user",
			Content: convertParts(req.Parts),
		}},
		System:      req.System,
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, types.NewError(types.ErrRemoteCall, "failed to encode request").WithCause(err)
	}
	endpoint := fmt.Sprintf("%s/v1/messages", strings.TrimRight(p.cfg.BaseURL, "/"))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, types.NewError(types.ErrRemoteCall, "failed to build request").WithCause(err)
	}
	p.buildHeaders(httpReq)

	p.logger.Debug("sending generation request",
		zap.String("model", body.Model),
		zap.Int("content_blocks", len(body.Messages[0].Content)),
		zap.Int("max_tokens", body.MaxTokens))

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, types.NewError(types.ErrRemoteCall, "request failed").
			WithHTTPStatus(http.StatusBadGateway).
			WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := readAnthropicErrMsg(resp.Body)
		return nil, mapAnthropicError(resp.StatusCode, msg)
	}

	var apiResp anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, types.NewError(types.ErrRemoteCall, "failed to decode response").
			WithHTTPStatus(http.StatusBadGateway).
			WithCause(err)
	}

	var text strings.Builder
	for _, content := range apiResp.Content {
		if content.Type == "text" {
			text.WriteString(content.Text)
		}
	}
	if text.Len() == 0 {
		return nil, types.NewError(types.ErrRemoteCall, "model reply contained no text")
	}

	reply := &Reply{
		Provider:  p.Name(),
		Model:     apiResp.Model,
		Text:      text.String(),
		CreatedAt: time.Now(),
	}
	if apiResp.Usage != nil {
		reply.Usage = Usage{
			InputTokens:  apiResp.Usage.InputTokens,
			OutputTokens: apiResp.Usage.OutputTokens,
		}
	}

	p.logger.Debug("model reply received",
		zap.String("model", reply.Model),
		zap.String("stop_reason", apiResp.StopReason),
		zap.Int("input_tokens", reply.Usage.InputTokens),
		zap.Int("output_tokens", reply.Usage.OutputTokens))

	return reply, nil
}

func readAnthropicErrMsg(body io.Reader) string {
	data, _ := io.ReadAll(body)
	var errResp anthropicErrorResp
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		return fmt.Sprintf("%s (type: %s)", errResp.Error.Message, errResp.Error.Type)
	}
	return string(data)
}

// mapAnthropicError folds a non-success status into the remote call
// error, keeping enough detail to tell an exhausted quota from a bad
// key without ever inviting a retry.
func mapAnthropicError(status int, msg string) *types.Error {
	switch status {
	case http.StatusUnauthorized:
		return types.NewError(types.ErrRemoteCall, fmt.Sprintf("unauthorized: %s", msg)).WithHTTPStatus(status)
	case http.StatusForbidden:
		return types.NewError(types.ErrRemoteCall, fmt.Sprintf("forbidden: %s", msg)).WithHTTPStatus(status)
	case http.StatusTooManyRequests:
		return types.NewError(types.ErrRemoteCall, fmt.Sprintf("rate limited: %s", msg)).WithHTTPStatus(status)
	case http.StatusBadRequest:
		if strings.Contains(msg, "credit") || strings.Contains(msg, "quota") {
			return types.NewError(types.ErrRemoteCall, fmt.Sprintf("quota exceeded: %s", msg)).WithHTTPStatus(status)
		}
		return types.NewError(types.ErrRemoteCall, fmt.Sprintf("invalid request: %s", msg)).WithHTTPStatus(status)
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return types.NewError(types.ErrRemoteCall, fmt.Sprintf("upstream error: %s", msg)).WithHTTPStatus(status)
	case 529: // overloaded, specific to this API
		return types.NewError(types.ErrRemoteCall, fmt.Sprintf("model overloaded: %s", msg)).WithHTTPStatus(status)
	default:
		return types.NewError(types.ErrRemoteCall, msg).WithHTTPStatus(status)
	}
}
