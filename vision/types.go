// Package vision sends the six side photographs to a hosted vision
// model and returns its free-form reply.
package vision

import (
	"context"
	"time"
)

// Provider defines the interface to a hosted vision model.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req *Request) (*Reply, error)
	HealthCheck(ctx context.Context) error
}

// Part is one block of the user message, either text or an image.
type Part struct {
	Text      string `json:"text,omitempty"`       // Text block content
	MediaType string `json:"media_type,omitempty"` // MIME type of an image block
	Data      string `json:"data,omitempty"`       // Base64 image payload
}

// IsImage reports whether the part carries an image.
func (p Part) IsImage() bool {
	return p.MediaType != ""
}

// Request is a single generation request. Parts are sent to the model
// in slice order, so request assembly is deterministic.
type Request struct {
	System string `json:"system"`
	Parts  []Part `json:"parts"`
}

// Usage contains token counts reported by the model.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Reply is the model's free-form answer to a Request.
type Reply struct {
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Text      string    `json:"text"`
	Usage     Usage     `json:"usage"`
	CreatedAt time.Time `json:"created_at"`
}
