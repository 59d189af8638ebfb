// Package inference puts language and vision models behind one Provider
// interface so the narrator can switch between a local Ollama server, any
// OpenAI-compatible endpoint and Gemini without touching the loops.
//
// Example usage:
//
//	client, _ := inference.NewClient(
//	    inference.WithBaseURL("http://localhost:11434/v1"),
//	    inference.WithModel("llama3.2:3b"),
//	    inference.WithVisionModel("llava:7b"),
//	)
//	defer client.Close()
//
//	resp, _ := client.Vision(ctx, &inference.VisionRequest{
//	    Images: [][]byte{jpeg},
//	    Prompt: "Describe this scene briefly.",
//	})
package inference

import "context"

// Provider is implemented by every model backend.
type Provider interface {
	// Chat generates a response from a sequence of messages.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Vision answers a prompt about one or more JPEG images.
	Vision(ctx context.Context, req *VisionRequest) (*VisionResponse, error)

	// Capabilities returns what the provider supports.
	Capabilities() Capabilities

	// Health checks connectivity and credentials.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// Capabilities describes what features a provider supports.
type Capabilities struct {
	Chat   bool
	Vision bool
}

// ChatRequest for chat completions.
type ChatRequest struct {
	Messages    []Message
	Model       string // overrides the default model
	MaxTokens   int
	Temperature float64 // 0 uses the provider default
	Stop        []string
}

// ChatResponse from chat completion.
type ChatResponse struct {
	Message      Message
	FinishReason string
	Usage        Usage
	Model        string
	LatencyMs    int64
}

// VisionRequest for image analysis.
type VisionRequest struct {
	// Images are JPEG encoded.
	Images [][]byte

	// Prompt is the question about the images.
	Prompt string

	// System is an optional system instruction.
	System string

	Model       string
	MaxTokens   int
	Temperature float64
}

// VisionResponse from image analysis.
type VisionResponse struct {
	Content   string
	Usage     Usage
	Model     string
	LatencyMs int64
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
