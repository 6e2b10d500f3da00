// Package ai implements the response collaborator on Google GenAI (Gemini).
// The model is asked for a structured JSON verdict per batch: whether to
// reply, the reply text, a confidence score and a short reason.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/onnwee/livechat-bot/monitor"
)

const defaultSystemPrompt = `You are an AI assistant for a YouTube livestream chat. Your role is to:
- Analyze incoming chat messages
- Determine if a response is needed
- Provide natural, engaging responses when appropriate
- Keep responses concise and relevant to the livestream
- Be friendly and supportive to the community`

// maxHistory bounds the rolling window of recent messages fed back to the
// model as conversational context.
const maxHistory = 10

// Config holds the Gemini responder settings.
type Config struct {
	APIKey       string // if empty, GEMINI_API_KEY is used by the SDK
	Model        string // e.g. "gemini-2.0-flash"
	SystemPrompt string // persona; defaultSystemPrompt when empty
	MaxTokens    int
	Temperature  float64
}

// Client is a monitor.Responder backed by Gemini.
type Client struct {
	client *genai.Client
	model  string
	genCfg *genai.GenerateContentConfig

	mu      sync.Mutex
	history []monitor.ChatMessage
	stream  monitor.StreamContext
}

// decisionSchema constrains the model output to the decision shape.
var decisionSchema = &genai.Schema{
	Type:        genai.TypeObject,
	Description: "Verdict for a batch of livestream chat messages",
	Properties: map[string]*genai.Schema{
		"shouldReply": {Type: genai.TypeBoolean, Description: "Whether to reply to this batch"},
		"confidence":  {Type: genai.TypeNumber, Description: "Confidence in the decision (0-1)"},
		"message":     {Type: genai.TypeString, Description: "The reply to send; empty when shouldReply is false"},
		"reason":      {Type: genai.TypeString, Description: "Brief reason for the decision"},
	},
	Required: []string{"shouldReply", "confidence", "message", "reason"},
}

// New creates the Gemini responder.
func New(ctx context.Context, cfg Config) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	prompt := cfg.SystemPrompt
	if prompt == "" {
		prompt = defaultSystemPrompt
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 256
	}
	genCfg := &genai.GenerateContentConfig{
		ResponseMIMEType:  "application/json",
		ResponseSchema:    decisionSchema,
		MaxOutputTokens:   int32(maxTokens),
		Temperature:       genai.Ptr(float32(cfg.Temperature)),
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: prompt}}},
	}
	return &Client{client: client, model: model, genCfg: genCfg}, nil
}

// Decide sends one eligible batch to the model and parses its verdict.
func (c *Client) Decide(ctx context.Context, batch []monitor.ChatMessage, stream monitor.StreamContext) (monitor.Decision, error) {
	prompt := c.buildPrompt(batch, stream)
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), c.genCfg)
	if err != nil {
		return monitor.Decision{}, fmt.Errorf("gemini generate: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return monitor.Decision{}, fmt.Errorf("empty gemini response")
	}
	var parsed struct {
		ShouldReply bool    `json:"shouldReply"`
		Confidence  float64 `json:"confidence"`
		Message     string  `json:"message"`
		Reason      string  `json:"reason"`
	}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return monitor.Decision{}, fmt.Errorf("parse gemini response: %w", err)
	}
	c.remember(batch)
	return monitor.Decision{
		ShouldReply: parsed.ShouldReply,
		Confidence:  parsed.Confidence,
		Message:     parsed.Message,
		Reason:      parsed.Reason,
	}, nil
}

// UpdateStreamContext stores the stream context used to frame future batches.
func (c *Client) UpdateStreamContext(_ context.Context, stream monitor.StreamContext) {
	c.mu.Lock()
	c.stream = stream
	c.mu.Unlock()
}

func (c *Client) buildPrompt(batch []monitor.ChatMessage, stream monitor.StreamContext) string {
	c.mu.Lock()
	if stream.Title == "" {
		stream = c.stream
	}
	recent := make([]monitor.ChatMessage, len(c.history))
	copy(recent, c.history)
	c.mu.Unlock()

	var b strings.Builder
	b.WriteString("Livestream context:\n")
	fmt.Fprintf(&b, "Title: %s\n", stream.Title)
	fmt.Fprintf(&b, "Description: %s\n", stream.Description)
	if stream.Viewers > 0 {
		fmt.Fprintf(&b, "Viewers: %d\n", stream.Viewers)
	}
	if len(recent) > 0 {
		b.WriteString("\nRecent chat:\n")
		for _, m := range recent {
			fmt.Fprintf(&b, "%s: %s\n", m.AuthorName, m.Text)
		}
	}
	b.WriteString("\nNew messages:\n")
	for _, m := range batch {
		fmt.Fprintf(&b, "%s: %s\n", m.AuthorName, m.Text)
	}
	return b.String()
}

func (c *Client) remember(batch []monitor.ChatMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, batch...)
	if len(c.history) > maxHistory {
		c.history = c.history[len(c.history)-maxHistory:]
	}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			out.WriteString(part.Text)
		}
	}
	return out.String()
}
