// Package ai drafts answers with an OpenAI-compatible chat completion API.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"querystack/internal/apperror"
)

const systemPrompt = "You are a helpful assistant that provides informative responses in markdown format. " +
	"Use appropriate markdown syntax for headings, lists, code blocks, and emphasis where necessary. " +
	"For code blocks, use short-form smaller case language identifiers (e.g., 'js' for JavaScript, 'py' for Python)."

// Draft is the input of one answer generation.
type Draft struct {
	Question   string
	Content    string
	UserAnswer string
}

// Generator turns a draft request into markdown.
type Generator interface {
	GenerateAnswer(ctx context.Context, d Draft) (string, error)
}

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client calls the chat completion endpoint with a bounded timeout.
type Client struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewClient(cfg Config) *Client {
	if cfg.APIKey == "" {
		return &Client{}
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Client{client: openai.NewClientWithConfig(oc), model: model, timeout: cfg.Timeout}
}

// GenerateAnswer fails with Unavailable when the client is not configured
// or the call does not finish within the timeout.
func (c *Client) GenerateAnswer(ctx context.Context, d Draft) (string, error) {
	if c.client == nil {
		return "", apperror.Unavailable("Answer generation is not configured")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt(d)},
		},
	})
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", apperror.Unavailable("Answer generation timed out")
	}
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func prompt(d Draft) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a markdown-formatted response to the following question: %s\n\n", d.Question)
	fmt.Fprintf(&b, "Base it on the provided content:\n%s\n", d.Content)
	if d.UserAnswer != "" {
		fmt.Fprintf(&b, "\n**User's Answer:**\n%s\n\n", d.UserAnswer)
		b.WriteString("Prioritize the user's answer only if it's correct. If it's incomplete or incorrect, " +
			"improve or correct it while keeping the response concise and to the point.\n")
	}
	b.WriteString("Provide the final answer in markdown format.")
	return b.String()
}
