package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/teemow/calbooker/internal/instrumentation"
	"github.com/teemow/calbooker/internal/session"
)

// DefaultModel is the chat model used when none is configured.
const DefaultModel = openai.ChatModelGPT4_1

// ErrNoChoices is returned when the API answers without any choice.
var ErrNoChoices = errors.New("no choices returned")

// OpenAIConfig configures an OpenAICompleter.
type OpenAIConfig struct {
	APIKey string

	// BaseURL overrides the API endpoint, e.g. for a compatible proxy
	BaseURL string

	// Model defaults to DefaultModel
	Model string

	// HTTPClient is optional
	HTTPClient *http.Client

	// MaxRetries is passed to the SDK (default: SDK default)
	MaxRetries *int

	Metrics *instrumentation.Metrics
}

// OpenAICompleter implements Completer with the OpenAI Chat Completions API.
type OpenAICompleter struct {
	client  *openai.Client
	model   string
	metrics *instrumentation.Metrics
}

// NewOpenAICompleter creates a completer from cfg.
func NewOpenAICompleter(cfg OpenAIConfig) *OpenAICompleter {
	var opts []option.RequestOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.MaxRetries != nil {
		opts = append(opts, option.WithMaxRetries(*cfg.MaxRetries))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	client := openai.NewClient(opts...)
	return &OpenAICompleter{
		client:  &client,
		model:   model,
		metrics: cfg.Metrics,
	}
}

// Model returns the configured model name.
func (c *OpenAICompleter) Model() string {
	return c.model
}

// Complete implements Completer.
func (c *OpenAICompleter) Complete(ctx context.Context, messages []session.Message, tools []mcp.Tool) (session.Message, error) {
	ctx, span := instrumentation.StartLLMSpan(ctx, c.model)
	defer span.End()

	start := time.Now()
	reply, err := c.complete(ctx, messages, tools)
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	c.metrics.RecordLLMCompletion(ctx, c.model, status, time.Since(start))

	return reply, err
}

func (c *OpenAICompleter) complete(ctx context.Context, messages []session.Message, tools []mcp.Tool) (session.Message, error) {
	params := openai.ChatCompletionNewParams{
		Messages: buildMessages(messages),
		Model:    c.model,
	}
	if len(tools) > 0 {
		params.Tools = buildTools(tools)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return session.Message{}, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return session.Message{}, ErrNoChoices
	}

	msg := resp.Choices[0].Message
	reply := session.Message{
		Role:    session.RoleAssistant,
		Content: msg.Content,
	}
	for _, tc := range msg.ToolCalls {
		reply.ToolCalls = append(reply.ToolCalls, session.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return reply, nil
}

// buildMessages converts session messages into OpenAI chat messages.
func buildMessages(messages []session.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case session.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case session.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(m.Content))
				continue
			}
			assistant := &openai.ChatCompletionAssistantMessageParam{
				ToolCalls: extractToolCalls(m),
			}
			if m.Content != "" {
				assistant.Content.OfString = openai.String(m.Content)
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: assistant})
		case session.RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func extractToolCalls(m session.Message) []openai.ChatCompletionMessageToolCallParam {
	calls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(m.ToolCalls))
	for _, tc := range m.ToolCalls {
		calls = append(calls, openai.ChatCompletionMessageToolCallParam{
			ID: tc.ID,
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      tc.Name,
				Arguments: tc.Arguments,
			},
		})
	}
	return calls
}

// buildTools converts MCP tool definitions into strict function definitions.
func buildTools(tools []mcp.Tool) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  FunctionParameters(t),
				Strict:      openai.Bool(true),
			},
		})
	}
	return out
}

// FunctionParameters renders the input schema of an MCP tool as a strict
// JSON schema object.
func FunctionParameters(t mcp.Tool) openai.FunctionParameters {
	properties := t.InputSchema.Properties
	if properties == nil {
		properties = map[string]any{}
	}
	required := t.InputSchema.Required
	if required == nil {
		required = []string{}
	}
	return openai.FunctionParameters{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}
