// ABOUTME: OpenAI-compatible chat client used for conversation, narration and tool routing
// ABOUTME: Translates vendor-neutral requests to chat completions with retry on transient failures
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/WildEllie/t3nets/internal/logging"
	"github.com/WildEllie/t3nets/internal/models"
	"github.com/WildEllie/t3nets/internal/util"
)

const (
	// DefaultChatModel is the default model for chat completions
	DefaultChatModel = "gpt-4o-mini"
	// DefaultTimeout bounds a single completion attempt
	DefaultTimeout = 60 * time.Second
)

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey     string
	BaseURL    string
	ChatModel  string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:     apiKey,
		ChatModel:  DefaultChatModel,
		Timeout:    DefaultTimeout,
		MaxRetries: 3,
		RetryDelay: time.Second * 2,
	}
}

// OpenAIClient wraps the OpenAI API client with retry logic
type OpenAIClient struct {
	client     *openai.Client
	chatModel  string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	logger     zerolog.Logger
}

// NewOpenAIClient creates a new OpenAI client with the given API key using default configuration
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	return NewOpenAIClientWithConfig(DefaultConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a new OpenAI client with custom configuration
func NewOpenAIClientWithConfig(config *ClientConfig) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	oc := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		oc.BaseURL = config.BaseURL
	}

	chatModel := config.ChatModel
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &OpenAIClient{
		client:     openai.NewClientWithConfig(oc),
		chatModel:  chatModel,
		timeout:    timeout,
		maxRetries: config.MaxRetries,
		retryDelay: config.RetryDelay,
		logger:     logging.Get("llm"),
	}, nil
}

// Model returns the model used when a request names none
func (c *OpenAIClient) Model() string {
	return c.chatModel
}

// Chat sends one completion request
func (c *OpenAIClient) Chat(ctx context.Context, req models.ChatRequest) (*models.ModelResponse, error) {
	return c.complete(ctx, c.buildRequest(req, nil))
}

// ChatWithToolResult replays req with the assistant's tool call and the tool output appended
func (c *OpenAIClient) ChatWithToolResult(ctx context.Context, req models.ChatRequest, call models.ToolCall, result models.SkillResult) (*models.ModelResponse, error) {
	args, err := json.Marshal(call.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool arguments: %w", err)
	}
	if result == nil {
		result = models.SkillResult{}
	}
	content, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool result: %w", err)
	}

	followUp := []openai.ChatCompletionMessage{
		{
			Role: openai.ChatMessageRoleAssistant,
			ToolCalls: []openai.ToolCall{{
				ID:   call.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      call.Name,
					Arguments: string(args),
				},
			}},
		},
		{
			Role:       openai.ChatMessageRoleTool,
			Content:    string(content),
			ToolCallID: call.ID,
		},
	}
	return c.complete(ctx, c.buildRequest(req, followUp))
}

func (c *OpenAIClient) buildRequest(req models.ChatRequest, extra []openai.ChatCompletionMessage) openai.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = c.chatModel
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+len(extra)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == models.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	messages = append(messages, extra...)

	out := openai.ChatCompletionRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
	}
	for _, tool := range req.Tools {
		out.Tools = append(out.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.InputSchema,
			},
		})
	}
	return out
}

func (c *OpenAIClient) complete(ctx context.Context, req openai.ChatCompletionRequest) (*models.ModelResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := util.Sleep(ctx, util.CalculateBackoff(c.retryDelay, attempt)); err != nil {
				return nil, err
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.client.CreateChatCompletion(attemptCtx, req)
		cancel()

		if err != nil {
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			if !retryable(err) || ctx.Err() != nil {
				break
			}
			c.logger.Warn().Err(err).Int("attempt", attempt+1).Str("model", req.Model).Msg("Chat completion failed, retrying")
			continue
		}

		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("attempt %d: no completion choices returned", attempt+1)
			continue
		}

		out, err := toModelResponse(resp)
		if err != nil {
			return nil, err
		}
		c.logger.Debug().
			Str("model", req.Model).
			Int("input_tokens", out.InputTokens).
			Int("output_tokens", out.OutputTokens).
			Int("tool_calls", len(out.ToolCalls)).
			Msg("Chat completion")
		return out, nil
	}

	return nil, fmt.Errorf("failed to complete chat after %d attempts: %w", c.maxRetries+1, lastErr)
}

func toModelResponse(resp openai.ChatCompletionResponse) (*models.ModelResponse, error) {
	msg := resp.Choices[0].Message
	out := &models.ModelResponse{
		Text:         msg.Content,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}
	for _, tc := range msg.ToolCalls {
		params := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &params); err != nil {
				return nil, fmt.Errorf("failed to parse arguments of tool %s: %w", tc.Function.Name, err)
			}
		}
		out.ToolCalls = append(out.ToolCalls, models.ToolCall{
			ID:     tc.ID,
			Name:   tc.Function.Name,
			Params: params,
		})
	}
	return out, nil
}

// retryable is false for API errors in the 4xx range except 429
func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	return true
}
