package llm

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"mira/pkg/memory"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const defaultTimeout = 120 * time.Second

// ModelConfig defines the ID and limits for the prioritized model list.
type ModelConfig struct {
	ID       string
	MaxCtx   int
	MaxToken int
}

var DefaultModels = []ModelConfig{
	{ID: "llama-3.2-3b-instruct", MaxCtx: 8192, MaxToken: 512},
}

// KeyState tracks the health of an API key
type KeyState struct {
	Key          string
	FailureCount int
	LastUsed     time.Time
	LastSuccess  time.Time
}

// Client talks to any OpenAI-compatible chat completion endpoint: a hosted
// API or a local llama.cpp server. Keys rotate by failure count and models
// are tried in priority order.
type Client struct {
	baseURL     string
	keys        []*KeyState
	keyMu       sync.RWMutex
	clients     map[string]openai.Client
	clientsMu   sync.RWMutex
	temperature float64
	topP        float64
	maxTokens   int
	models      []ModelConfig
}

// NewClient creates a client with support for multiple API keys
// (comma-separated), rotated least-failures first.
func NewClient(baseURL, apiKeys string, temperature, topP float64, maxTokens int, models []ModelConfig) *Client {
	if len(models) == 0 {
		models = DefaultModels
	}

	keyStrings := strings.Split(apiKeys, ",")
	keys := make([]*KeyState, 0, len(keyStrings))
	for _, k := range keyStrings {
		k = strings.TrimSpace(k)
		if k != "" {
			keys = append(keys, &KeyState{Key: k})
		}
	}

	if len(keys) == 0 {
		log.Println("Warning: No API keys provided")
	} else {
		log.Printf("Loaded %d API key(s)", len(keys))
	}

	return &Client{
		baseURL:     baseURL,
		keys:        keys,
		clients:     make(map[string]openai.Client),
		temperature: temperature,
		topP:        topP,
		maxTokens:   maxTokens,
		models:      models,
	}
}

func (c *Client) getClient(key string) openai.Client {
	c.clientsMu.RLock()
	if client, ok := c.clients[key]; ok {
		c.clientsMu.RUnlock()
		return client
	}
	c.clientsMu.RUnlock()

	c.clientsMu.Lock()
	defer c.clientsMu.Unlock()

	client := openai.NewClient(
		option.WithBaseURL(c.baseURL),
		option.WithAPIKey(key),
	)
	c.clients[key] = client
	return client
}

func (c *Client) getBestKey() *KeyState {
	c.keyMu.RLock()
	defer c.keyMu.RUnlock()

	if len(c.keys) == 0 {
		return nil
	}

	best := c.keys[0]
	for _, k := range c.keys[1:] {
		if k.FailureCount < best.FailureCount {
			best = k
		}
	}
	return best
}

func (c *Client) recordSuccess(key *KeyState) {
	c.keyMu.Lock()
	defer c.keyMu.Unlock()
	key.LastSuccess = time.Now()
	key.LastUsed = time.Now()
	if key.FailureCount > 0 {
		key.FailureCount--
	}
}

func (c *Client) recordFailure(key *KeyState) {
	c.keyMu.Lock()
	defer c.keyMu.Unlock()
	key.FailureCount++
	key.LastUsed = time.Now()
}

// ChatCompletion sends the composed messages and returns the generated text.
// The caller's context bounds the call; a default timeout applies when none
// is set.
func (c *Client) ChatCompletion(ctx context.Context, messages []memory.LLMMessage) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}

	keyState := c.getBestKey()
	if keyState == nil {
		return "", fmt.Errorf("no API keys configured")
	}

	client := c.getClient(keyState.Key)

	chatMessages := make([]openai.ChatCompletionMessageParamUnion, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case "system":
			chatMessages[i] = openai.SystemMessage(msg.Content)
		case "assistant":
			chatMessages[i] = openai.AssistantMessage(msg.Content)
		default:
			chatMessages[i] = openai.UserMessage(msg.Content)
		}
	}

	var lastErr error
	for _, modelConf := range c.models {
		maxTokens := c.maxTokens
		if maxTokens <= 0 || maxTokens > modelConf.MaxToken {
			maxTokens = modelConf.MaxToken
		}

		params := openai.ChatCompletionNewParams{
			Model:       shared.ChatModel(modelConf.ID),
			Messages:    chatMessages,
			Temperature: openai.Float(c.temperature),
			TopP:        openai.Float(c.topP),
			MaxTokens:   openai.Int(int64(maxTokens)),
		}

		resp, err := client.Chat.Completions.New(ctx, params)
		if err != nil {
			c.recordFailure(keyState)
			lastErr = err
			if ctx.Err() != nil {
				// No point trying further models once the context is done
				return "", ctx.Err()
			}
			log.Printf("Model %s failed: %v", modelConf.ID, err)
			continue
		}

		if resp == nil || len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("empty response from model %s", modelConf.ID)
			continue
		}

		content := strings.TrimSpace(resp.Choices[0].Message.Content)
		if content == "" {
			lastErr = fmt.Errorf("blank completion from model %s", modelConf.ID)
			continue
		}

		c.recordSuccess(keyState)
		return content, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no models configured")
	}
	return "", fmt.Errorf("all models failed: %w", lastErr)
}
