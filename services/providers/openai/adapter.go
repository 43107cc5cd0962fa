package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/harshadeepak1/agentic-rag-system/services/providers"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Adapter implements providers.Embedder and providers.Generator against an
// OpenAI-compatible HTTP API.
type Adapter struct {
	config     providers.Config
	httpClient *http.Client
}

// NewAdapter creates a new adapter
func NewAdapter(config providers.Config) *Adapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.EmbedTimeout == 0 {
		config.EmbedTimeout = 5 * time.Second
	}
	if config.GenTimeout == 0 {
		config.GenTimeout = 45 * time.Second
	}
	if config.MaxBatchSize == 0 {
		config.MaxBatchSize = 64
	}

	return &Adapter{
		config:     config,
		httpClient: &http.Client{},
	}
}

// Name returns the provider name
func (a *Adapter) Name() string {
	return "openai"
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed generates one vector per input text. Inputs beyond the configured
// batch size are split into sequential requests. The embedding API has no
// query/document distinction, so the mode is folded into the input by
// prefixing queries; this keeps the two modes distinct and deterministic.
func (a *Adapter) Embed(ctx context.Context, texts []string, mode providers.EmbedMode) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	inputs := texts
	if mode == providers.EmbedModeQuery {
		inputs = make([]string, len(texts))
		for i, t := range texts {
			inputs[i] = "query: " + t
		}
	}

	vectors := make([][]float64, 0, len(inputs))
	for start := 0; start < len(inputs); start += a.config.MaxBatchSize {
		end := start + a.config.MaxBatchSize
		if end > len(inputs) {
			end = len(inputs)
		}

		batch, err := a.embedBatch(ctx, inputs[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}

	return vectors, nil
}

func (a *Adapter) embedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, a.config.EmbedTimeout)
	defer cancel()

	body, err := json.Marshal(embeddingRequest{Model: a.config.EmbedModel, Input: texts})
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "MARSHAL_ERROR", "failed to marshal embedding request", 0, false, err)
	}

	respBody, err := a.post(ctx, "/embeddings", body)
	if err != nil {
		return nil, err
	}

	var resp embeddingResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, providers.NewProviderError(a.Name(), "UNMARSHAL_ERROR", "failed to unmarshal embedding response", 0, false, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, providers.NewProviderError(a.Name(), "BAD_RESPONSE",
			fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Data)), 0, false, nil)
	}

	vectors := make([][]float64, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, providers.NewProviderError(a.Name(), "BAD_RESPONSE", "embedding index out of range", 0, false, nil)
		}
		vectors[d.Index] = d.Embedding
	}

	return vectors, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate performs a single-turn chat completion
func (a *Adapter) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.config.GenTimeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model:       a.config.GenModel,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
	})
	if err != nil {
		return "", providers.NewProviderError(a.Name(), "MARSHAL_ERROR", "failed to marshal chat request", 0, false, err)
	}

	respBody, err := a.post(ctx, "/chat/completions", body)
	if err != nil {
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", providers.NewProviderError(a.Name(), "UNMARSHAL_ERROR", "failed to unmarshal chat response", 0, false, err)
	}
	if len(resp.Choices) == 0 {
		return "", providers.NewProviderError(a.Name(), "EMPTY_RESPONSE", "no choices in chat response", 0, false, nil)
	}

	return resp.Choices[0].Message.Content, nil
}

func (a *Adapter) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "REQUEST_ERROR", "failed to create request", 0, false, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.config.APIKey)

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "HTTP_ERROR", "HTTP request failed", 0, true, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "READ_ERROR", "failed to read response", httpResp.StatusCode, false, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, a.handleErrorResponse(httpResp.StatusCode, respBody)
	}

	return respBody, nil
}

func (a *Adapter) handleErrorResponse(statusCode int, body []byte) error {
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	message := "provider request failed"
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		message = apiErr.Error.Message
	}

	switch {
	case statusCode == http.StatusTooManyRequests:
		return providers.NewProviderError(a.Name(), "RATE_LIMIT", message, statusCode, true, nil)
	case statusCode >= 500:
		return providers.NewProviderError(a.Name(), "SERVER_ERROR", message, statusCode, true, nil)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return providers.NewProviderError(a.Name(), "AUTH_ERROR", message, statusCode, false, nil)
	default:
		return providers.NewProviderError(a.Name(), "API_ERROR", message, statusCode, false, nil)
	}
}
