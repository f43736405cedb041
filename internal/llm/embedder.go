package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pgvector "github.com/pgvector/pgvector-go"
)

// Embedder produce un vector semantico para un texto.
// El memory store lo usa para indexar y buscar interacciones.
type Embedder interface {
	Embed(ctx context.Context, text string) (pgvector.Vector, error)
}

// HTTPEmbedder implementa Embedder contra un endpoint /embeddings
// OpenAI-compatible.
type HTTPEmbedder struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewHTTPEmbedder(baseURL, apiKey, model string, timeout time.Duration) *HTTPEmbedder {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPEmbedder{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

type embedRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (e *HTTPEmbedder) Embed(ctx context.Context, text string) (pgvector.Vector, error) {
	if strings.TrimSpace(text) == "" {
		return pgvector.Vector{}, errors.New("empty text")
	}

	body, err := json.Marshal(embedRequest{Input: []string{text}, Model: e.model})
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return pgvector.Vector{}, fmt.Errorf("embeddings http error: status=%d: %w", resp.StatusCode, ErrRateLimited)
	}
	if resp.StatusCode >= 400 {
		return pgvector.Vector{}, fmt.Errorf("embeddings http error: status=%d: %s", resp.StatusCode, string(respBody))
	}

	var er embedResponse
	if err := json.Unmarshal(respBody, &er); err != nil {
		return pgvector.Vector{}, fmt.Errorf("unmarshal response: %w", err)
	}
	if er.Error != nil {
		return pgvector.Vector{}, fmt.Errorf("embeddings api error: %s", er.Error.Message)
	}
	if len(er.Data) == 0 || len(er.Data[0].Embedding) == 0 {
		return pgvector.Vector{}, ErrEmptyResponse
	}

	return pgvector.NewVector(er.Data[0].Embedding), nil
}
