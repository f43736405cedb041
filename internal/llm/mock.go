package llm

import (
	"context"
	"sync"

	pgvector "github.com/pgvector/pgvector-go"
)

// MockClient permite tests sin llamar a un LLM real. Si Responses tiene
// elementos se consumen en orden; agotada la cola se repite Response.
type MockClient struct {
	mu        sync.Mutex
	Response  string
	Responses []string
	Err       error
	Calls     []string
}

func (m *MockClient) Generate(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) > 0 {
		resp := m.Responses[0]
		m.Responses = m.Responses[1:]
		return resp, nil
	}
	return m.Response, nil
}

// MockEmbedder devuelve siempre el mismo vector o un error fijo.
type MockEmbedder struct {
	Vector pgvector.Vector
	Err    error
}

func (m *MockEmbedder) Embed(_ context.Context, _ string) (pgvector.Vector, error) {
	if m.Err != nil {
		return pgvector.Vector{}, m.Err
	}
	if len(m.Vector.Slice()) == 0 {
		return pgvector.NewVector([]float32{0.1, 0.2, 0.3}), nil
	}
	return m.Vector, nil
}
