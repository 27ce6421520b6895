package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// ContentGenerator は genai の Models が提供する生成 API の最小契約です。
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Factory は API キーから ContentGenerator を構築します。
type Factory func(ctx context.Context, apiKey string) (ContentGenerator, error)

// NewGenaiFactory は Gemini API バックエンドの genai クライアントを構築する Factory を返します。
func NewGenaiFactory(httpClient *http.Client) Factory {
	return func(ctx context.Context, apiKey string) (ContentGenerator, error) {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:     apiKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: httpClient,
		})
		if err != nil {
			return nil, fmt.Errorf("genai クライアントの初期化に失敗しました: %w", err)
		}
		return client.Models, nil
	}
}

// ClientHandle は資格情報に紐づいたクライアントを保持する、呼び出し側所有のハンドルです。
// クライアントは最初の利用時に構築され、Rotate で破棄されて次の利用時に再構築されます。
type ClientHandle struct {
	mu      sync.Mutex
	apiKey  string
	factory Factory
	client  ContentGenerator
}

// NewClientHandle は ClientHandle を初期化します。この時点ではクライアントを構築しません。
func NewClientHandle(apiKey string, factory Factory) *ClientHandle {
	return &ClientHandle{
		apiKey:  strings.TrimSpace(apiKey),
		factory: factory,
	}
}

// Get は現在のクライアントを返します。未構築であればここで構築します。
func (h *ClientHandle) Get(ctx context.Context) (ContentGenerator, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.client != nil {
		return h.client, nil
	}
	if h.apiKey == "" {
		return nil, ErrNotConfigured
	}
	if h.factory == nil {
		return nil, fmt.Errorf("%w: factory is nil", ErrNotConfigured)
	}

	client, err := h.factory(ctx, h.apiKey)
	if err != nil {
		return nil, err
	}
	h.client = client
	return client, nil
}

// Rotate は API キーを差し替え、構築済みのクライアントを破棄します。
func (h *ClientHandle) Rotate(apiKey string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.apiKey = strings.TrimSpace(apiKey)
	h.client = nil
}

// HasCredential は API キーが設定されているかどうかを返します。
func (h *ClientHandle) HasCredential() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.apiKey != ""
}
