package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-diagram-kit/pkg/domain"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const (
	DefaultTextModel  = "gemini-2.5-flash"
	DefaultImageModel = "gemini-2.5-flash-image"

	defaultRateBurst = 2
)

const (
	opGenerateText          = "generateText"
	opGenerateImage         = "generateImage"
	opGenerateTextWithImage = "generateTextWithImage"
)

// Config は Gateway の動作設定です。
type Config struct {
	TextModel    string
	ImageModel   string
	Temperature  *float32
	RateInterval time.Duration // 0 以下で無制限
}

// Client は外部モデルプロバイダーへの唯一の窓口（Generation Gateway）です。
type Client struct {
	handle  *ClientHandle
	cfg     Config
	limiter *rate.Limiter
}

// NewClient は ClientHandle を共有する Gateway を初期化します。
func NewClient(handle *ClientHandle, cfg Config) (*Client, error) {
	if handle == nil {
		return nil, fmt.Errorf("ClientHandle は必須です")
	}
	if cfg.TextModel == "" {
		cfg.TextModel = DefaultTextModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = DefaultImageModel
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.RateInterval), defaultRateBurst)
	}

	return &Client{
		handle:  handle,
		cfg:     cfg,
		limiter: limiter,
	}, nil
}

// GenerateText はプロンプトからテキストを生成します。
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.generate(ctx, opGenerateText, c.cfg.TextModel, genai.Text(prompt), c.baseConfig())
	if err != nil {
		return "", err
	}
	return extractText(resp), nil
}

// GenerateImage はプロンプトから画像を生成します。aspectRatio が空の場合はプロバイダーの既定値を使います。
func (c *Client) GenerateImage(ctx context.Context, prompt, aspectRatio string) (domain.GenerationResult, error) {
	cfg := c.baseConfig()
	if cfg == nil {
		cfg = &genai.GenerateContentConfig{}
	}
	cfg.ResponseModalities = []string{"TEXT", "IMAGE"}
	if aspectRatio != "" {
		cfg.ImageConfig = &genai.ImageConfig{AspectRatio: aspectRatio}
	}

	resp, err := c.generate(ctx, opGenerateImage, c.cfg.ImageModel, genai.Text(prompt), cfg)
	if err != nil {
		return domain.GenerationResult{}, err
	}

	blob, err := extractImage(resp)
	if err != nil {
		return domain.GenerationResult{}, providerError(opGenerateImage, err)
	}

	mimeType := blob.MIMEType
	if mimeType == "" {
		mimeType = domain.DefaultMimeType
	}
	return domain.GenerationResult{
		ImageBase64: base64.StdEncoding.EncodeToString(blob.Data),
		MimeType:    mimeType,
	}, nil
}

// GenerateTextWithImage はプロンプトと画像を 1 つのリクエストに同梱してテキストを生成します（批評用）。
func (c *Client) GenerateTextWithImage(ctx context.Context, prompt, imageBase64, mimeType string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return "", providerError(opGenerateTextWithImage, fmt.Errorf("画像データのデコードに失敗しました: %w", err))
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(data, mimeType),
		}, genai.RoleUser),
	}

	resp, err := c.generate(ctx, opGenerateTextWithImage, c.cfg.TextModel, contents, c.baseConfig())
	if err != nil {
		return "", err
	}
	return extractText(resp), nil
}

func (c *Client) baseConfig() *genai.GenerateContentConfig {
	if c.cfg.Temperature == nil {
		return nil
	}
	return &genai.GenerateContentConfig{Temperature: genai.Ptr(*c.cfg.Temperature)}
}

func (c *Client) generate(ctx context.Context, op, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	client, err := c.handle.Get(ctx)
	if err != nil {
		return nil, providerError(op, err)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, providerError(op, err)
	}

	logger := slog.With("op", op, "model", model)
	logger.DebugContext(ctx, "Calling Gemini API")

	startTime := time.Now()
	resp, err := client.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return nil, providerError(op, err)
	}

	logger.DebugContext(ctx, "Gemini API call completed", "duration", time.Since(startTime).Round(time.Millisecond))
	return resp, nil
}
