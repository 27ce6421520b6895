package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"google.golang.org/genai"
)

type call struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

type fakeGenerator struct {
	resp  *genai.GenerateContentResponse
	err   error
	calls []call
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls = append(f.calls, call{model: model, contents: contents, config: config})
	return f.resp, f.err
}

func newTestClient(t *testing.T, gen *fakeGenerator) *Client {
	t.Helper()
	handle := NewClientHandle("test-key", func(context.Context, string) (ContentGenerator, error) {
		return gen, nil
	})
	c, err := NewClient(handle, Config{})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func textResponse(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func TestClient_GenerateText(t *testing.T) {
	t.Run("テキストパートを連結して返すこと", func(t *testing.T) {
		gen := &fakeGenerator{resp: textResponse(
			&genai.Part{Text: "thinking...", Thought: true},
			&genai.Part{Text: "A clean "},
			&genai.Part{Text: "diagram."},
		)}
		c := newTestClient(t, gen)

		got, err := c.GenerateText(context.Background(), "plan it")
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if got != "A clean diagram." {
			t.Errorf("got %q", got)
		}
		if gen.calls[0].model != DefaultTextModel {
			t.Errorf("モデルが既定値ではありません: %s", gen.calls[0].model)
		}
	})

	t.Run("テキストが無い場合は空文字になること", func(t *testing.T) {
		c := newTestClient(t, &fakeGenerator{resp: &genai.GenerateContentResponse{}})
		got, err := c.GenerateText(context.Background(), "plan it")
		if err != nil || got != "" {
			t.Errorf("got %q, err %v", got, err)
		}
	})

	t.Run("プロバイダーのエラーは ProviderError になること", func(t *testing.T) {
		upstream := errors.New("401 unauthenticated")
		c := newTestClient(t, &fakeGenerator{err: upstream})
		_, err := c.GenerateText(context.Background(), "plan it")

		var pe *ProviderError
		if !errors.As(err, &pe) || pe.Op != opGenerateText {
			t.Fatalf("ProviderError を期待しました: %v", err)
		}
		if !errors.Is(err, upstream) {
			t.Error("元のエラーが失われています")
		}
	})
}

func TestClient_GenerateImage(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}

	t.Run("インライン画像を base64 で返すこと", func(t *testing.T) {
		gen := &fakeGenerator{resp: textResponse(
			&genai.Part{Text: "here you go"},
			&genai.Part{InlineData: &genai.Blob{Data: png, MIMEType: "image/webp"}},
		)}
		c := newTestClient(t, gen)

		got, err := c.GenerateImage(context.Background(), "draw", "16:9")
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if got.MimeType != "image/webp" || got.ImageBase64 != base64.StdEncoding.EncodeToString(png) {
			t.Errorf("結果が不正です: %+v", got)
		}

		cfg := gen.calls[0].config
		if cfg == nil || cfg.ImageConfig == nil || cfg.ImageConfig.AspectRatio != "16:9" {
			t.Error("アスペクト比が設定されていません")
		}
		if gen.calls[0].model != DefaultImageModel {
			t.Errorf("モデルが既定値ではありません: %s", gen.calls[0].model)
		}
	})

	t.Run("アスペクト比が空なら画像設定を送らないこと", func(t *testing.T) {
		gen := &fakeGenerator{resp: textResponse(&genai.Part{InlineData: &genai.Blob{Data: png}})}
		c := newTestClient(t, gen)

		got, err := c.GenerateImage(context.Background(), "draw", "")
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if gen.calls[0].config.ImageConfig != nil {
			t.Error("ImageConfig は nil であるべきです")
		}
		if got.MimeType != "image/png" {
			t.Errorf("MIME タイプの既定値が不正です: %s", got.MimeType)
		}
	})

	t.Run("画像が無い応答は ProviderError になること", func(t *testing.T) {
		c := newTestClient(t, &fakeGenerator{resp: textResponse(&genai.Part{Text: "sorry"})})
		_, err := c.GenerateImage(context.Background(), "draw", "")

		var pe *ProviderError
		if !errors.As(err, &pe) || !errors.Is(err, errNoImage) {
			t.Errorf("画像なしの ProviderError を期待しました: %v", err)
		}
	})

	t.Run("候補が無い応答は ProviderError になること", func(t *testing.T) {
		c := newTestClient(t, &fakeGenerator{resp: &genai.GenerateContentResponse{}})
		_, err := c.GenerateImage(context.Background(), "draw", "")
		if !errors.Is(err, errNoCandidates) {
			t.Errorf("候補なしのエラーを期待しました: %v", err)
		}
	})
}

func TestClient_GenerateTextWithImage(t *testing.T) {
	img := []byte("image-bytes")
	gen := &fakeGenerator{resp: textResponse(&genai.Part{Text: `{"revised_description": null}`})}
	c := newTestClient(t, gen)

	got, err := c.GenerateTextWithImage(context.Background(), "critique", base64.StdEncoding.EncodeToString(img), "image/jpeg")
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if got != `{"revised_description": null}` {
		t.Errorf("got %q", got)
	}

	contents := gen.calls[0].contents
	if len(contents) != 1 || len(contents[0].Parts) != 2 {
		t.Fatalf("1 つのコンテンツに 2 パートを期待しました: %+v", contents)
	}
	if contents[0].Parts[0].Text != "critique" {
		t.Error("最初のパートはプロンプトであるべきです")
	}
	blob := contents[0].Parts[1].InlineData
	if blob == nil || string(blob.Data) != "image-bytes" || blob.MIMEType != "image/jpeg" {
		t.Errorf("画像パートが不正です: %+v", blob)
	}

	t.Run("不正な base64 は ProviderError になること", func(t *testing.T) {
		_, err := c.GenerateTextWithImage(context.Background(), "critique", "%%%", "image/png")
		var pe *ProviderError
		if !errors.As(err, &pe) {
			t.Errorf("ProviderError を期待しました: %v", err)
		}
	})
}

func TestClient_NotConfigured(t *testing.T) {
	handle := NewClientHandle("", func(context.Context, string) (ContentGenerator, error) {
		t.Fatal("キー未設定でクライアントを構築してはいけません")
		return nil, nil
	})
	c, err := NewClient(handle, Config{})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = c.GenerateText(context.Background(), "plan")
	var pe *ProviderError
	if !errors.As(err, &pe) || !errors.Is(err, ErrNotConfigured) {
		t.Errorf("ErrNotConfigured を含む ProviderError を期待しました: %v", err)
	}
}
