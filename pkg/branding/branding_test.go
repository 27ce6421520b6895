package branding

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shouni/go-diagram-kit/pkg/domain"

	"github.com/shouni/go-http-kit/httpkit"
)

// loopbackFetcher は httptest サーバー向けに SSRF 検証を外したクライアントを返します。
func loopbackFetcher(srv *httptest.Server) *httpkit.Client {
	return httpkit.New(5*time.Second,
		httpkit.WithHTTPClient(srv.Client()),
		httpkit.WithSkipNetworkValidation(true),
	)
}

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func pngDataURI(data []byte) string {
	return domain.EncodeDataURI("image/png", base64.StdEncoding.EncodeToString(data))
}

func decodeDataURI(t *testing.T, uri string) image.Image {
	t.Helper()
	_, b64, ok := domain.ParseDataURI(uri)
	if !ok {
		t.Fatalf("data URI として解釈できません: %.40s", uri)
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		t.Fatalf("base64: %v", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("image.Decode: %v", err)
	}
	return img
}

func TestNopCompositor(t *testing.T) {
	in := "data:image/png;base64,AAAA"
	got := NopCompositor{}.Apply(context.Background(), in, domain.BrandingOptions{ShowURL: true, URLText: "x"})
	if got != in {
		t.Errorf("入力がそのまま返されること: got %q", got)
	}
}

func TestOverlayCompositor_Apply(t *testing.T) {
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	base := pngDataURI(solidPNG(t, 200, 100, white))
	ctx := context.Background()

	t.Run("URLテキストを左下に描画すること", func(t *testing.T) {
		c := NewOverlayCompositor(nil)
		got := c.Apply(ctx, base, domain.BrandingOptions{ShowURL: true, URLText: "example.com"})
		if got == base {
			t.Fatal("画像が変更されていません")
		}
		img := decodeDataURI(t, got)
		if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 100 {
			t.Fatalf("サイズが変わっています: %v", img.Bounds())
		}
		dark := false
		for y := 60; y < 100 && !dark; y++ {
			for x := 0; x < 120; x++ {
				r, _, _, _ := img.At(x, y).RGBA()
				if r>>8 < 128 {
					dark = true
					break
				}
			}
		}
		if !dark {
			t.Error("左下にテキストが描画されていません")
		}
	})

	t.Run("ロゴを左下に描画すること", func(t *testing.T) {
		logo := pngDataURI(solidPNG(t, 20, 20, color.RGBA{R: 255, A: 255}))
		c := NewOverlayCompositor(nil)
		got := c.Apply(ctx, base, domain.BrandingOptions{ShowLogo: true, LogoRef: logo})
		img := decodeDataURI(t, got)

		// 幅 200 → ロゴ幅 16、余白 8 なので (8,76)-(24,92) に描かれる
		r, g, b, _ := img.At(16, 84).RGBA()
		if r>>8 < 200 || g>>8 > 50 || b>>8 > 50 {
			t.Errorf("ロゴの中心が赤ではありません: rgb(%d,%d,%d)", r>>8, g>>8, b>>8)
		}
	})

	t.Run("不正な入力はそのまま返すこと", func(t *testing.T) {
		c := NewOverlayCompositor(nil)
		in := "not a data uri"
		if got := c.Apply(ctx, in, domain.BrandingOptions{ShowURL: true, URLText: "x"}); got != in {
			t.Errorf("got %q, want %q", got, in)
		}
	})

	t.Run("ロゴが読めず他に描画対象がない場合は入力をそのまま返すこと", func(t *testing.T) {
		c := NewOverlayCompositor(nil)
		missing := filepath.Join(t.TempDir(), "missing.png")
		if got := c.Apply(ctx, base, domain.BrandingOptions{ShowLogo: true, LogoRef: missing}); got != base {
			t.Error("入力がそのまま返されること")
		}
	})

	t.Run("オプションが空なら入力をそのまま返すこと", func(t *testing.T) {
		c := NewOverlayCompositor(nil)
		if got := c.Apply(ctx, base, domain.BrandingOptions{ShowURL: true, URLText: "  "}); got != base {
			t.Error("入力がそのまま返されること")
		}
	})
}

func TestLogoResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	logo := solidPNG(t, 4, 4, color.RGBA{B: 255, A: 255})

	t.Run("HTTPで取得した画像をキャッシュすること", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(logo)
		}))
		defer srv.Close()

		r := NewLogoResolver(loopbackFetcher(srv), nil, 0)
		for i := 0; i < 2; i++ {
			img, err := r.Resolve(ctx, srv.URL+"/logo.png")
			if err != nil {
				t.Fatalf("予期しないエラー: %v", err)
			}
			if img.Bounds().Dx() != 4 {
				t.Errorf("幅: got %d, want 4", img.Bounds().Dx())
			}
		}
		if got := hits.Load(); got != 1 {
			t.Errorf("リクエスト回数: got %d, want 1", got)
		}
	})

	t.Run("HTTPエラーはエラーを返すこと", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		r := NewLogoResolver(loopbackFetcher(srv), nil, 0)
		if _, err := r.Resolve(ctx, srv.URL+"/none.png"); err == nil {
			t.Error("エラーが返されること")
		}
	})

	t.Run("上限を超えるロゴはエラーになること", func(t *testing.T) {
		oversized := make([]byte, maxLogoBytes+1)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(oversized)
		}))
		defer srv.Close()

		r := NewLogoResolver(loopbackFetcher(srv), nil, 0)
		if _, err := r.Resolve(ctx, srv.URL+"/huge.png"); err == nil {
			t.Error("エラーが返されること")
		}
	})

	t.Run("既定のクライアントはループバックへの取得を拒否すること", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			_, _ = w.Write(logo)
		}))
		defer srv.Close()

		r := NewLogoResolver(nil, nil, 0)
		if _, err := r.Resolve(ctx, srv.URL+"/logo.png"); err == nil {
			t.Error("エラーが返されること")
		}
		if got := hits.Load(); got != 0 {
			t.Errorf("リクエスト回数: got %d, want 0", got)
		}
	})

	t.Run("ローカルファイルを読み込めること", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logo.png")
		if err := os.WriteFile(path, logo, 0o644); err != nil {
			t.Fatal(err)
		}
		r := NewLogoResolver(nil, nil, 0)
		if _, err := r.Resolve(ctx, "file://"+path); err != nil {
			t.Errorf("予期しないエラー: %v", err)
		}
	})

	t.Run("空の参照はエラーになること", func(t *testing.T) {
		r := NewLogoResolver(nil, nil, 0)
		if _, err := r.Resolve(ctx, " "); err == nil {
			t.Error("エラーが返されること")
		}
	})

	t.Run("画像でないデータはエラーになること", func(t *testing.T) {
		r := NewLogoResolver(nil, nil, 0)
		uri := domain.EncodeDataURI("image/png", base64.StdEncoding.EncodeToString([]byte("plain text")))
		if _, err := r.Resolve(ctx, uri); err == nil {
			t.Error("エラーが返されること")
		}
	})
}
