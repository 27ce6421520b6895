package branding

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"image"
	"os"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/shouni/go-diagram-kit/pkg/domain"

	"github.com/patrickmn/go-cache"
	"github.com/shouni/go-http-kit/httpkit"
	_ "golang.org/x/image/webp"
)

const (
	DefaultCacheExpiration = 30 * time.Minute
	CacheCleanupInterval   = 1 * time.Hour
	DefaultLogoTTL         = 1 * time.Hour
	DefaultFetchTimeout    = 30 * time.Second

	maxLogoBytes = 10 << 20
)

// LogoResolver はロゴ参照（data URI、http(s) URL、ローカルパス）を画像として読み込み、結果をキャッシュします。
type LogoResolver struct {
	httpClient httpkit.Requester
	cache      *cache.Cache
	ttl        time.Duration
}

// NewLogoResolver は LogoResolver を初期化します。
// httpClient や imgCache が nil の場合は既定の設定で作成します。
func NewLogoResolver(httpClient httpkit.Requester, imgCache *cache.Cache, ttl time.Duration) *LogoResolver {
	if httpClient == nil {
		httpClient = httpkit.New(DefaultFetchTimeout)
	}
	if imgCache == nil {
		imgCache = cache.New(DefaultCacheExpiration, CacheCleanupInterval)
	}
	if ttl <= 0 {
		ttl = DefaultLogoTTL
	}
	return &LogoResolver{
		httpClient: httpClient,
		cache:      imgCache,
		ttl:        ttl,
	}
}

// Resolve はロゴ参照を解決して画像を返します。
func (r *LogoResolver) Resolve(ctx context.Context, ref string) (image.Image, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("ロゴの参照が空です")
	}

	key := cacheKey(ref)
	if cached, ok := r.cache.Get(key); ok {
		if img, ok := cached.(image.Image); ok {
			return img, nil
		}
	}

	data, err := r.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ロゴ画像のデコードに失敗しました: %w", err)
	}

	r.cache.Set(key, img, r.ttl)
	return img, nil
}

func (r *LogoResolver) load(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case strings.HasPrefix(ref, "data:"):
		_, b64, ok := domain.ParseDataURI(ref)
		if !ok {
			return nil, fmt.Errorf("ロゴの data URI が不正です")
		}
		data, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, fmt.Errorf("ロゴの base64 デコードに失敗しました: %w", err)
		}
		return data, nil

	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return r.fetch(ctx, ref)

	default:
		data, err := os.ReadFile(strings.TrimPrefix(ref, "file://"))
		if err != nil {
			return nil, fmt.Errorf("ロゴファイルの読み込みに失敗しました: %w", err)
		}
		return data, nil
	}
}

func (r *LogoResolver) fetch(ctx context.Context, url string) ([]byte, error) {
	data, err := r.httpClient.FetchBytes(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("ロゴの取得に失敗しました (%s): %w", url, err)
	}
	if len(data) > maxLogoBytes {
		return nil, fmt.Errorf("ロゴのサイズが上限 (%d バイト) を超えています: %d バイト", maxLogoBytes, len(data))
	}
	return data, nil
}

// cacheKey は data URI のような長い参照でもキーが肥大化しないようにハッシュ化します。
func cacheKey(ref string) string {
	sum := sha256.Sum256([]byte(ref))
	return hex.EncodeToString(sum[:])
}
