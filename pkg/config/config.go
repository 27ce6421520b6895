package config

import (
	"fmt"
	"time"
)

// デフォルト値の定義
const (
	DefaultGeminiModel       = "gemini-2.5-flash"
	DefaultImageModel        = "gemini-2.5-flash-image"
	DefaultTemperature       = float32(0.2)
	DefaultRateInterval      = 0 * time.Second // 0 はレート制限なし
	DefaultRequestTimeout    = 5 * time.Minute
	DefaultMaxConcurrentRuns = 3
	DefaultHistoryPath       = "data/history.db"
	DefaultHistoryLimit      = 20
	DefaultLogoTTL           = 1 * time.Hour
)

// Config は Go Diagram Kit のパイプラインと Runner を動作させるための基本設定です。
type Config struct {
	// --- AI Model Settings ---
	GeminiAPIKey string
	GeminiModel  string  // 説明文の作成と批評に使うテキストモデル
	ImageModel   string  // 図の描画に使う画像モデル
	Temperature  float32 // テキスト生成の温度

	// --- Generation Settings ---
	RateInterval      time.Duration // プロバイダー呼び出しの最小間隔
	MaxConcurrentRuns int

	// --- History Settings ---
	HistoryPath  string // 空なら履歴を使わない
	HistoryLimit int

	// --- Branding Settings ---
	LogoTTL time.Duration // 取得したロゴ画像のキャッシュ期間

	// --- Timeout & Retries ---
	RequestTimeout time.Duration
}

// NewConfig はデフォルト値で初期化された Config を作成し、API キーをセットして返します。
func NewConfig(apiKey string) Config {
	cfg := DefaultConfig()
	cfg.GeminiAPIKey = apiKey
	return cfg
}

// DefaultConfig は推奨されるデフォルト設定を返すヘルパー関数です。
func DefaultConfig() Config {
	return Config{
		GeminiModel:       DefaultGeminiModel,
		ImageModel:        DefaultImageModel,
		Temperature:       DefaultTemperature,
		RateInterval:      DefaultRateInterval,
		MaxConcurrentRuns: DefaultMaxConcurrentRuns,
		HistoryPath:       DefaultHistoryPath,
		HistoryLimit:      DefaultHistoryLimit,
		LogoTTL:           DefaultLogoTTL,
		RequestTimeout:    DefaultRequestTimeout,
	}
}

// Validate は明らかに不正な設定を検出します。API キーの有無は実行時に判定するため検証しません。
func (c Config) Validate() error {
	switch {
	case c.GeminiModel == "":
		return fmt.Errorf("config: テキストモデルが指定されていません")
	case c.ImageModel == "":
		return fmt.Errorf("config: 画像モデルが指定されていません")
	case c.RateInterval < 0:
		return fmt.Errorf("config: RateInterval は 0 以上である必要があります (got %s)", c.RateInterval)
	case c.MaxConcurrentRuns < 1:
		return fmt.Errorf("config: MaxConcurrentRuns は 1 以上である必要があります (got %d)", c.MaxConcurrentRuns)
	case c.HistoryLimit < 1:
		return fmt.Errorf("config: HistoryLimit は 1 以上である必要があります (got %d)", c.HistoryLimit)
	}
	return nil
}
