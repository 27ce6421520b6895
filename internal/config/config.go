package config

import (
	"log/slog"
	"strconv"
	"time"

	libconfig "github.com/shouni/go-diagram-kit/pkg/config"
	"github.com/shouni/go-diagram-kit/pkg/domain"

	"github.com/joho/godotenv"
	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義
const (
	DefaultModel        = libconfig.DefaultGeminiModel
	DefaultImageModel   = libconfig.DefaultImageModel
	DefaultHTTPTimeout  = libconfig.DefaultRequestTimeout
	DefaultIterations   = 3
	DefaultDiagramType  = string(domain.DiagramMethodology)
	DefaultOutputFile   = "output/diagram.png"
	DefaultEnvFile      = ".env"
	DefaultHistoryLimit = libconfig.DefaultHistoryLimit
)

// Config はアプリケーション全体の環境設定（APIキーや履歴の保存先）を保持する構造体です。
type Config struct {
	GeminiAPIKey      string
	GeminiModel       string
	GeminiImageModel  string
	Temperature       float32
	RateInterval      time.Duration
	HTTPTimeout       time.Duration
	MaxConcurrentRuns int
	HistoryDB         string
	HistoryLimit      int

	Options GenerateOptions
}

// LoadConfig は .env と環境変数から設定を読み込み、構造体を返します。
// .env が存在しない場合は環境変数のみを使います。
func LoadConfig() *Config {
	if err := godotenv.Load(DefaultEnvFile); err == nil {
		slog.Debug(".env を読み込みました", "path", DefaultEnvFile)
	}

	return &Config{
		GeminiAPIKey:      envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiModel:       envutil.GetEnv("GEMINI_MODEL", DefaultModel),
		GeminiImageModel:  envutil.GetEnv("IMAGE_GEMINI_MODEL", DefaultImageModel),
		Temperature:       parseFloat32("GEMINI_TEMPERATURE", libconfig.DefaultTemperature),
		RateInterval:      parseDuration("RATE_INTERVAL", libconfig.DefaultRateInterval),
		HTTPTimeout:       parseDuration("HTTP_TIMEOUT", DefaultHTTPTimeout),
		MaxConcurrentRuns: parseInt("MAX_CONCURRENT_RUNS", libconfig.DefaultMaxConcurrentRuns),
		HistoryDB:         envutil.GetEnv("HISTORY_DB", libconfig.DefaultHistoryPath),
		HistoryLimit:      parseInt("HISTORY_LIMIT", DefaultHistoryLimit),
	}
}

// LibraryConfig はライブラリ層 (pkg/config) の設定に変換します。CLI フラグの指定が優先されます。
func (c *Config) LibraryConfig() libconfig.Config {
	cfg := libconfig.NewConfig(c.GeminiAPIKey)
	cfg.GeminiModel = c.GeminiModel
	cfg.ImageModel = c.GeminiImageModel
	cfg.Temperature = c.Temperature
	cfg.RateInterval = c.RateInterval
	cfg.RequestTimeout = c.HTTPTimeout
	cfg.MaxConcurrentRuns = c.MaxConcurrentRuns
	cfg.HistoryPath = c.HistoryDB
	cfg.HistoryLimit = c.HistoryLimit

	if c.Options.AIModel != "" {
		cfg.GeminiModel = c.Options.AIModel
	}
	if c.Options.ImageModel != "" {
		cfg.ImageModel = c.Options.ImageModel
	}
	if c.Options.HTTPTimeout > 0 {
		cfg.RequestTimeout = c.Options.HTTPTimeout
	}
	return cfg
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータです。
type GenerateOptions struct {
	// ソース入力関連
	SourceFile  string // --source-file
	Caption     string // --caption
	DiagramType string // --type
	UseExample  bool   // --example

	// 生成関連
	Iterations  int    // --iterations
	AspectRatio string // --aspect-ratio

	// ブランディング
	ShowLogo bool   // --show-logo
	Logo     string // --logo
	ShowURL  bool   // --show-url
	URLText  string // --url-text

	// 出力関連
	OutputFile     string // --output-file
	SaveIterations bool   // --save-iterations
	NoHistory      bool   // --no-history

	// AI挙動設定
	AIModel     string        // --model: テキスト生成用のGeminiモデル
	ImageModel  string        // --image-model: 画像生成用のGeminiモデル
	PromptsFile string        // --prompts: プロンプト上書き用の YAML
	HTTPTimeout time.Duration // --http-timeout
	Verbose     bool          // --verbose
}

func parseInt(key string, def int) int {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("環境変数を整数として解釈できないため既定値を使います", "key", key, "value", raw)
		return def
	}
	return v
}

func parseFloat32(key string, def float32) float32 {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		slog.Warn("環境変数を数値として解釈できないため既定値を使います", "key", key, "value", raw)
		return def
	}
	return float32(v)
}

func parseDuration(key string, def time.Duration) time.Duration {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("環境変数を期間として解釈できないため既定値を使います", "key", key, "value", raw)
		return def
	}
	return v
}
