package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config はサーバー全体の設定です。すべて環境変数から読み込みます。
type Config struct {
	GeminiAPIKey string `env:"GEMINI_API_KEY,required,notEmpty"`

	GenerationModel string        `env:"GENERATION_MODEL" envDefault:"gemini-2.5-flash-image"`
	AnalysisModel   string        `env:"ANALYSIS_MODEL" envDefault:"gemini-2.5-flash"`
	AspectRatio     string        `env:"ASPECT_RATIO"`
	CallTimeout     time.Duration `env:"CALL_TIMEOUT" envDefault:"2m"`
	HTTPTimeout     time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
	GenerationSeed  *int64        `env:"GENERATION_SEED"`

	SourceMIMEType string `env:"SOURCE_MIME_TYPE" envDefault:"image/jpeg"`
	CompressSource bool   `env:"COMPRESS_SOURCE" envDefault:"false"`
	JPEGQuality    int    `env:"JPEG_QUALITY" envDefault:"85"`

	// EnableGCSSource が true の場合、gs:// の画像参照を GCS から読み込みます（アプリケーションデフォルト認証情報を使用）。
	EnableGCSSource bool `env:"ENABLE_GCS_SOURCE" envDefault:"false"`

	MatchDefaultConfidence    float64 `env:"IDENTITY_MATCH_DEFAULT_CONFIDENCE" envDefault:"0.5"`
	MismatchDefaultConfidence float64 `env:"IDENTITY_MISMATCH_DEFAULT_CONFIDENCE" envDefault:"0.3"`

	WebAddr   string `env:"WEB_ADDR" envDefault:":8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load は .env があれば読み込んだうえで、環境変数から Config を組み立てます。
// 既に設定されている環境変数は .env の値で上書きされません。
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf(".env の読み込みに失敗しました: %w", err)
	}
	return Parse()
}

// Parse は環境変数のみから Config を組み立てて検証します。
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate は値の範囲をチェックします。
func (c *Config) Validate() error {
	var errs []error
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("JPEG_QUALITY must be within 1-100, got %d", c.JPEGQuality))
	}
	if !inUnitRange(c.MatchDefaultConfidence) {
		errs = append(errs, fmt.Errorf("IDENTITY_MATCH_DEFAULT_CONFIDENCE must be within [0,1], got %v", c.MatchDefaultConfidence))
	}
	if !inUnitRange(c.MismatchDefaultConfidence) {
		errs = append(errs, fmt.Errorf("IDENTITY_MISMATCH_DEFAULT_CONFIDENCE must be within [0,1], got %v", c.MismatchDefaultConfidence))
	}
	if c.CallTimeout < 0 || c.HTTPTimeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// ParseLevel は LOG_LEVEL の文字列を slog.Level に変換します。
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

func inUnitRange(v float64) bool {
	return v >= 0 && v <= 1
}
