package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config contains all runtime settings for the content service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string
	AllowAnyOrigin   bool

	LogLevel  string
	LogFormat string

	HistoryPath  string
	HistoryLimit int
	DatabaseURL  string

	HuggingFaceAPIKey   string
	SEOModelURL         string
	SEOTimeout          time.Duration
	HuggingFaceImageURL string

	ImageProviderA   string
	ImageProviderB   string
	ProbeTimeout     time.Duration
	ProviderATimeout time.Duration
	ProviderBTimeout time.Duration

	AIMLBaseURL string
	AIMLAPIKey  string

	ProdiaBaseURL      string
	ProdiaAPIKey       string
	ProdiaPollInterval time.Duration
	ProdiaMaxPolls     int

	AdsEnabled                  bool
	AdsTestMode                 bool
	AdMobAppID                  string
	AdMobBannerID               string
	AdMobInterstitialID         string
	MetaAppID                   string
	MetaBannerPlacementID       string
	MetaInterstitialPlacementID string
	InterstitialCooldown        time.Duration
}

// maxHistoryLimit matches the history store cap.
const maxHistoryLimit = 50

// setting binds a config file key to its environment variable and default.
type setting struct {
	key      string
	env      string
	fallback string
}

var settings = []setting{
	{"app.bind_addr", "APP_BIND_ADDR", ":8080"},
	{"app.shutdown_timeout", "APP_SHUTDOWN_TIMEOUT", "15s"},
	{"app.metrics_namespace", "APP_METRICS_NAMESPACE", "vidranker"},
	{"app.allow_any_origin", "APP_ALLOW_ANY_ORIGIN", "false"},
	{"log.level", "LOG_LEVEL", "INFO"},
	{"log.format", "LOG_FORMAT", "text"},
	{"history.path", "HISTORY_PATH", "data/history.db"},
	{"history.limit", "HISTORY_LIMIT", "50"},
	{"history.database_url", "DATABASE_URL", ""},
	{"huggingface.api_key", "HF_API_KEY", ""},
	{"seo.model_url", "SEO_MODEL_URL", "https://api-inference.huggingface.co/models/microsoft/DialoGPT-medium"},
	{"seo.timeout", "SEO_TIMEOUT", "30s"},
	{"huggingface.image_url", "HF_IMAGE_MODEL_URL", "https://api-inference.huggingface.co/models/black-forest-labs/FLUX.1-dev"},
	{"image.provider_a", "IMAGE_PROVIDER_A", "huggingface"},
	{"image.provider_b", "IMAGE_PROVIDER_B", "prodia"},
	{"image.probe_timeout", "IMAGE_PROBE_TIMEOUT", "5s"},
	{"image.provider_a_timeout", "IMAGE_PROVIDER_A_TIMEOUT", "45s"},
	{"image.provider_b_timeout", "IMAGE_PROVIDER_B_TIMEOUT", "35s"},
	{"aiml.base_url", "AIML_BASE_URL", "https://api.aimlapi.com"},
	{"aiml.api_key", "AIML_API_KEY", ""},
	{"prodia.base_url", "PRODIA_BASE_URL", "https://api.prodia.com/v1"},
	{"prodia.api_key", "PRODIA_API_KEY", ""},
	{"prodia.poll_interval", "PRODIA_POLL_INTERVAL", "1s"},
	{"prodia.max_polls", "PRODIA_MAX_POLLS", "30"},
	{"ads.enabled", "ADS_ENABLED", "true"},
	{"ads.test_mode", "ADS_TEST_MODE", "false"},
	{"ads.admob_app_id", "ADMOB_APP_ID", "ca-app-pub-2211398170597117~9683407494"},
	{"ads.admob_banner_id", "ADMOB_BANNER_ID", "ca-app-pub-2211398170597117/2547153500"},
	{"ads.admob_interstitial_id", "ADMOB_INTERSTITIAL_ID", "ca-app-pub-2211398170597117/8371175883"},
	{"ads.meta_app_id", "META_APP_ID", "1160387479246621"},
	{"ads.meta_banner_placement_id", "META_BANNER_PLACEMENT_ID", "1160387479246621_1164434622175240"},
	{"ads.meta_interstitial_placement_id", "META_INTERSTITIAL_PLACEMENT_ID", "1160387479246621_1161152762503426"},
	{"ads.interstitial_cooldown", "ADS_INTERSTITIAL_COOLDOWN", "30s"},
}

// Load reads vidranker.yaml (if present) and environment variables and applies safe defaults.
// Environment variables win over the file.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("vidranker")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if path := trimSpace(os.Getenv("APP_CONFIG_FILE")); path != "" {
		v.SetConfigFile(path)
	}
	for _, s := range settings {
		v.SetDefault(s.key, s.fallback)
		if err := v.BindEnv(s.key, s.env); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", s.env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	r := reader{v: v}
	cfg := Config{
		BindAddr:                    r.str("app.bind_addr"),
		MetricsNamespace:            r.str("app.metrics_namespace"),
		LogLevel:                    r.str("log.level"),
		LogFormat:                   strings.ToLower(r.str("log.format")),
		HistoryPath:                 r.str("history.path"),
		DatabaseURL:                 r.str("history.database_url"),
		HuggingFaceAPIKey:           r.str("huggingface.api_key"),
		SEOModelURL:                 r.str("seo.model_url"),
		HuggingFaceImageURL:         r.str("huggingface.image_url"),
		ImageProviderA:              strings.ToLower(r.str("image.provider_a")),
		ImageProviderB:              strings.ToLower(r.str("image.provider_b")),
		AIMLBaseURL:                 r.str("aiml.base_url"),
		AIMLAPIKey:                  r.str("aiml.api_key"),
		ProdiaBaseURL:               r.str("prodia.base_url"),
		ProdiaAPIKey:                r.str("prodia.api_key"),
		AdMobAppID:                  r.str("ads.admob_app_id"),
		AdMobBannerID:               r.str("ads.admob_banner_id"),
		AdMobInterstitialID:         r.str("ads.admob_interstitial_id"),
		MetaAppID:                   r.str("ads.meta_app_id"),
		MetaBannerPlacementID:       r.str("ads.meta_banner_placement_id"),
		MetaInterstitialPlacementID: r.str("ads.meta_interstitial_placement_id"),
	}
	cfg.ShutdownTimeout = r.duration("app.shutdown_timeout")
	cfg.AllowAnyOrigin = r.boolean("app.allow_any_origin")
	cfg.HistoryLimit = r.integer("history.limit")
	cfg.SEOTimeout = r.duration("seo.timeout")
	cfg.ProbeTimeout = r.duration("image.probe_timeout")
	cfg.ProviderATimeout = r.duration("image.provider_a_timeout")
	cfg.ProviderBTimeout = r.duration("image.provider_b_timeout")
	cfg.ProdiaPollInterval = r.duration("prodia.poll_interval")
	cfg.ProdiaMaxPolls = r.integer("prodia.max_polls")
	cfg.AdsEnabled = r.boolean("ads.enabled")
	cfg.AdsTestMode = r.boolean("ads.test_mode")
	cfg.InterstitialCooldown = r.duration("ads.interstitial_cooldown")
	if r.err != nil {
		return Config{}, r.err
	}

	if cfg.HistoryLimit <= 0 || cfg.HistoryLimit > maxHistoryLimit {
		return Config{}, fmt.Errorf("HISTORY_LIMIT must be between 1 and %d", maxHistoryLimit)
	}
	if cfg.ProdiaMaxPolls <= 0 {
		return Config{}, fmt.Errorf("PRODIA_MAX_POLLS must be positive")
	}
	if cfg.ProdiaPollInterval <= 0 {
		return Config{}, fmt.Errorf("PRODIA_POLL_INTERVAL must be positive")
	}
	if cfg.ProbeTimeout <= 0 || cfg.ProviderATimeout <= 0 || cfg.ProviderBTimeout <= 0 {
		return Config{}, fmt.Errorf("image provider timeouts must be positive")
	}
	switch cfg.ImageProviderA {
	case "huggingface", "aiml", "none":
	default:
		return Config{}, fmt.Errorf("invalid IMAGE_PROVIDER_A: %q (expected huggingface|aiml|none)", cfg.ImageProviderA)
	}
	switch cfg.ImageProviderB {
	case "prodia", "none":
	default:
		return Config{}, fmt.Errorf("invalid IMAGE_PROVIDER_B: %q (expected prodia|none)", cfg.ImageProviderB)
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return Config{}, fmt.Errorf("invalid LOG_FORMAT: %q (expected text|json)", cfg.LogFormat)
	}

	return cfg, nil
}

// reader pulls typed values out of viper and keeps the first parse error.
type reader struct {
	v   *viper.Viper
	err error
}

func (r *reader) str(key string) string {
	return trimSpace(r.v.GetString(key))
}

func (r *reader) duration(key string) time.Duration {
	d, err := parseDuration(envName(key), r.str(key))
	r.keep(err)
	return d
}

func (r *reader) integer(key string) int {
	n, err := parseInt(envName(key), r.str(key))
	r.keep(err)
	return n
}

func (r *reader) boolean(key string) bool {
	b, err := parseBool(envName(key), r.str(key))
	r.keep(err)
	return b
}

func (r *reader) keep(err error) {
	if err != nil && r.err == nil {
		r.err = err
	}
}

func envName(key string) string {
	for _, s := range settings {
		if s.key == key {
			return s.env
		}
	}
	return key
}

func trimSpace(v string) string {
	return strings.TrimSpace(v)
}

func parseDuration(name, v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", name, err)
	}
	return d, nil
}

func parseInt(name, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", name, err)
	}
	return n, nil
}

func parseBool(name, v string) (bool, error) {
	switch strings.ToLower(v) {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", name)
	}
}
