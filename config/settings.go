package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings is the typed view of the environment used to wire the server.
type Settings struct {
	Port      string
	LogLevel  string
	LogFormat string // json|text

	LLMProvider   string
	LLMModel      string
	LLMAPIKey     string
	LLMBaseURL    string
	GCPProject    string
	GCPLocation   string
	LLMTimeout    time.Duration
	ExtractTokens int

	JWTSecret string
	JWTTTL    time.Duration

	GCSBucket       string
	GCSPublic       bool
	LearningWorkers int
	CacheBackend    string // redis|memory
	CacheTTL        time.Duration

	DefaultCoverage        float64
	DefaultOverheadPercent float64
	DefaultValidityDays    int
	PaymentTerms           string
	PublicBaseURL          string
}

// LoadSettings reads the environment. Unset values fall back to defaults;
// malformed numbers are an error.
func LoadSettings() (Settings, error) {
	s := Settings{
		Port:         envOr("PORT", "8080"),
		LogLevel:     envOr("LOG_LEVEL", "info"),
		LogFormat:    strings.ToLower(envOr("LOG_FORMAT", "json")),
		LLMProvider:  strings.ToLower(envOr("LLM_PROVIDER", "vertex")),
		LLMModel:     os.Getenv("LLM_MODEL"),
		LLMBaseURL:   os.Getenv("OPENAI_BASE_URL"),
		GCPProject:   firstEnv("GCP_PROJECT_ID", "GOOGLE_CLOUD_PROJECT"),
		GCPLocation:  envOr("GCP_LOCATION", "us-central1"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		GCSBucket:    os.Getenv("GCS_BUCKET"),
		GCSPublic:    os.Getenv("GCS_PUBLIC") == "true",
		CacheBackend: strings.ToLower(envOr("CACHE_BACKEND", "redis")),
		PaymentTerms: os.Getenv("PAYMENT_TERMS"),

		PublicBaseURL: strings.TrimRight(os.Getenv("PUBLIC_BASE_URL"), "/"),
	}
	switch s.LLMProvider {
	case "anthropic", "claude":
		s.LLMAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	case "openai":
		s.LLMAPIKey = os.Getenv("OPENAI_API_KEY")
	}

	var err error
	if s.LLMTimeout, err = envSeconds("LLM_TIMEOUT_SECONDS", 20); err != nil {
		return s, err
	}
	if s.ExtractTokens, err = envInt("LLM_EXTRACT_MAX_TOKENS", 2048); err != nil {
		return s, err
	}
	hours, err := envInt("JWT_TTL_HOURS", 12)
	if err != nil {
		return s, err
	}
	s.JWTTTL = time.Duration(hours) * time.Hour
	if s.LearningWorkers, err = envInt("LEARNING_WORKERS", 2); err != nil {
		return s, err
	}
	if s.CacheTTL, err = envSeconds("CACHE_TTL_SECONDS", 300); err != nil {
		return s, err
	}
	if s.DefaultCoverage, err = envFloat("DEFAULT_COVERAGE", 350); err != nil {
		return s, err
	}
	if s.DefaultOverheadPercent, err = envFloat("DEFAULT_OVERHEAD_PERCENT", 10); err != nil {
		return s, err
	}
	if s.DefaultValidityDays, err = envInt("DEFAULT_VALIDITY_DAYS", 30); err != nil {
		return s, err
	}

	if s.CacheBackend != "redis" && s.CacheBackend != "memory" {
		return s, fmt.Errorf("CACHE_BACKEND must be redis or memory, got %q", s.CacheBackend)
	}
	if s.DefaultCoverage <= 0 {
		return s, fmt.Errorf("DEFAULT_COVERAGE must be positive")
	}
	return s, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func envSeconds(key string, def int) (time.Duration, error) {
	n, err := envInt(key, def)
	return time.Duration(n) * time.Second, err
}
