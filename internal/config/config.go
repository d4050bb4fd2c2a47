package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"recipebox/internal/logger"
)

// Recommender names accepted by RECOMMENDER.
const (
	RecommenderScore  = "score"
	RecommenderOpenAI = "openai"
	RecommenderGemini = "gemini"
)

// Config represents the application configuration.
type Config struct {
	Port      string
	DB        DBConfig
	Import    ImportConfig
	Translate TranslateConfig
	RedisAddr string
	// RedisPassword is only used when RedisAddr is set.
	RedisPassword string
	Recommend     RecommendConfig
	CORSOrigins   []string
	// FirebaseProjectID enables ID-token checks on user-scoped mutations when set.
	FirebaseProjectID string
	ImageDir          string
	AdminEndpoints    bool
	Logger            logger.Config
}

type DBConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// DSN returns DATABASE_URL when set, otherwise a key/value DSN built from the parts.
func (c DBConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}

type ImportConfig struct {
	APIKey   string
	BaseURL  string
	OnStart  bool
	Force    bool
	Limit    int
	PageSize int
	// Schedule is a cron spec for periodic re-imports; empty disables it.
	Schedule string
}

type TranslateConfig struct {
	ClientID     string
	ClientSecret string
	URL          string
	Source       string
	Target       string
	Delay        time.Duration
}

// Enabled reports whether translation credentials are configured.
func (c TranslateConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type RecommendConfig struct {
	Provider     string
	OpenAIAPIKey string
	OpenAIURL    string
	OpenAIModel  string
	GeminiAPIKey string
	GeminiModel  string
}

// Load reads .env, then config.json, then the process environment; later sources win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	file, err := readConfigFile(getEnvOrDefault("CONFIG_FILE", "config.json"))
	if err != nil {
		return nil, err
	}
	get := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		if v, ok := file[key]; ok && v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port: get("PORT", "5001"),
		DB: DBConfig{
			URL:      get("DATABASE_URL", ""),
			Host:     get("DB_HOST", "localhost"),
			Port:     get("DB_PORT", "5432"),
			User:     get("DB_USER", "postgres"),
			Password: get("DB_PASSWORD", "postgres"),
			Name:     get("DB_NAME", "recipebox"),
		},
		Import: ImportConfig{
			APIKey:   get("FOOD_API_KEY", ""),
			BaseURL:  get("FOOD_API_URL", "https://openapi.foodsafetykorea.go.kr/api"),
			OnStart:  parseBool(get("IMPORT_ON_START", "true")),
			Force:    parseBool(get("IMPORT_FORCE", "false")),
			Limit:    parseInt(get("IMPORT_LIMIT", "1000"), 1000),
			PageSize: parseInt(get("IMPORT_PAGE_SIZE", "1000"), 1000),
			Schedule: get("IMPORT_SCHEDULE", ""),
		},
		Translate: TranslateConfig{
			ClientID:     get("TRANSLATE_CLIENT_ID", ""),
			ClientSecret: get("TRANSLATE_CLIENT_SECRET", ""),
			URL:          get("TRANSLATE_URL", "https://openapi.naver.com/v1/papago/n2mt"),
			Source:       get("TRANSLATE_SOURCE", "ko"),
			Target:       get("TRANSLATE_TARGET", "en"),
			Delay:        parseDuration(get("TRANSLATE_DELAY", "500ms"), 500*time.Millisecond),
		},
		RedisAddr:     get("REDIS_ADDR", ""),
		RedisPassword: get("REDIS_PASSWORD", ""),
		Recommend: RecommendConfig{
			Provider:     strings.ToLower(get("RECOMMENDER", RecommenderScore)),
			OpenAIAPIKey: get("OPENAI_API_KEY", ""),
			OpenAIURL:    get("OPENAI_URL", "https://api.openai.com/v1/chat/completions"),
			OpenAIModel:  get("OPENAI_MODEL", "gpt-4"),
			GeminiAPIKey: get("GEMINI_API_KEY", ""),
			GeminiModel:  get("GEMINI_MODEL", "gemini-1.5-flash"),
		},
		CORSOrigins:       splitCSV(get("CORS_ORIGINS", "http://localhost:5173")),
		FirebaseProjectID: get("FIREBASE_PROJECT_ID", ""),
		ImageDir:          get("IMAGE_DIR", "images"),
		AdminEndpoints:    parseBool(get("ADMIN_ENDPOINTS", "false")),
		Logger: logger.Config{
			Level:      get("LOG_LEVEL", "info"),
			OutputPath: get("LOG_OUTPUT", "stdout"),
			Format:     get("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail only at request time.
func (c *Config) Validate() error {
	switch c.Recommend.Provider {
	case RecommenderScore:
	case RecommenderOpenAI:
		if c.Recommend.OpenAIAPIKey == "" {
			return errors.New("config: RECOMMENDER=openai requires OPENAI_API_KEY")
		}
	case RecommenderGemini:
		if c.Recommend.GeminiAPIKey == "" {
			return errors.New("config: RECOMMENDER=gemini requires GEMINI_API_KEY")
		}
	default:
		return fmt.Errorf("config: unknown recommender %q", c.Recommend.Provider)
	}
	if c.Import.Limit <= 0 || c.Import.PageSize <= 0 {
		return errors.New("config: IMPORT_LIMIT and IMPORT_PAGE_SIZE must be positive")
	}
	if c.Import.Schedule != "" {
		if _, err := cron.ParseStandard(c.Import.Schedule); err != nil {
			return fmt.Errorf("config: invalid IMPORT_SCHEDULE %q: %w", c.Import.Schedule, err)
		}
	}
	return nil
}

// readConfigFile decodes a flat JSON object of env-style keys. A missing file is not an error.
func readConfigFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		values[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return values, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func parseInt(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
