package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"sustainability-council/shared/utils"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

// Поддерживаемые провайдеры модели.
const (
	AIClientGemini = "gemini"
	AIClientOpenAI = "openai"
	AIClientOllama = "ollama"
)

// Config хранит конфигурацию сервиса.
// Порядок применения: значения по умолчанию < YAML-файл (CONFIG_FILE) < переменные окружения.
type Config struct {
	Env         string `envconfig:"ENV" default:"development" yaml:"env" env:"ENV"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" yaml:"log_level" env:"LOG_LEVEL"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json" yaml:"log_encoding" env:"LOG_ENCODING"`
	ServerPort  string `envconfig:"SERVER_PORT" default:"8080" yaml:"server_port" env:"SERVER_PORT"`
	ConfigFile  string `envconfig:"CONFIG_FILE" yaml:"-"`

	// Настройки AI
	AIClientType     string        `envconfig:"AI_CLIENT_TYPE" default:"gemini" yaml:"ai_client_type" env:"AI_CLIENT_TYPE"`
	AIModel          string        `envconfig:"AI_MODEL" default:"gemini-2.5-flash" yaml:"ai_model" env:"AI_MODEL"`
	AIBaseURL        string        `envconfig:"AI_BASE_URL" yaml:"ai_base_url" env:"AI_BASE_URL"`
	AITimeout        time.Duration `envconfig:"AI_TIMEOUT" default:"120s" yaml:"ai_timeout" env:"AI_TIMEOUT"`
	AIMaxAttempts    int           `envconfig:"AI_MAX_ATTEMPTS" default:"1" yaml:"ai_max_attempts" env:"AI_MAX_ATTEMPTS"`
	AIBaseRetryDelay time.Duration `envconfig:"AI_BASE_RETRY_DELAY" default:"1s" yaml:"ai_base_retry_delay" env:"AI_BASE_RETRY_DELAY"`
	AITemperature    string        `envconfig:"AI_TEMPERATURE" yaml:"ai_temperature" env:"AI_TEMPERATURE"` // пусто = значение провайдера
	// 0 отключает проверку длины сценария
	MaxScenarioTokens int `envconfig:"MAX_SCENARIO_TOKENS" default:"4000" yaml:"max_scenario_tokens" env:"MAX_SCENARIO_TOKENS"`
	// Секретное поле БЕЗ envconfig тега
	AIAPIKey string `ignored:"true" yaml:"-"`

	// Сессии
	SessionTTL   time.Duration `envconfig:"SESSION_TTL" default:"12h" yaml:"session_ttl" env:"SESSION_TTL"`
	CookieSecure bool          `envconfig:"COOKIE_SECURE" default:"false" yaml:"cookie_secure" env:"COOKIE_SECURE"`
	// Секретное поле БЕЗ envconfig тега
	SessionSecret string `ignored:"true" yaml:"-"`

	// Redis (необязательно; без него сессии хранятся в памяти процесса)
	RedisAddr     string `envconfig:"REDIS_ADDR" yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0" yaml:"redis_db" env:"REDIS_DB"`
	RedisPassword string `ignored:"true" yaml:"-"`

	// RabbitMQ (необязательно; без него события использования не публикуются)
	RabbitMQURL     string `envconfig:"RABBITMQ_URL" yaml:"rabbitmq_url" env:"RABBITMQ_URL"`
	EventsQueueName string `envconfig:"EVENTS_QUEUE_NAME" default:"council_usage_events" yaml:"events_queue_name" env:"EVENTS_QUEUE_NAME"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
	// Если задан, шаблоны читаются с диска при каждом рендере
	TemplatesDir string `envconfig:"TEMPLATES_DIR" yaml:"templates_dir" env:"TEMPLATES_DIR"`
}

// LoadConfig загружает конфигурацию из .env, переменных окружения, необязательного YAML и секретов.
func LoadConfig(envFilePath string, logger *zap.Logger) (*Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("Could not load env file", zap.String("path", envFilePath), zap.Error(err))
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env vars: %w", err)
	}

	if cfg.ConfigFile != "" {
		// cleanenv читает YAML и затем снова применяет переменные окружения, поэтому env сильнее файла
		if err := cleanenv.ReadConfig(cfg.ConfigFile, &cfg); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfg.ConfigFile, err)
		}
	}

	cfg.AIAPIKey = utils.ReadSecretOrEnv("ai_api_key", "API_KEY", "GEMINI_API_KEY", "AI_API_KEY")
	cfg.SessionSecret = utils.ReadSecretOrEnv("session_secret", "SESSION_SECRET")
	cfg.RedisPassword = utils.ReadSecretOrEnv("redis_password", "REDIS_PASSWORD")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.AIAPIKey == "" && cfg.AIClientType != AIClientOllama {
		// Отсутствие ключа не фатально: ошибка проявится при первом вызове модели
		logger.Warn("AI API key is not set; council and chat calls will fail", zap.String("aiClientType", cfg.AIClientType))
	}
	if cfg.SessionSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, errors.New("SESSION_SECRET is required outside development")
		}
		cfg.SessionSecret = "dev-only-session-secret"
		logger.Warn("SESSION_SECRET is not set, using development secret")
	}

	cfg.logLoaded(logger)
	return &cfg, nil
}

func (c *Config) validate() error {
	c.AIClientType = strings.ToLower(strings.TrimSpace(c.AIClientType))
	switch c.AIClientType {
	case AIClientGemini, AIClientOpenAI, AIClientOllama:
	default:
		return fmt.Errorf("unsupported AI_CLIENT_TYPE %q", c.AIClientType)
	}
	if c.AIMaxAttempts < 1 {
		c.AIMaxAttempts = 1
	}
	if c.MaxScenarioTokens < 0 {
		return fmt.Errorf("MAX_SCENARIO_TOKENS must be >= 0, got %d", c.MaxScenarioTokens)
	}
	if _, err := c.Temperature(); err != nil {
		return err
	}
	return nil
}

// IsDevelopment сообщает, запущен ли сервис в режиме разработки.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Temperature возвращает температуру генерации или nil, если она не задана.
func (c *Config) Temperature() (*float64, error) {
	raw := strings.TrimSpace(c.AITemperature)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v > 2 {
		return nil, fmt.Errorf("invalid AI_TEMPERATURE %q", c.AITemperature)
	}
	return &v, nil
}

// GetAllowedOrigins splits the CORSAllowedOrigins string into a slice.
func (c *Config) GetAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	origins := strings.Split(strings.ReplaceAll(c.CORSAllowedOrigins, " ", ""), ",")
	out := origins[:0]
	for _, o := range origins {
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c *Config) logLoaded(logger *zap.Logger) {
	logger.Info("Configuration loaded",
		zap.String("env", c.Env),
		zap.String("port", c.ServerPort),
		zap.String("logLevel", c.LogLevel),
		zap.String("aiClientType", c.AIClientType),
		zap.String("aiModel", c.AIModel),
		zap.String("aiBaseURL", c.AIBaseURL),
		zap.Duration("aiTimeout", c.AITimeout),
		zap.Int("aiMaxAttempts", c.AIMaxAttempts),
		zap.Duration("aiBaseRetryDelay", c.AIBaseRetryDelay),
		zap.Int("maxScenarioTokens", c.MaxScenarioTokens),
		zap.Bool("aiAPIKeyLoaded", c.AIAPIKey != ""),
		zap.Bool("sessionSecretLoaded", c.SessionSecret != ""),
		zap.Duration("sessionTTL", c.SessionTTL),
		zap.Bool("redisEnabled", c.RedisAddr != ""),
		zap.Bool("eventsEnabled", c.RabbitMQURL != ""),
		zap.String("configFile", c.ConfigFile),
		zap.String("templatesDir", c.TemplatesDir),
	)
}
