package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuracion del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	LLMAPIKey      string `env:"LLM_API_KEY,required"`
	LLMBaseURL     string `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModel       string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	EmbeddingModel string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`

	// Politica de reintentos contra el servicio generativo.
	LLMTimeoutSeconds    int `env:"LLM_TIMEOUT_SECONDS" envDefault:"30"`
	LLMRetryAttempts     int `env:"LLM_RETRY_ATTEMPTS" envDefault:"3"`
	LLMRetryDelaySeconds int `env:"LLM_RETRY_DELAY_SECONDS" envDefault:"2"`

	// Ventana deslizante de rate limit por usuario.
	RateLimitMax           int `env:"RATE_LIMIT_MAX" envDefault:"12"`
	RateLimitWindowSeconds int `env:"RATE_LIMIT_WINDOW_SECONDS" envDefault:"60"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Superficie administrativa (limpieza de historial, patrones).
	JWTSecret           string `env:"JWT_SECRET"`
	JWTAccessTTLMinutes int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"15"`
	AdminKeyHash        string `env:"ADMIN_KEY_HASH"`
}

// LoadConfig carga la configuracion desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
