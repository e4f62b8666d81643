package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	GigaChat GigaChatConfig
	Pipeline PipelineConfig
	Logger   LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// BodyLimit caps multipart upload size in bytes.
	BodyLimit int
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
}

type GigaChatConfig struct {
	APIKey             string
	Scope              string
	Model              string
	InsecureSkipVerify bool
}

// PipelineConfig holds the tunable knobs of the extraction pipeline. The fuzzy
// threshold and header heuristic were chosen empirically; validate changes
// against representative sample files.
type PipelineConfig struct {
	// ClassifyConcurrency bounds concurrent AI classification calls per file.
	ClassifyConcurrency int
	// RetryAttempts and RetryBaseDelay drive exponential backoff on rate limits.
	RetryAttempts  int
	RetryBaseDelay time.Duration
	// SampleRows is how many data rows are sent with each classification request.
	SampleRows int
	// FuzzyThreshold is the minimum similarity for a contract link (0..1).
	FuzzyThreshold float64
	// RequestDeadline caps end-to-end processing of one upload batch.
	RequestDeadline time.Duration
	// ProgressTTL is how long finished batch progress stays pollable.
	ProgressTTL time.Duration
}

func Load() (*Config, error) {
	// Try to load .env from the current directory or project root; plain
	// environment variables alone are fine (Docker/K8s).
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "60"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "60"))
	bodyLimit, _ := strconv.Atoi(getEnv("SERVER_BODY_LIMIT", strconv.Itoa(32<<20)))
	jwtExp, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	insecureSkipVerify := getEnv("GIGACHAT_INSECURE_SKIP_VERIFY", "true") == "true"

	classifyConcurrency, _ := strconv.Atoi(getEnv("PIPELINE_CLASSIFY_CONCURRENCY", "4"))
	retryAttempts, _ := strconv.Atoi(getEnv("PIPELINE_RETRY_ATTEMPTS", "3"))
	retryBaseDelay, _ := strconv.Atoi(getEnv("PIPELINE_RETRY_BASE_DELAY_SECONDS", "2"))
	sampleRows, _ := strconv.Atoi(getEnv("PIPELINE_SAMPLE_ROWS", "5"))
	fuzzyThreshold, _ := strconv.ParseFloat(getEnv("PIPELINE_FUZZY_THRESHOLD", "0.62"), 64)
	requestDeadline, _ := strconv.Atoi(getEnv("PIPELINE_REQUEST_DEADLINE_SECONDS", "300"))
	progressTTL, _ := strconv.Atoi(getEnv("PIPELINE_PROGRESS_TTL_MINUTES", "30"))

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
			BodyLimit:    bodyLimit,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "fluxodocs"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", "change-me-in-production"),
			Expiration: time.Duration(jwtExp) * time.Hour,
		},
		GigaChat: GigaChatConfig{
			APIKey:             getEnv("GIGACHAT_API_KEY", ""),
			Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			Model:              getEnv("GIGACHAT_MODEL", "GigaChat"),
			InsecureSkipVerify: insecureSkipVerify,
		},
		Pipeline: PipelineConfig{
			ClassifyConcurrency: classifyConcurrency,
			RetryAttempts:       retryAttempts,
			RetryBaseDelay:      time.Duration(retryBaseDelay) * time.Second,
			SampleRows:          sampleRows,
			FuzzyThreshold:      fuzzyThreshold,
			RequestDeadline:     time.Duration(requestDeadline) * time.Second,
			ProgressTTL:         time.Duration(progressTTL) * time.Minute,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
