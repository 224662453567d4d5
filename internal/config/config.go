package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config collects every runtime knob of the service. Values come from the
// environment with sensible defaults; a local .env file is honored when
// present.
type Config struct {
	Port              int
	PythonExecutable  string
	ClassifierScript  string
	ClassifierTimeout time.Duration
	TempDir           string
	SweepInterval     time.Duration
	SweepMaxAge       time.Duration
	DatabaseDSN       string
	CORSAllowOrigins  []string
}

// Load reads configuration from the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:              getEnvAsInt("PORT", 8080),
		PythonExecutable:  getEnv("PYTHON_EXECUTABLE", "python3"),
		ClassifierScript:  getEnv("CLASSIFIER_SCRIPT", filepath.Join(".", "detect_uniform.py")),
		ClassifierTimeout: getEnvAsSeconds("CLASSIFIER_TIMEOUT_SECONDS", 30),
		TempDir:           getEnv("TEMP_DIR", filepath.Join(os.TempDir(), "uniform-control")),
		SweepInterval:     getEnvAsSeconds("SWEEP_INTERVAL_SECONDS", 600),
		SweepMaxAge:       getEnvAsSeconds("SWEEP_MAX_AGE_SECONDS", 3600),
		DatabaseDSN:       os.Getenv("DATABASE_DSN"),
		CORSAllowOrigins:  []string{getEnv("CORS_ALLOW_ORIGINS", "*")},
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback)) * time.Second
}
