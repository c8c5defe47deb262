package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Reviewer gate. Mode "static" accepts any non-empty token (optionally
	// checked against ReviewerTokenHash); mode "jwt" verifies a signed token
	// carrying a reviewer role claim.
	ReviewerAuthMode  string
	ReviewerTokenHash string
	JWTKey            []byte

	// Sandbox limits applied to every test-case run.
	SandboxTimeoutSeconds int
	SandboxOutputLimit    int
	SandboxRecursionLimit int
	PythonExecutable      string

	SubmissionLockTTLSeconds int
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:       getEnv("API_PORT", "8080"),
		DBHost:        getEnv("DB_HOST", ""),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "user"),
		DBPassword:    getEnv("DB_PASSWORD", "password"),
		DBName:        getEnv("DB_NAME", "aqcode_db"),
		DBSslMode:     getEnv("DB_SSLMODE", "disable"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		ReviewerAuthMode:  getEnv("REVIEWER_AUTH_MODE", "static"),
		ReviewerTokenHash: getEnv("REVIEWER_TOKEN_HASH", ""),
		JWTKey:            []byte(getEnv("JWT_SECRET", "defaultsecret")),

		SandboxTimeoutSeconds: getEnvAsInt("SANDBOX_TIMEOUT_SECONDS", 3),
		SandboxOutputLimit:    getEnvAsInt("SANDBOX_OUTPUT_LIMIT", 10000),
		SandboxRecursionLimit: getEnvAsInt("SANDBOX_RECURSION_LIMIT", 1000),
		PythonExecutable:      getEnv("PYTHON_EXECUTABLE", "python3"),

		SubmissionLockTTLSeconds: getEnvAsInt("SUBMISSION_LOCK_TTL_SECONDS", 60),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode

	if err := AppConfig.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
}

// Validate rejects sandbox limits that would disable the guardrails.
func (c *Config) Validate() error {
	if c.SandboxTimeoutSeconds <= 0 {
		return fmt.Errorf("SANDBOX_TIMEOUT_SECONDS must be positive, got %d", c.SandboxTimeoutSeconds)
	}
	if c.SandboxOutputLimit <= 0 {
		return fmt.Errorf("SANDBOX_OUTPUT_LIMIT must be positive, got %d", c.SandboxOutputLimit)
	}
	if c.SandboxRecursionLimit <= 0 {
		return fmt.Errorf("SANDBOX_RECURSION_LIMIT must be positive, got %d", c.SandboxRecursionLimit)
	}
	if c.ReviewerAuthMode != "static" && c.ReviewerAuthMode != "jwt" {
		return fmt.Errorf("REVIEWER_AUTH_MODE must be 'static' or 'jwt', got %q", c.ReviewerAuthMode)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
