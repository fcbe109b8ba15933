package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port   string
	LogDir string

	// Completion and embedding provider
	LLMProvider    string
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	GroqAPIKey     string
	OllamaBaseURL  string
	EmbeddingModel string
	// CompletionModel empty means the provider default
	CompletionModel string

	// Vector index
	VectorIndex       string
	PineconeAPIKey    string
	PineconeIndex     string
	PineconeNamespace string
	PineconeIndexHost string
	PGVectorTable     string

	// Postgres (pgvector backend)
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
	DBSSLMode  string

	// Transcript archive
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	// Identity provider session tokens
	AuthJWTPublicKey string
	AuthJWTSecret    string
	RequireSignIn    bool
	SignInURL        string
	// AllowedOrigins are websocket origin patterns such as "app.example.com"
	AllowedOrigins []string

	EmbedTimeout      time.Duration
	IndexTimeout      time.Duration
	CompletionTimeout time.Duration

	AssistantConfigPath string
}

func LoadConfig() Config {
	// a missing .env is fine, the process environment wins anyway
	_ = godotenv.Load()

	return Config{
		Port:   getEnv("PORT", "8000"),
		LogDir: getEnv("LOG_DIR", "./logs"),

		LLMProvider:     strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		GroqAPIKey:      getEnv("GROQ_API_KEY", ""),
		OllamaBaseURL:   getEnv("OLLAMA_BASE_URL", "http://localhost:11434/api"),
		EmbeddingModel:  getEnv("EMBEDDING_MODEL", "text-embedding-ada-002"),
		CompletionModel: getEnv("COMPLETION_MODEL", ""),

		VectorIndex:       strings.ToLower(getEnv("VECTOR_INDEX", "pinecone")),
		PineconeAPIKey:    getEnv("PINECONE_API_KEY", ""),
		PineconeIndex:     getEnv("PINECONE_INDEX", "rag"),
		PineconeNamespace: getEnv("PINECONE_NAMESPACE", "ns1"),
		PineconeIndexHost: getEnv("PINECONE_INDEX_HOST", ""),
		PGVectorTable:     getEnv("PGVECTOR_TABLE", "professor_reviews"),

		DBUser:     getEnv("DB_USER", ""),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBHost:     getEnv("DB_HOST", ""),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBName:     getEnv("DB_NAME", ""),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinIOBucket:    getEnv("MINIO_BUCKET", "profchat-transcripts"),
		MinIOUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		AuthJWTPublicKey: getEnv("AUTH_JWT_PUBLIC_KEY", ""),
		AuthJWTSecret:    getEnv("AUTH_JWT_SECRET", ""),
		RequireSignIn:    getEnvBool("REQUIRE_SIGN_IN", false),
		SignInURL:        getEnv("SIGN_IN_URL", ""),
		AllowedOrigins:   getEnvList("ALLOWED_ORIGINS"),

		EmbedTimeout:      getEnvDuration("EMBED_TIMEOUT", 15*time.Second),
		IndexTimeout:      getEnvDuration("INDEX_TIMEOUT", 10*time.Second),
		CompletionTimeout: getEnvDuration("COMPLETION_TIMEOUT", 120*time.Second),

		AssistantConfigPath: getEnv("ASSISTANT_CONFIG", ""),
	}
}

// ArchiveEnabled reports whether transcripts should be written to object storage.
func (c Config) ArchiveEnabled() bool {
	return c.MinIOEndpoint != ""
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}

// getEnvList splits a comma separated value and drops empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getEnvDuration accepts Go durations ("30s") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	secs, err := strconv.Atoi(value)
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}
