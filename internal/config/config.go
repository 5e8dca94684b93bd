package config

import (
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	SimilarityEmbedding = "embedding"
	SimilarityTFIDF     = "tfidf"

	SkillsVocabulary = "vocabulary"
	SkillsLexical    = "lexical"
)

type Config struct {
	Server         ServerConfig
	Log            LogConfig
	Database       DatabaseConfig
	Qdrant         QdrantConfig
	Gemini         GeminiConfig
	Redis          RedisConfig
	Storage        StorageConfig
	Scoring        ScoringConfig
	Pipeline       PipelineConfig
	CircuitBreaker CircuitBreakerConfig
}

type ServerConfig struct {
	Port      string `validate:"required"`
	Env       string `validate:"oneof=development production test"`
	BodyLimit int    `validate:"gt=0"`
}

type LogConfig struct {
	JSON  bool
	Debug bool
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	MaxOpenConns    int `validate:"gt=0"`
	MaxIdleConns    int `validate:"gte=0"`
	ConnMaxLifetime time.Duration
}

type QdrantConfig struct {
	Enabled    bool
	URL        string `validate:"required_if=Enabled true"`
	APIKey     string
	Collection string `validate:"required_if=Enabled true"`
	VectorSize uint64 `validate:"gt=0"`
}

type GeminiConfig struct {
	APIKey       string
	EmbedModel   string `validate:"required"`
	MaxChunkSize int    `validate:"gt=0"`
	ChunkOverlap int    `validate:"gte=0"`
}

type RedisConfig struct {
	Enabled  bool
	Addr     string `validate:"required_if=Enabled true"`
	Password string
	DB       int           `validate:"gte=0"`
	TTL      time.Duration `validate:"gte=0"`
}

type StorageConfig struct {
	MaxFileSize int64 `validate:"gt=0"`
}

// ScoringConfig holds the product choices of the combined score. The two
// weights must sum to 1.
type ScoringConfig struct {
	SemanticWeight     float64 `validate:"gte=0,lte=1"`
	SkillWeight        float64 `validate:"gte=0,lte=1"`
	SimilarityStrategy string  `validate:"oneof=embedding tfidf"`
	SkillStrategy      string  `validate:"oneof=vocabulary lexical"`
	VocabularyFile     string
	PreviewLength      int `validate:"gt=0"`
}

type PipelineConfig struct {
	Concurrency       int           `validate:"gt=0"`
	ExtractionTimeout time.Duration `validate:"gte=0"`
}

type CircuitBreakerConfig struct {
	Enabled          bool
	MaxRequests      uint32        `validate:"gt=0"`
	Interval         time.Duration `validate:"gte=0"`
	Timeout          time.Duration `validate:"gt=0"`
	MinRequests      uint32        `validate:"gt=0"`
	FailureThreshold float64       `validate:"gt=0,lte=1"`
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port:      getEnv("PORT", "3000"),
			Env:       getEnv("ENV", "development"),
			BodyLimit: getEnvAsInt("BODY_LIMIT", 64*1024*1024),
		},
		Log: LogConfig{
			JSON:  getEnvAsBool("LOG_JSON", false),
			Debug: getEnvAsBool("LOG_DEBUG", false),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "resume_matcher"),

			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", "30m"),
		},
		Qdrant: QdrantConfig{
			Enabled:    getEnvAsBool("QDRANT_ENABLED", false),
			URL:        getEnv("QDRANT_URL", "http://localhost:6333"),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "resume_candidates"),
			VectorSize: uint64(getEnvAsInt64("QDRANT_VECTOR_SIZE", 768)),
		},
		Gemini: GeminiConfig{
			APIKey:       getEnv("GEMINI_API_KEY", ""),
			EmbedModel:   getEnv("GEMINI_EMBED_MODEL", "text-embedding-004"),
			MaxChunkSize: getEnvAsInt("GEMINI_MAX_CHUNK_SIZE", 8000),
			ChunkOverlap: getEnvAsInt("GEMINI_CHUNK_OVERLAP", 200),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      getEnvAsDuration("REDIS_EMBEDDING_TTL", "168h"),
		},
		Storage: StorageConfig{
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 16*1024*1024),
		},
		Scoring: ScoringConfig{
			SemanticWeight:     getEnvAsFloat("SEMANTIC_WEIGHT", 0.6),
			SkillWeight:        getEnvAsFloat("SKILL_WEIGHT", 0.4),
			SimilarityStrategy: strings.ToLower(getEnv("SIMILARITY_STRATEGY", SimilarityEmbedding)),
			SkillStrategy:      strings.ToLower(getEnv("SKILL_STRATEGY", SkillsVocabulary)),
			VocabularyFile:     getEnv("SKILLS_VOCABULARY_FILE", ""),
			PreviewLength:      getEnvAsInt("PREVIEW_LENGTH", 500),
		},
		Pipeline: PipelineConfig{
			Concurrency:       getEnvAsInt("PIPELINE_CONCURRENCY", 4),
			ExtractionTimeout: getEnvAsDuration("PIPELINE_EXTRACTION_TIMEOUT", "30s"),
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:          getEnvAsBool("CIRCUIT_BREAKER_ENABLED", true),
			MaxRequests:      uint32(getEnvAsInt("CIRCUIT_BREAKER_MAX_REQUESTS", 3)),
			Interval:         getEnvAsDuration("CIRCUIT_BREAKER_INTERVAL", "60s"),
			Timeout:          getEnvAsDuration("CIRCUIT_BREAKER_TIMEOUT", "30s"),
			MinRequests:      uint32(getEnvAsInt("CIRCUIT_BREAKER_MIN_REQUESTS", 3)),
			FailureThreshold: getEnvAsFloat("CIRCUIT_BREAKER_FAILURE_THRESHOLD", 0.6),
		},
	}
}

// Validate checks field constraints and the cross-field rules that struct tags
// cannot express.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if math.Abs(c.Scoring.SemanticWeight+c.Scoring.SkillWeight-1) > 1e-6 {
		return fmt.Errorf("invalid configuration: SEMANTIC_WEIGHT (%v) + SKILL_WEIGHT (%v) must equal 1",
			c.Scoring.SemanticWeight, c.Scoring.SkillWeight)
	}

	if c.Scoring.SimilarityStrategy == SimilarityEmbedding && c.Gemini.APIKey == "" {
		return fmt.Errorf("invalid configuration: GEMINI_API_KEY is required for the %q similarity strategy", SimilarityEmbedding)
	}

	if c.Gemini.ChunkOverlap >= c.Gemini.MaxChunkSize {
		return fmt.Errorf("invalid configuration: GEMINI_CHUNK_OVERLAP must be smaller than GEMINI_MAX_CHUNK_SIZE")
	}

	return nil
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
