package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL"`

	// API key required by clients. Empty disables authentication.
	APIKey string `envconfig:"API_KEY"`

	OpenAIAPIKey    string  `envconfig:"OPENAI_API_KEY"`
	EmbeddingModel  string  `envconfig:"EMBEDDING_MODEL"`
	GenerationModel string  `envconfig:"GENERATION_MODEL"`
	Temperature     float64 `envconfig:"TEMPERATURE" default:"0.1"`

	KnowledgeFile string `envconfig:"KNOWLEDGE_FILE" default:"data/financial_qa_kb.json"`
	BackupDir     string `envconfig:"BACKUP_DIR" default:"data/backups"`

	// Cosine distance below which a curated match is accepted.
	CuratedThreshold float64 `envconfig:"CURATED_THRESHOLD" default:"0.35"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"finsight-backups"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("FINSIGHT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

// HasRetrieval reports whether the vector retrieval backend is configured.
// Without it the service still answers, using the fallback tier only.
func (c *Config) HasRetrieval() bool {
	return c.DatabaseURL != "" && c.HasOpenAI()
}
