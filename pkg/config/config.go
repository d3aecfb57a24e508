package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Repository RepositoryConfig
	Database   DatabaseConfig
	Embedding  EmbeddingConfig
	Vector     VectorConfig
	Templates  TemplateConfig
	Logger     LoggerConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RepositoryConfig selects the catalog persistence driver: "csv" or
// "postgres".
type RepositoryConfig struct {
	Driver  string
	CSVPath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type EmbeddingConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// VectorConfig carries the vector index settings. MaxDistance is the largest
// distance a neighbor may have to still count as a match.
type VectorConfig struct {
	Dimension   int
	IndexPath   string
	TopK        int
	MaxDistance float64
}

type TemplateConfig struct {
	CatalogPath     string
	RequirementPath string
}

type LoggerConfig struct {
	Level string
}

func Load() (*Config, error) {
	// The .env file is optional; plain environment variables work for
	// Docker/K8s deployments.
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	embeddingTimeout, _ := strconv.Atoi(getEnv("EMBEDDING_TIMEOUT", "30"))
	dimension, _ := strconv.Atoi(getEnv("VECTOR_DIMENSION", "1536"))
	topK, _ := strconv.Atoi(getEnv("VECTOR_TOP_K", "3"))
	maxDistance, _ := strconv.ParseFloat(getEnv("VECTOR_MAX_DISTANCE", "1.0"), 64)

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		Repository: RepositoryConfig{
			Driver:  getEnv("REPOSITORY_DRIVER", "csv"),
			CSVPath: getEnv("REPOSITORY_FILE_PATH", "data/catalog/catalog.csv"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "supplymatch"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Embedding: EmbeddingConfig{
			BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			Model:   getEnv("OPENAI_MODEL", "text-embedding-3-small"),
			Timeout: time.Duration(embeddingTimeout) * time.Second,
		},
		Vector: VectorConfig{
			Dimension:   dimension,
			IndexPath:   getEnv("VECTOR_FILE_PATH", "data/vectors/catalog.index"),
			TopK:        topK,
			MaxDistance: maxDistance,
		},
		Templates: TemplateConfig{
			CatalogPath:     getEnv("TEMPLATE_CATALOG", "data/templates/catalog_template.csv"),
			RequirementPath: getEnv("TEMPLATE_REQUIREMENT", "data/templates/requirements_template.csv"),
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
