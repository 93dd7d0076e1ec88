package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ErrInvalidConfig wird bei widersprüchlichen oder unvollständigen Einstellungen zurückgegeben.
var ErrInvalidConfig = errors.New("invalid config")

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBDriver   string `envconfig:"DB_DRIVER" default:"postgres"`
	DBHost     string `envconfig:"DB_HOST"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME"`
	SQLitePath string `envconfig:"SQLITE_PATH" default:"medline.db"`

	// Maximale Zeilen pro INSERT-Statement
	DBBatchSize int `envconfig:"DB_BATCH_SIZE" default:"500"`
	// Timeout pro Datenbank-Roundtrip
	DBTimeout time.Duration `envconfig:"DB_TIMEOUT" default:"30s"`

	// Name des Record-Elements im XML-Stream
	RecordTag string `envconfig:"RECORD_TAG" default:"PubmedArticle"`

	LogMode string `envconfig:"LOG_MODE" default:"production"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"4242"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	CronSchedule string `envconfig:"CRON_SCHEDULE" default:"0 3 * * *"`
	// Quelle für den inkrementellen Sync: "local" oder "s3"
	SyncSource string `envconfig:"SYNC_SOURCE" default:"local"`
	// Verzeichnis (local) oder Key-Prefix (s3) mit den Update-Dateien
	SyncLocation string `envconfig:"SYNC_LOCATION"`

	// NCBI E-utilities für "eutils:<query>"-Quellen
	PubMedBaseURL   string `envconfig:"PUBMED_BASE_URL" default:"https://eutils.ncbi.nlm.nih.gov/entrez/eutils"`
	PubMedAPIKey    string `envconfig:"PUBMED_API_KEY"`
	PubMedTool      string `envconfig:"PUBMED_TOOL" default:"medline-loader"`
	PubMedEmail     string `envconfig:"PUBMED_EMAIL"`
	PubMedBatchSize int    `envconfig:"PUBMED_BATCH_SIZE" default:"200"`

	S3URL    string `envconfig:"S3_URL"`
	S3Key    string `envconfig:"S3_KEY"`
	S3Secret string `envconfig:"S3_SECRET"`
	S3Region string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Bucket string `envconfig:"S3_BUCKET"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// S3Enabled meldet, ob Zugangsdaten für den Object Storage gesetzt sind.
func (c *Config) S3Enabled() bool {
	return c.S3Key != "" && c.S3Secret != ""
}

// Validate prüft die feldübergreifenden Anforderungen.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres":
		if c.DBHost == "" || c.DBUser == "" || c.DBName == "" {
			return fmt.Errorf("%w: DB_HOST, DB_USER and DB_NAME are required for postgres", ErrInvalidConfig)
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: SQLITE_PATH is required for sqlite", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown DB_DRIVER %q", ErrInvalidConfig, c.DBDriver)
	}
	if c.DBBatchSize <= 0 {
		return fmt.Errorf("%w: DB_BATCH_SIZE must be positive", ErrInvalidConfig)
	}
	switch c.SyncSource {
	case "local":
	case "s3":
		if !c.S3Enabled() || c.S3Bucket == "" {
			return fmt.Errorf("%w: S3_KEY, S3_SECRET and S3_BUCKET are required for s3 sync", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown SYNC_SOURCE %q", ErrInvalidConfig, c.SyncSource)
	}
	return nil
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
