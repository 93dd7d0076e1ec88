package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithSQLite(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "test.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "PubmedArticle", cfg.RecordTag)
	assert.Equal(t, 500, cfg.DBBatchSize)
	assert.Equal(t, 30*time.Second, cfg.DBTimeout)
	assert.Equal(t, "local", cfg.SyncSource)
	assert.False(t, cfg.S3Enabled())
}

func TestValidate(t *testing.T) {
	base := Config{DBDriver: "postgres", DBHost: "db", DBUser: "u", DBName: "medline", DBBatchSize: 10, SyncSource: "local"}
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing postgres host", func(c *Config) { c.DBHost = "" }},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }},
		{"zero batch", func(c *Config) { c.DBBatchSize = 0 }},
		{"s3 without credentials", func(c *Config) { c.SyncSource = "s3" }},
		{"unknown source", func(c *Config) { c.SyncSource = "ftp" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestDSN(t *testing.T) {
	c := Config{DBHost: "h", DBUser: "u", DBPassword: "p", DBName: "n", DBPort: 5433}
	assert.Equal(t, "host=h user=u password=p dbname=n port=5433 sslmode=disable", c.DSN())
}
