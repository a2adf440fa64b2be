package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration parameters, read from environment variables.
type Config struct {
	// DBPath is the sqlite database file. Created on first start.
	DBPath string `envconfig:"DB_PATH" default:"papers.db"`

	// UploadDir is the flat directory attachments are stored in.
	UploadDir string `envconfig:"UPLOAD_DIR" default:"uploads"`

	HTTPPort string `envconfig:"HTTP_PORT" default:"4242"`

	// CronSchedule drives the periodic orphan attachment scan.
	CronSchedule string `envconfig:"CRON_SCHEDULE" default:"0 3 * * *"`
}

// Load reads the configuration from the environment, honoring a .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
