package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type Config struct {
	DBPath    string // SPOT_DB_PATH (default ~/.local/state/spot/spot.db)
	HTTPAddr  string // SPOT_HTTP_ADDR (default ":8787")
	NATSURL   string // SPOT_NATS_URL (optional, empty = offline)
	AuthToken string // SPOT_AUTH_TOKEN (optional, empty = auth disabled)
	Profile   string // SPOT_PROFILE (optional path to the TOML profile)

	// Backup settings
	BackupInterval   time.Duration // SPOT_BACKUP_INTERVAL (default 0 = disabled)
	BackupS3Bucket   string        // SPOT_BACKUP_S3_BUCKET (enables S3 when set)
	BackupS3Endpoint string        // SPOT_BACKUP_S3_ENDPOINT (custom endpoint for MinIO)
	BackupS3Region   string        // SPOT_BACKUP_S3_REGION (default "us-east-1")
	BackupS3Key      string        // SPOT_BACKUP_S3_KEY (default "spot/backup.jsonl")
	BackupGitRepo    string        // SPOT_BACKUP_GIT_REPO (enables git when set; path to clone)
	BackupGitFile    string        // SPOT_BACKUP_GIT_FILE (default "spot.jsonl")
	BackupGitBranch  string        // SPOT_BACKUP_GIT_BRANCH (default "main")
}

func Load() (*Config, error) {
	c := &Config{
		DBPath:           os.Getenv("SPOT_DB_PATH"),
		HTTPAddr:         envOrDefault("SPOT_HTTP_ADDR", ":8787"),
		NATSURL:          os.Getenv("SPOT_NATS_URL"),
		AuthToken:        os.Getenv("SPOT_AUTH_TOKEN"),
		Profile:          os.Getenv("SPOT_PROFILE"),
		BackupS3Bucket:   os.Getenv("SPOT_BACKUP_S3_BUCKET"),
		BackupS3Endpoint: os.Getenv("SPOT_BACKUP_S3_ENDPOINT"),
		BackupS3Region:   envOrDefault("SPOT_BACKUP_S3_REGION", "us-east-1"),
		BackupS3Key:      envOrDefault("SPOT_BACKUP_S3_KEY", "spot/backup.jsonl"),
		BackupGitRepo:    os.Getenv("SPOT_BACKUP_GIT_REPO"),
		BackupGitFile:    envOrDefault("SPOT_BACKUP_GIT_FILE", "spot.jsonl"),
		BackupGitBranch:  envOrDefault("SPOT_BACKUP_GIT_BRANCH", "main"),
	}

	if c.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		dir := filepath.Join(home, ".local", "state", "spot")
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating state directory: %w", err)
		}
		c.DBPath = filepath.Join(dir, "spot.db")
	}

	intervalStr := os.Getenv("SPOT_BACKUP_INTERVAL")
	if intervalStr != "" {
		d, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("SPOT_BACKUP_INTERVAL: %w", err)
		}
		c.BackupInterval = d
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
