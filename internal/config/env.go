package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"3100"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"debug"`
	// APIKey guards the façade when set. Empty means unauthenticated,
	// matching the upstream deployment this service replaces.
	APIKey string `envconfig:"API_KEY"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".missionctl/data"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"missionctl/"`
	S3Region string `envconfig:"S3_REGION" default:"us-east-1"`
}

type NotionEnv struct {
	// Sync is disabled when the token is empty.
	NotionToken    string        `envconfig:"NOTION_TOKEN"`
	NotionTasksDB  string        `envconfig:"NOTION_TASKS_DB"`
	NotionAgentsDB string        `envconfig:"NOTION_AGENTS_DB"`
	SyncInterval   time.Duration `envconfig:"SYNC_INTERVAL" default:"2m"`
}

type CleanupEnv struct {
	CleanupInterval      time.Duration `envconfig:"CLEANUP_INTERVAL" default:"1h"`
	MetricsRetentionDays int           `envconfig:"METRICS_RETENTION_DAYS" default:"90"`
}

type VAPIDEnv struct {
	VAPIDPublicKey  string `envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `envconfig:"VAPID_PRIVATE_KEY"`
	VAPIDContact    string `envconfig:"VAPID_CONTACT" default:"mailto:ops@missionctl.dev"`
}

type Env struct {
	BaseEnv
	StorageEnv
	NotionEnv
	CleanupEnv
	VAPIDEnv
}

const namespace = "MISSIONCTL"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}

func VAPIDEnvFromEnv(env *Env) *VAPIDEnv {
	return &env.VAPIDEnv
}
