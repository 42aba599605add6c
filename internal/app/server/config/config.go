package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPath  = ".env"
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

const (
	defaultRunAddress      = ":8080"
	defaultMigrations      = "migrations"
	defaultMaxBatch        = 500
	defaultImageMaxBytes   = 10 << 20
	defaultImageURLTTL     = 24 * time.Hour
	defaultUploadURLTTL    = time.Hour
	defaultBlobRegion      = "auto"
	defaultBlobBucket      = "notesync-images"
	defaultShutdownTimeout = 10 * time.Second
)

type Config struct {
	Env    string
	DB     DB
	Server Server
	Logger Logger
	Sync   Sync
	Images Images
	Blob   Blob
}

type DB struct {
	DatabaseURI string `env:"DATABASE_URI"`
	Migrations  string `env:"MIGRATIONS_PATH"`
}

type Server struct {
	RunAddress      string        `env:"RUN_ADDRESS"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

type Logger struct {
	// пусто - уровень по окружению
	LogLevel string `env:"LOG_LEVEL"`
}

type Sync struct {
	MaxBatch int `env:"SYNC_MAX_BATCH"`
}

type Images struct {
	MaxBytes     int64         `env:"IMAGE_MAX_BYTES"`
	URLTTL       time.Duration `env:"IMAGE_URL_TTL"`
	UploadURLTTL time.Duration `env:"IMAGE_UPLOAD_URL_TTL"`
}

// Blob параметры S3-совместимого хранилища (Cloudflare R2, MinIO)
type Blob struct {
	Endpoint  string `env:"BLOB_ENDPOINT"`
	Region    string `env:"BLOB_REGION"`
	Bucket    string `env:"BLOB_BUCKET"`
	AccessKey string `env:"BLOB_ACCESS_KEY"`
	SecretKey string `env:"BLOB_SECRET_KEY"`
	UseSSL    bool   `env:"BLOB_USE_SSL"`
}

// MustLoad читает .env (если есть) и переменные окружения
func MustLoad() *Config {
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			log.Printf("failed to load %s: %v", envPath, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", EnvLocal)
	v.SetDefault("run_address", defaultRunAddress)
	v.SetDefault("migrations_path", defaultMigrations)
	v.SetDefault("shutdown_timeout", defaultShutdownTimeout)
	v.SetDefault("sync_max_batch", defaultMaxBatch)
	v.SetDefault("image_max_bytes", defaultImageMaxBytes)
	v.SetDefault("image_url_ttl", defaultImageURLTTL)
	v.SetDefault("image_upload_url_ttl", defaultUploadURLTTL)
	v.SetDefault("blob_region", defaultBlobRegion)
	v.SetDefault("blob_bucket", defaultBlobBucket)
	v.SetDefault("blob_use_ssl", true)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Env: v.GetString("app_env"),
		DB: DB{
			DatabaseURI: v.GetString("database_uri"),
			Migrations:  v.GetString("migrations_path"),
		},
		Server: Server{
			RunAddress:      v.GetString("run_address"),
			ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		},
		Logger: Logger{LogLevel: v.GetString("log_level")},
		Sync:   Sync{MaxBatch: v.GetInt("sync_max_batch")},
		Images: Images{
			MaxBytes:     v.GetInt64("image_max_bytes"),
			URLTTL:       v.GetDuration("image_url_ttl"),
			UploadURLTTL: v.GetDuration("image_upload_url_ttl"),
		},
		Blob: Blob{
			Endpoint:  v.GetString("blob_endpoint"),
			Region:    v.GetString("blob_region"),
			Bucket:    v.GetString("blob_bucket"),
			AccessKey: v.GetString("blob_access_key"),
			SecretKey: v.GetString("blob_secret_key"),
			UseSSL:    v.GetBool("blob_use_ssl"),
		},
	}
}

// ExposeDetails сообщает, можно ли отдавать клиенту текст внутренних ошибок
func (c *Config) ExposeDetails() bool {
	return c.Env == EnvLocal || c.Env == EnvDev
}
