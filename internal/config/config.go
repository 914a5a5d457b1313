package config

import (
	"time"

	"github.com/spf13/viper"

	pkgconfig "github.com/omar-ramo/yawm/pkg/config"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Cache      CacheConfig
	Reconciler ReconcilerConfig
	Search     SearchConfig
	Kafka      KafkaConfig
	PubSub     PubSubConfig `mapstructure:"pubsub"`
	Storage    StorageConfig
	Auth       AuthConfig
	Log        LogConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	FilePath        string `mapstructure:"file_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
}

// RedisConfig is shared by the feed cache, the counter store and the redis pub/sub driver.
// An empty address disables all three.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type ReconcilerConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
}

type SearchConfig struct {
	Backend      string   `mapstructure:"backend"` // sql, elasticsearch
	Addresses    []string `mapstructure:"addresses"`
	Username     string   `mapstructure:"username"`
	Password     string   `mapstructure:"password"`
	DiaryIndex   string   `mapstructure:"diary_index"`
	ProfileIndex string   `mapstructure:"profile_index"`
}

// KafkaConfig configures the CDC consumer that keeps the search index in sync.
type KafkaConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Brokers      string `mapstructure:"brokers"`
	DiaryTopic   string `mapstructure:"diary_topic"`
	ProfileTopic string `mapstructure:"profile_topic"`
	GroupID      string `mapstructure:"group_id"`
}

type PubSubConfig struct {
	Driver       string `mapstructure:"driver"` // none, redis, kafka
	Topic        string `mapstructure:"topic"`
	KafkaBrokers string `mapstructure:"kafka_brokers"`
}

type StorageConfig struct {
	Driver    string `mapstructure:"driver"` // local, s3
	BasePath  string `mapstructure:"base_path"`
	PublicURL string `mapstructure:"public_url"`
	S3        S3Config
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
	PublicURL       string `mapstructure:"public_url"` // empty: derived from endpoint and bucket
}

type AuthConfig struct {
	PublicKeyPath string `mapstructure:"public_key_path"`
	PublicKeyPEM  string `mapstructure:"public_key_pem"`
	Issuer        string `mapstructure:"issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Load reads the configuration and returns the viper instance so callers can watch it.
func Load() (*Config, *viper.Viper, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, nil, err
	}

	setDefaults(v)
	bindEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, err
	}

	return &cfg, v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_upload_bytes", 5<<20)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "yawm")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.file_path", "./data/yawm.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "30s")
	v.SetDefault("reconciler.interval", "60s")
	v.SetDefault("reconciler.batch_size", 200)
	v.SetDefault("search.backend", "sql")
	v.SetDefault("search.addresses", []string{"http://localhost:9200"})
	v.SetDefault("search.diary_index", "diaries")
	v.SetDefault("search.profile_index", "profiles")
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.diary_topic", "yawm.public.diaries")
	v.SetDefault("kafka.profile_topic", "yawm.public.profiles")
	v.SetDefault("kafka.group_id", "yawm-search-indexer")
	v.SetDefault("pubsub.driver", "none")
	v.SetDefault("pubsub.topic", "notifications")
	v.SetDefault("pubsub.kafka_brokers", "localhost:9092")
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.base_path", "./data/media")
	v.SetDefault("storage.public_url", "/media")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

func bindEnv(v *viper.Viper) {
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.shutdown_timeout", "SHUTDOWN_TIMEOUT")
	v.BindEnv("server.max_upload_bytes", "MAX_UPLOAD_BYTES")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("database.sslmode", "DB_SSLMODE")
	v.BindEnv("database.file_path", "DB_FILE_PATH")
	v.BindEnv("database.max_idle_conns", "DB_MAX_IDLE_CONNS")
	v.BindEnv("database.max_open_conns", "DB_MAX_OPEN_CONNS")
	v.BindEnv("database.conn_max_lifetime", "DB_CONN_MAX_LIFETIME")
	v.BindEnv("database.log_level", "DB_LOG_LEVEL")
	v.BindEnv("database.auto_migrate", "DB_AUTO_MIGRATE")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")
	v.BindEnv("cache.enabled", "CACHE_ENABLED")
	v.BindEnv("cache.ttl", "CACHE_TTL")
	v.BindEnv("reconciler.interval", "RECONCILER_INTERVAL")
	v.BindEnv("reconciler.batch_size", "RECONCILER_BATCH_SIZE")
	v.BindEnv("search.backend", "SEARCH_BACKEND")
	v.BindEnv("search.addresses", "ELASTICSEARCH_ADDRESSES")
	v.BindEnv("search.username", "ELASTICSEARCH_USERNAME")
	v.BindEnv("search.password", "ELASTICSEARCH_PASSWORD")
	v.BindEnv("search.diary_index", "SEARCH_DIARY_INDEX")
	v.BindEnv("search.profile_index", "SEARCH_PROFILE_INDEX")
	v.BindEnv("kafka.enabled", "KAFKA_ENABLED")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.diary_topic", "KAFKA_DIARY_TOPIC")
	v.BindEnv("kafka.profile_topic", "KAFKA_PROFILE_TOPIC")
	v.BindEnv("kafka.group_id", "KAFKA_GROUP_ID")
	v.BindEnv("pubsub.driver", "PUBSUB_DRIVER")
	v.BindEnv("pubsub.topic", "PUBSUB_TOPIC")
	v.BindEnv("pubsub.kafka_brokers", "PUBSUB_KAFKA_BROKERS")
	v.BindEnv("storage.driver", "STORAGE_DRIVER")
	v.BindEnv("storage.base_path", "STORAGE_BASE_PATH")
	v.BindEnv("storage.public_url", "STORAGE_PUBLIC_URL")
	v.BindEnv("storage.s3.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.s3.region", "S3_REGION")
	v.BindEnv("storage.s3.bucket", "S3_BUCKET")
	v.BindEnv("storage.s3.access_key_id", "S3_ACCESS_KEY_ID")
	v.BindEnv("storage.s3.secret_access_key", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("storage.s3.use_path_style", "S3_USE_PATH_STYLE")
	v.BindEnv("storage.s3.public_url", "S3_PUBLIC_URL")
	v.BindEnv("auth.public_key_path", "JWT_PUBLIC_KEY_PATH")
	v.BindEnv("auth.public_key_pem", "JWT_PUBLIC_KEY")
	v.BindEnv("auth.issuer", "JWT_ISSUER")
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.pretty", "LOG_PRETTY")
}
