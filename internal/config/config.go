package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации шлюза.
// Любое незаданное поле берётся из переменной окружения или значения по умолчанию.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Session   SessionConfig   `yaml:"session"`
	Storage   StorageConfig   `yaml:"storage"`
	Directory DirectoryConfig `yaml:"directory"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	ServiceName string `yaml:"service_name"`
	CORSOrigin  string `yaml:"cors_origin"`
	Gzip        *bool  `yaml:"gzip"`
}

// GetPort возвращает HTTP порт с поддержкой fallback значений
func (s *ServerConfig) GetPort() int {
	return getPortWithEnvFallback(s.Port, "BOOKIT_PORT", 8080)
}

// GetAddr возвращает адрес для http.Server.
func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf(":%d", s.GetPort())
}

func (s *ServerConfig) GetServiceName() string {
	return getStringWithEnvFallback(s.ServiceName, "BOOKIT_SERVICE_NAME", "bookit")
}

func (s *ServerConfig) GetCORSOrigin() string {
	return getStringWithEnvFallback(s.CORSOrigin, "BOOKIT_CORS_ORIGIN", "")
}

// GzipEnabled — сжатие ответов включено по умолчанию.
func (s *ServerConfig) GzipEnabled() bool {
	return s.Gzip == nil || *s.Gzip
}

// Кодеки cookie личности
const (
	CodecJSON   = "json"
	CodecSigned = "signed"
)

type SessionConfig struct {
	IdentityCodec string `yaml:"identity_codec"` // json | signed
	Secret        string `yaml:"secret"`         // base64, для signed
	TTLHours      int    `yaml:"ttl_hours"`
	SecureCookies bool   `yaml:"secure_cookies"`
}

func (s *SessionConfig) GetIdentityCodec() string {
	return getStringWithEnvFallback(s.IdentityCodec, "BOOKIT_IDENTITY_CODEC", CodecJSON)
}

func (s *SessionConfig) GetSecret() string {
	return getStringWithEnvFallback(s.Secret, "BOOKIT_SESSION_SECRET", "")
}

func (s *SessionConfig) GetTTL() time.Duration {
	return time.Duration(getIntWithEnvFallback(s.TTLHours, "BOOKIT_SESSION_TTL_HOURS", 24)) * time.Hour
}

// Бэкенды хранилища клиентского кеша
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageBadger = "badger"
)

type StorageConfig struct {
	Backend  string      `yaml:"backend"`
	DataPath string      `yaml:"data_path"`
	Redis    RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
	TTLHours  int    `yaml:"ttl_hours"`
}

func (s *StorageConfig) GetBackend() string {
	return getStringWithEnvFallback(s.Backend, "BOOKIT_STORAGE", StorageMemory)
}

func (s *StorageConfig) GetDataPath() string {
	return getStringWithEnvFallback(s.DataPath, "BOOKIT_DATA_PATH", "data")
}

func (r *RedisConfig) GetAddr() string {
	return getStringWithEnvFallback(r.Addr, "BOOKIT_REDIS_ADDR", "localhost:6379")
}

func (r *RedisConfig) GetPassword() string {
	return getStringWithEnvFallback(r.Password, "BOOKIT_REDIS_PASSWORD", "")
}

func (r *RedisConfig) GetTTL() time.Duration {
	return time.Duration(getIntWithEnvFallback(r.TTLHours, "BOOKIT_REDIS_TTL_HOURS", 365*24)) * time.Hour
}

// Бэкенды каталога учётных записей
const (
	DirectoryMemory = "memory"
	DirectoryMaria  = "mariadb"
	DirectoryMongo  = "mongo"
)

type DirectoryConfig struct {
	Backend string      `yaml:"backend"`
	Maria   MariaConfig `yaml:"mariadb"`
	Mongo   MongoConfig `yaml:"mongo"`
	Cache   CacheConfig `yaml:"cache"`
}

type MariaConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// Кеш учётных записей перед MariaDB/MongoDB
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type CacheConfig struct {
	Backend    string      `yaml:"backend"`
	TTLSeconds int         `yaml:"ttl_seconds"`
	Redis      RedisConfig `yaml:"redis"`
	// NATSURL включает рассылку инвалидаций между инстансами.
	NATSURL string `yaml:"nats_url"`
}

func (c *CacheConfig) GetBackend() string {
	return getStringWithEnvFallback(c.Backend, "BOOKIT_DIRECTORY_CACHE", CacheNone)
}

func (c *CacheConfig) GetTTL() time.Duration {
	return time.Duration(getIntWithEnvFallback(c.TTLSeconds, "BOOKIT_DIRECTORY_CACHE_TTL", 60)) * time.Second
}

func (c *CacheConfig) GetNATSURL() string {
	return getStringWithEnvFallback(c.NATSURL, "BOOKIT_DIRECTORY_CACHE_NATS", "")
}

func (d *DirectoryConfig) GetBackend() string {
	return getStringWithEnvFallback(d.Backend, "BOOKIT_DIRECTORY", DirectoryMemory)
}

func (m *MariaConfig) GetHost() string {
	return getStringWithEnvFallback(m.Host, "BOOKIT_DB_HOST", "localhost")
}

func (m *MariaConfig) GetPort() int {
	return getPortWithEnvFallback(m.Port, "BOOKIT_DB_PORT", 3306)
}

func (m *MariaConfig) GetDatabase() string {
	return getStringWithEnvFallback(m.Database, "BOOKIT_DB_NAME", "bookit")
}

func (m *MariaConfig) GetUsername() string {
	return getStringWithEnvFallback(m.Username, "BOOKIT_DB_USER", "bookit")
}

func (m *MariaConfig) GetPassword() string {
	return getStringWithEnvFallback(m.Password, "BOOKIT_DB_PASSWORD", "")
}

func (m *MongoConfig) GetURI() string {
	return getStringWithEnvFallback(m.URI, "BOOKIT_MONGO_URI", "mongodb://localhost:27017")
}

func (m *MongoConfig) GetDatabase() string {
	return getStringWithEnvFallback(m.Database, "BOOKIT_MONGO_DB", "bookit")
}

func (m *MongoConfig) GetCollection() string {
	return getStringWithEnvFallback(m.Collection, "BOOKIT_MONGO_COLLECTION", "accounts")
}

// Бэкенды шины событий
const (
	BusMemory    = "memory"
	BusJetStream = "jetstream"
)

type EventBusConfig struct {
	Backend   string `yaml:"backend"`
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Buffer    int    `yaml:"buffer"`
}

func (e *EventBusConfig) GetBackend() string {
	return getStringWithEnvFallback(e.Backend, "BOOKIT_EVENTBUS", BusMemory)
}

func (e *EventBusConfig) GetURL() string {
	return getStringWithEnvFallback(e.URL, "BOOKIT_NATS_URL", "nats://127.0.0.1:4222")
}

func (e *EventBusConfig) GetStream() string {
	return getStringWithEnvFallback(e.Stream, "BOOKIT_NATS_STREAM", "BOOKIT")
}

func (e *EventBusConfig) GetRetention() time.Duration {
	return time.Duration(getIntWithEnvFallback(e.Retention, "BOOKIT_NATS_RETENTION_HOURS", 72)) * time.Hour
}

func (e *EventBusConfig) GetBuffer() int {
	return getIntWithEnvFallback(e.Buffer, "BOOKIT_EVENTBUS_BUFFER", 1024)
}

type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// IsEnabled — трассировка включается конфигом или BOOKIT_OTEL=1.
func (t *TelemetryConfig) IsEnabled() bool {
	if t.Enabled {
		return true
	}
	v, _ := strconv.ParseBool(os.Getenv("BOOKIT_OTEL"))
	return v
}

func (t *TelemetryConfig) GetEndpoint() string {
	return getStringWithEnvFallback(t.Endpoint, "BOOKIT_OTEL_ENDPOINT", "")
}

type LoggingConfig struct {
	Level     string `yaml:"level"`
	Directory string `yaml:"directory"`
}

func (l *LoggingConfig) GetLevel() string {
	return getStringWithEnvFallback(l.Level, "BOOKIT_LOG_LEVEL", "INFO")
}

func (l *LoggingConfig) GetDirectory() string {
	return getStringWithEnvFallback(l.Directory, "BOOKIT_LOG_DIR", "logs")
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	return getIntWithEnvFallback(configPort, envVar, defaultPort)
}

// getIntWithEnvFallback возвращает положительное число: config -> env -> default
func getIntWithEnvFallback(configVal int, envVar string, defaultVal int) int {
	if configVal > 0 {
		return configVal
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		if v, err := strconv.Atoi(envVal); err == nil && v > 0 {
			return v
		}
	}
	return defaultVal
}

// getStringWithEnvFallback возвращает строку: config -> env -> default
func getStringWithEnvFallback(configVal, envVar, defaultVal string) string {
	if configVal != "" {
		return configVal
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return defaultVal
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать путь из ENV BOOKIT_CONFIG; если и он
// пуст, возвращает пустой Config — все значения возьмутся из env и дефолтов.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("BOOKIT_CONFIG")
		if path == "" {
			return &Config{}, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет перечислимые значения.
func (c *Config) Validate() error {
	check := func(field, val string, allowed ...string) error {
		for _, a := range allowed {
			if val == a {
				return nil
			}
		}
		return fmt.Errorf("config: %s=%q, expected one of %v", field, val, allowed)
	}
	if err := check("session.identity_codec", c.Session.GetIdentityCodec(), CodecJSON, CodecSigned); err != nil {
		return err
	}
	if err := check("storage.backend", c.Storage.GetBackend(), StorageMemory, StorageRedis, StorageBadger); err != nil {
		return err
	}
	if err := check("directory.backend", c.Directory.GetBackend(), DirectoryMemory, DirectoryMaria, DirectoryMongo); err != nil {
		return err
	}
	if err := check("directory.cache.backend", c.Directory.Cache.GetBackend(), CacheNone, CacheMemory, CacheRedis); err != nil {
		return err
	}
	return check("eventbus.backend", c.EventBus.GetBackend(), BusMemory, BusJetStream)
}
