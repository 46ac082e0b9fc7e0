package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/annel0/bookit/internal/auth"
	"github.com/annel0/bookit/internal/cache"
	"github.com/annel0/bookit/internal/config"
	"github.com/annel0/bookit/internal/eventbus"
	"github.com/annel0/bookit/internal/logging"
	"github.com/annel0/bookit/internal/onboarding"
	"github.com/annel0/bookit/internal/session"
	"github.com/annel0/bookit/internal/storage"
	"github.com/annel0/bookit/internal/theme"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
)

// ServerIntegration собирает шлюз из конфигурации и управляет его жизненным циклом
type ServerIntegration struct {
	restServer *RestServer
	directory  auth.Directory
	store      *storage.FallbackStore
	bus        eventbus.EventBus
	busMetrics *eventbus.MetricsExporter
	busLogSub  eventbus.Subscription
	httpServer *http.Server
	gzip       bool
	ctx        context.Context
	cancel     context.CancelFunc
	log        *logging.Logger
}

// IntegrationConfig содержит зависимости, которые нельзя взять из файла конфигурации
type IntegrationConfig struct {
	Config   *config.Config
	Registry prometheus.Registerer // nil — дефолтный регистр
	Seeds    []auth.SeedAccount    // nil — auth.DefaultAccounts
}

// NewServerIntegration создает шлюз: каталог учётных записей, кеш клиентов,
// шину событий, сервисы и REST сервер.
func NewServerIntegration(ic IntegrationConfig) (*ServerIntegration, error) {
	cfg := ic.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seeds := ic.Seeds
	if seeds == nil {
		seeds = auth.DefaultAccounts
	}

	ctx, cancel := context.WithCancel(context.Background())
	si := &ServerIntegration{
		gzip:   cfg.Server.GzipEnabled(),
		ctx:    ctx,
		cancel: cancel,
		log:    logging.GetComponentLogger("server"),
	}

	fail := func(err error) (*ServerIntegration, error) {
		si.closeBackends()
		cancel()
		return nil, err
	}

	var err error
	if si.directory, err = openDirectory(cfg.Directory, seeds); err != nil {
		return fail(err)
	}
	if si.directory, err = withAccountCache(cfg.Directory.Cache, si.directory); err != nil {
		return fail(err)
	}

	primary, err := openStore(cfg.Storage)
	if err != nil {
		return fail(err)
	}
	si.store = storage.NewFallbackStore(primary, logging.GetStorageLogger())

	if si.bus, err = openBus(cfg.EventBus); err != nil {
		return fail(err)
	}
	si.busMetrics = eventbus.NewMetricsExporter(si.bus, ic.Registry)
	si.busMetrics.Start()
	if si.busLogSub, err = eventbus.StartLoggingListener(ctx, si.bus); err != nil {
		return fail(err)
	}

	codec, err := newCodec(cfg.Session)
	if err != nil {
		return fail(err)
	}
	cookies := session.CookieOptions{}
	if cfg.Session.SecureCookies {
		cookies = session.CookieOptions{Secure: true, HTTPOnly: true, SameSite: http.SameSiteLaxMode}
	}

	sessions, err := session.NewManager(session.Config{
		Authenticator: auth.NewAuthenticator(si.directory),
		Codec:         codec,
		Store:         si.store,
		Bus:           si.bus,
		Cookies:       cookies,
	})
	if err != nil {
		return fail(err)
	}

	si.restServer, err = NewRestServer(Config{
		Port:        cfg.Server.GetAddr(),
		ServiceName: cfg.Server.GetServiceName(),
		Sessions:    sessions,
		Onboarding:  onboarding.NewService(si.store, si.bus, cookies),
		Themes:      theme.NewService(si.store, cookies),
		Registry:    ic.Registry,
		Tracing:     cfg.Telemetry.IsEnabled(),
		CORSOrigin:  cfg.Server.GetCORSOrigin(),
		Degraded:    si.store.Degraded,
	})
	if err != nil {
		return fail(err)
	}
	return si, nil
}

func openDirectory(cfg config.DirectoryConfig, seeds []auth.SeedAccount) (auth.Directory, error) {
	switch cfg.GetBackend() {
	case config.DirectoryMaria:
		dir, err := auth.NewMariaDirectory(auth.MariaConfig{
			Host:     cfg.Maria.GetHost(),
			Port:     cfg.Maria.GetPort(),
			Database: cfg.Maria.GetDatabase(),
			Username: cfg.Maria.GetUsername(),
			Password: cfg.Maria.GetPassword(),
		}, seeds)
		if err != nil {
			return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
		}
		logging.Info("✅ MariaDB подключена успешно")
		return dir, nil
	case config.DirectoryMongo:
		dir, err := auth.NewMongoDirectory(auth.MongoConfig{
			URI:        cfg.Mongo.GetURI(),
			Database:   cfg.Mongo.GetDatabase(),
			Collection: cfg.Mongo.GetCollection(),
		}, seeds)
		if err != nil {
			return nil, fmt.Errorf("не удалось подключиться к MongoDB: %w", err)
		}
		logging.Info("✅ MongoDB подключена успешно")
		return dir, nil
	default:
		dir, err := auth.NewMemoryDirectory(seeds)
		if err != nil {
			return nil, fmt.Errorf("не удалось создать in-memory каталог: %w", err)
		}
		logging.Info("⚠️  Используется in-memory каталог учётных записей")
		return dir, nil
	}
}

// withAccountCache оборачивает каталог read-through кешем. При ошибке
// исходный каталог закрывается.
func withAccountCache(cfg config.CacheConfig, dir auth.Directory) (auth.Directory, error) {
	var repo cache.Repo
	switch cfg.GetBackend() {
	case config.CacheMemory:
		repo = cache.NewMemoryCache()
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:      cfg.Redis.GetAddr(),
			Password:  cfg.Redis.GetPassword(),
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
			MaxTTL:    cfg.GetTTL(),
		})
		if err != nil {
			_ = dir.Close()
			return nil, fmt.Errorf("кеш учётных записей: %w", err)
		}
		repo = rc
	default:
		return dir, nil
	}

	var inv cache.Invalidator
	if url := cfg.GetNATSURL(); url != "" {
		n, err := cache.NewNATSInvalidator(cache.InvalidatorConfig{NATSURL: url}, uuid.NewString())
		if err != nil {
			_ = repo.Close()
			_ = dir.Close()
			return nil, fmt.Errorf("инвалидация кеша: %w", err)
		}
		inv = n
	}

	cached, err := cache.NewDirectory(dir, repo, inv, cfg.GetTTL())
	if err != nil {
		if inv != nil {
			_ = inv.Close()
		}
		_ = repo.Close()
		_ = dir.Close()
		return nil, err
	}
	logging.Info("🗃️  Кеш учётных записей: %s (TTL %v)", cfg.GetBackend(), cfg.GetTTL())
	return cached, nil
}

func openStore(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.GetBackend() {
	case config.StorageRedis:
		return storage.NewRedisStore(&storage.RedisConfig{
			Addr:      cfg.Redis.GetAddr(),
			Password:  cfg.Redis.GetPassword(),
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
			TTL:       cfg.Redis.GetTTL(),
		})
	case config.StorageBadger:
		return storage.NewBadgerStore(filepath.Clean(cfg.GetDataPath()))
	default:
		return storage.NewMemoryStore(), nil
	}
}

func openBus(cfg config.EventBusConfig) (eventbus.EventBus, error) {
	if cfg.GetBackend() == config.BusJetStream {
		return eventbus.NewJetStreamBus(cfg.GetURL(), cfg.GetStream(), cfg.GetRetention())
	}
	return eventbus.NewMemoryBus(cfg.GetBuffer()), nil
}

func newCodec(cfg config.SessionConfig) (auth.IdentityCodec, error) {
	if cfg.GetIdentityCodec() != config.CodecSigned {
		return auth.JSONCodec{}, nil
	}
	var secret []byte
	if raw := cfg.GetSecret(); raw != "" {
		var err error
		if secret, err = auth.DecodeSecret(raw); err != nil {
			return nil, fmt.Errorf("session secret: %w", err)
		}
	} else {
		logging.Warn("⚠️  BOOKIT_SESSION_SECRET не задан: сессии не переживут перезапуск")
	}
	return auth.NewSignedCodec(secret, cfg.GetTTL())
}

// Handler возвращает корневой http.Handler (со сжатием, если включено).
func (si *ServerIntegration) Handler() http.Handler {
	if si.gzip {
		return gzhttp.GzipHandler(si.restServer.Handler())
	}
	return si.restServer.Handler()
}

// Start запускает HTTP сервер
func (si *ServerIntegration) Start() error {
	si.httpServer = &http.Server{
		Addr:              si.restServer.port,
		Handler:           si.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := si.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			si.log.Error("❌ Ошибка HTTP сервера: %v", err)
			errCh <- err
		}
	}()

	// ошибка bind приходит сразу
	select {
	case err := <-errCh:
		return err
	case <-time.After(100 * time.Millisecond):
	}

	si.log.Info("✅ BookIt шлюз запущен на http://localhost%s", si.restServer.port)
	si.log.Info("📋 Страницы: / /onboarding /login /signup /forgot-password /user-onboarding /dashboard /admin")
	si.log.Info("📋 API: /api/auth/{login,logout,me} /api/onboarding /api/theme /api/tickets /api/admin/stats /health /metrics")
	return nil
}

// Stop останавливает HTTP сервер и закрывает бэкенды
func (si *ServerIntegration) Stop() error {
	si.log.Info("🛑 Остановка шлюза...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var firstErr error
	if si.httpServer != nil {
		if err := si.httpServer.Shutdown(ctx); err != nil {
			si.log.Error("❌ Ошибка при остановке HTTP сервера: %v", err)
			firstErr = err
		}
	}

	si.closeBackends()
	si.cancel()

	si.log.Info("✅ Шлюз остановлен")
	return firstErr
}

func (si *ServerIntegration) closeBackends() {
	if si.busLogSub != nil {
		si.busLogSub.Unsubscribe()
	}
	if si.busMetrics != nil {
		si.busMetrics.Stop()
		si.busMetrics = nil
	}
	if si.bus != nil {
		if err := si.bus.Close(); err != nil {
			si.log.Warn("шина событий: %v", err)
		}
		si.bus = nil
	}
	if si.store != nil {
		if err := si.store.Close(); err != nil {
			si.log.Warn("хранилище: %v", err)
		}
		si.store = nil
	}
	if si.directory != nil {
		if err := si.directory.Close(); err != nil {
			si.log.Warn("каталог учётных записей: %v", err)
		}
		si.directory = nil
	}
}

// GetRestServer возвращает REST сервер (для дополнительной настройки)
func (si *ServerIntegration) GetRestServer() *RestServer {
	return si.restServer
}

// IsHealthy проверяет состояние интеграции
func (si *ServerIntegration) IsHealthy() bool {
	select {
	case <-si.ctx.Done():
		return false
	default:
		return true
	}
}
