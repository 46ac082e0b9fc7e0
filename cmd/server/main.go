package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/annel0/bookit/internal/api"
	"github.com/annel0/bookit/internal/config"
	"github.com/annel0/bookit/internal/logging"
	"github.com/annel0/bookit/internal/observability"
	"github.com/gin-gonic/gin"
)

// version подставляется при сборке: -ldflags "-X main.version=..."
var version = "dev"

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (или BOOKIT_CONFIG)")
	flag.Parse()

	// === КОНФИГУРАЦИЯ ===
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	logging.Directory = cfg.Logging.GetDirectory()
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	level := logging.ParseLevel(cfg.Logging.GetLevel())
	logging.Default().SetLevels(level, logging.DEBUG)

	logging.Info("🎫 Запуск BookIt шлюза %s...", version)
	logging.Debug("Инициализация системы логирования завершена")

	gin.SetMode(gin.ReleaseMode)

	if cfg.Telemetry.IsEnabled() {
		shutdown, err := observability.InitTelemetry(context.Background(), observability.Options{
			ServiceName:    cfg.Server.GetServiceName(),
			ServiceVersion: version,
			Endpoint:       cfg.Telemetry.GetEndpoint(),
			Insecure:       cfg.Telemetry.Insecure,
			SampleRatio:    cfg.Telemetry.SampleRatio,
		})
		if err != nil {
			logging.Error("❌ Ошибка инициализации OpenTelemetry: %v", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logging.Warn("OpenTelemetry shutdown: %v", err)
				}
			}()
		}
	}

	logging.Info("📡 Конфигурация: addr=%s storage=%s directory=%s eventbus=%s codec=%s",
		cfg.Server.GetAddr(), cfg.Storage.GetBackend(), cfg.Directory.GetBackend(),
		cfg.EventBus.GetBackend(), cfg.Session.GetIdentityCodec())

	// === ИНИЦИАЛИЗАЦИЯ КОМПОНЕНТОВ ===
	logging.Debug("Создание шлюза...")
	gateway, err := api.NewServerIntegration(api.IntegrationConfig{Config: cfg})
	if err != nil {
		logging.Error("❌ Ошибка создания шлюза: %v", err)
		log.Fatalf("❌ Ошибка создания шлюза: %v", err)
	}

	if err := gateway.Start(); err != nil {
		logging.Error("❌ Ошибка запуска шлюза: %v", err)
		log.Fatalf("❌ Ошибка запуска шлюза: %v", err)
	}

	addr := cfg.Server.GetAddr()
	logging.Info("✅ Все сервисы запущены и готовы принимать соединения")
	logging.Info("   ❤️  Health check: http://localhost%s/health", addr)
	logging.Info("💡 Пример входа:")
	logging.Info("   curl -i -X POST http://localhost%s/api/auth/login -d 'email=admin@bookit.com&password=admin123'", addr)

	// Канал для получения сигналов ОС
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logging.Info("📡 Получен сигнал %v, завершение работы...", sig)

	// === GRACEFUL SHUTDOWN ===
	if err := gateway.Stop(); err != nil {
		logging.Error("❌ Ошибка остановки шлюза: %v", err)
	}

	logging.Info("👋 Шлюз успешно остановлен")
}
