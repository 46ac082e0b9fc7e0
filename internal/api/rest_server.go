package api

import (
	"errors"
	"net/http"

	"github.com/annel0/bookit/internal/logging"
	"github.com/annel0/bookit/internal/middleware"
	"github.com/annel0/bookit/internal/onboarding"
	"github.com/annel0/bookit/internal/routing"
	"github.com/annel0/bookit/internal/session"
	"github.com/annel0/bookit/internal/theme"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RestServer представляет HTTP-шлюз BookIt: страницы под охраной политики
// доступа и JSON API сессии, онбординга и темы.
type RestServer struct {
	router     *gin.Engine
	port       string
	sessions   *session.Manager
	onboarding *onboarding.Service
	themes     *theme.Service
	matcher    *routing.Matcher
	metrics    *ServerMetrics
	decisions  *prometheus.CounterVec
	log        *logging.Logger
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port        string                // адрес для запуска сервера
	ServiceName string                // префикс метрик и имя otel-сервиса
	Sessions    *session.Manager      // менеджер сессий
	Onboarding  *onboarding.Service   // мастер онбординга
	Themes      *theme.Service        // тема оформления
	Matcher     *routing.Matcher      // пути под охраной; nil — routing.DefaultMatcher()
	Registry    prometheus.Registerer // nil — дефолтный регистр
	Tracing     bool                  // включить otelgin
	CORSOrigin  string                // пусто — без CORS-заголовков
	Degraded    func() int64          // счётчик деградации хранилища для /health
	Logger      *logging.Logger
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) (*RestServer, error) {
	if config.Sessions == nil || config.Onboarding == nil || config.Themes == nil {
		return nil, errors.New("api: sessions, onboarding and themes are required")
	}
	if config.Port == "" {
		config.Port = ":8080"
	}
	if config.ServiceName == "" {
		config.ServiceName = "bookit"
	}
	if config.Matcher == nil {
		config.Matcher = routing.DefaultMatcher()
	}
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}
	if config.Logger == nil {
		config.Logger = logging.GetHTTPLogger()
	}

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	if config.Tracing {
		router.Use(otelgin.Middleware(config.ServiceName))
	}
	router.Use(middleware.NewRequestLogger(config.Logger).Handler())

	promMw := middleware.NewPrometheusMiddleware(config.ServiceName, config.Registry)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.ServiceName,
		Name:      "access_decisions_total",
		Help:      "Решения политики доступа по классу маршрута.",
	}, []string{"class", "action"})
	config.Registry.MustRegister(decisions)

	server := &RestServer{
		router:     router,
		port:       config.Port,
		sessions:   config.Sessions,
		onboarding: config.Onboarding,
		themes:     config.Themes,
		matcher:    config.Matcher,
		metrics:    NewServerMetrics(config.Degraded),
		decisions:  decisions,
		log:        config.Logger,
	}

	server.setupRoutes(config.CORSOrigin)
	return server, nil
}

// Handler возвращает http.Handler сервера.
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// setupRoutes настраивает маршруты
func (rs *RestServer) setupRoutes(corsOrigin string) {
	if corsOrigin != "" {
		rs.router.Use(corsMiddleware(corsOrigin))
	}
	rs.router.Use(middleware.ClientID(rs.sessions.Cookies()))

	// Страницы: политика доступа решает до обработчика.
	pages := rs.router.Group("/", rs.guardMiddleware())
	{
		pages.GET(routing.RootPath, rs.handlePage)
		pages.GET(routing.OnboardingPath, rs.handlePage)
		pages.GET(routing.LoginPath, rs.handlePage)
		pages.GET(routing.SignupPath, rs.handlePage)
		pages.GET(routing.ForgotPasswordPath, rs.handlePage)
		pages.GET(routing.UserOnboardingPath, rs.handlePage)
		pages.GET(routing.DashboardPath, rs.handlePage)
		pages.GET(routing.DashboardPath+"/*path", rs.handlePage)
		pages.GET(routing.AdminPrefix, rs.handlePage)
		pages.GET(routing.AdminPrefix+"/*path", rs.handlePage)
	}

	api := rs.router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/login", rs.handleLogin)
		auth.POST("/logout", rs.handleLogout)
		auth.GET("/me", rs.requireIdentity(), rs.handleMe)
	}

	wizard := api.Group("/onboarding", rs.requireIdentity(), rs.wizardOpen())
	{
		wizard.GET("", rs.handleWizardState)
		wizard.POST("/toggle", rs.handleWizardToggle)
		wizard.POST("/next", rs.handleWizardNext)
		wizard.POST("/back", rs.handleWizardBack)
		wizard.POST("/complete", rs.handleWizardComplete)
	}

	api.GET("/theme", rs.handleGetTheme)
	api.POST("/theme", rs.handleSetTheme)

	api.GET("/tickets", rs.requireIdentity(), rs.handleTickets)

	admin := api.Group("/admin", rs.requireIdentity(), rs.adminMiddleware())
	{
		admin.GET("/stats", rs.handleAdminStats)
	}

	rs.router.GET("/health", rs.handleHealth)

	rs.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, GenericResponse{Success: false, Message: "Not found"})
	})
}

func corsMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// handleHealth — проверка живости
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "ok",
		Data: gin.H{
			"uptime":   rs.metrics.GetUptime(),
			"degraded": rs.metrics.Degraded(),
		},
	})
}
