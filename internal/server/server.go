package server

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/newrelic/go-agent/v3/integrations/nrecho-v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/whowhywhen/whowhywhen/internal/analytics"
	"github.com/whowhywhen/whowhywhen/internal/bots"
	"github.com/whowhywhen/whowhywhen/internal/cache"
	"github.com/whowhywhen/whowhywhen/internal/config"
	"github.com/whowhywhen/whowhywhen/internal/enrich"
	"github.com/whowhywhen/whowhywhen/internal/geo"
	"github.com/whowhywhen/whowhywhen/internal/handler"
	"github.com/whowhywhen/whowhywhen/internal/repository"
	"github.com/whowhywhen/whowhywhen/internal/response"
)

// requestValidator adapts go-playground validator to echo's Validator.
type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i any) error {
	return v.validate.Struct(i)
}

// Server holds the Echo app and the dependencies shared with the
// background loops.
type Server struct {
	Echo     *echo.Echo
	Config   *config.Config
	Enricher *enrich.Enricher
	Logs     *repository.LogRepository
	Alerts   *repository.AlertRepository
	cache    *cache.Cache
}

// New builds the Echo server, wires the enrichment pipeline and registers
// routes. queryCache and nrApp may be nil.
func New(cfg *config.Config, pool *pgxpool.Pool, queryCache *cache.Cache, nrApp *newrelic.Application, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{validate: validator.New()}
	e.Use(middleware.Recover(), middleware.Logger())
	if nrApp != nil {
		e.Use(nrecho.Middleware(nrApp))
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.CORSAllowedOrigins,
	}))

	logRepo := repository.NewLogRepository(pool)
	botRepo := repository.NewBotRepository(pool)
	alertRepo := repository.NewAlertRepository(pool)
	projectRepo := repository.NewProjectRepository(pool)

	matcher := bots.NewMatcher(botRepo)
	resolver := geo.NewResolver(cfg.Geo.Endpoint, time.Duration(cfg.Geo.TimeoutSeconds)*time.Second)
	enricher := enrich.New(logRepo, matcher, resolver, enrich.Mode(cfg.Geo.Mode),
		time.Duration(cfg.Geo.TimeoutSeconds)*time.Second, logger)
	engine := analytics.NewEngine(logRepo)

	logHandler := &handler.LogHandler{
		Enricher: enricher,
		Engine:   engine,
		Projects: projectRepo,
		Cache:    queryCache,
		Logger:   logger,
	}
	alertHandler := &handler.AlertHandler{Alerts: alertRepo, Projects: projectRepo}
	botHandler := &handler.BotHandler{Bots: botRepo, Matcher: matcher}
	projectHandler := &handler.ProjectHandler{Projects: projectRepo}

	api := e.Group("/api")

	api.POST("/projects", projectHandler.Create)
	api.GET("/projects/:project_id", projectHandler.Get)

	api.POST("/projects/:project_id/logs", logHandler.Submit)
	api.POST("/projects/:project_id/logs/bulk", logHandler.SubmitBulk)
	api.GET("/projects/:project_id/logs", logHandler.List)
	api.GET("/projects/:project_id/stats", logHandler.Stats)
	api.GET("/projects/:project_id/summary", logHandler.Summary)
	api.GET("/projects/:project_id/bots", logHandler.Bots)
	api.GET("/projects/:project_id/events", logHandler.Events)

	api.PUT("/projects/:project_id/alerts/config", alertHandler.UpsertConfig)
	api.GET("/projects/:project_id/alerts/config", alertHandler.GetConfig)
	api.GET("/users/:user_id/alerts", alertHandler.ListNotifications)

	api.POST("/bots", botHandler.CreateSignature)
	api.GET("/bots", botHandler.ListSignatures)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		if err := pool.Ping(c.Request().Context()); err != nil {
			return response.InternalError(c, "database unreachable", err.Error())
		}
		return response.OK(c, map[string]string{"status": "ok"}, "")
	})

	return &Server{
		Echo:     e,
		Config:   cfg,
		Enricher: enricher,
		Logs:     logRepo,
		Alerts:   alertRepo,
		cache:    queryCache,
	}
}

// Start starts the HTTP server. Blocks until the context is cancelled or
// the server fails; on cancel Shutdown drains in-flight work.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()
	s.Echo.Server.ReadTimeout = time.Duration(s.Config.Server.ReadTimeout) * time.Second
	s.Echo.Server.WriteTimeout = time.Duration(s.Config.Server.WriteTimeout) * time.Second
	s.Echo.Server.IdleTimeout = time.Duration(s.Config.Server.IdleTimeout) * time.Second
	return s.Echo.Start(":" + s.Config.Server.Port)
}

// Shutdown gracefully stops the server, waits for background enrichment
// and closes the cache.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.Echo.Shutdown(ctx)
	s.Enricher.Wait()
	if cerr := s.cache.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
