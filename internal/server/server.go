package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"notes-api/internal/api/http/handlers"
	"notes-api/internal/api/http/middleware"
	"notes-api/internal/api/http/response"
	"notes-api/internal/config"
	"notes-api/internal/ratelimit"
	svc "notes-api/internal/service"
	"notes-api/internal/service/notes"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
)

// Deps зависимости, собранные в main до старта сервера
type Deps struct {
	NoteService svc.NoteService
	Events      *notes.EventService
	// Limiter nil отключает admission control
	Limiter ratelimit.Limiter
	KeyFn   ratelimit.KeyFunc
	Stats   ratelimit.StatsStore
	// Health проверка зависимостей для /healthz
	Health func(ctx context.Context) error
}

// Server HTTP front door: CORS, admission control и JSON API
type Server struct {
	HTTPServer *http.Server
	Listener   net.Listener

	// Контекст сервера: отменяется при shutdown, чтобы закрыть SSE потоки
	Ctx    context.Context
	Cancel context.CancelFunc

	Config *config.Config
}

// NewServer создает сервер и занимает порт. Вызывать только после готовности БД.
func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	addr := "0.0.0.0:" + strconv.Itoa(cfg.Server.Port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	serverCtx, serverCancel := context.WithCancel(context.Background())

	httpServer := &http.Server{
		Handler:           NewHandler(cfg, deps),
		ReadTimeout:       seconds(cfg.Server.HTTPReadTimeout),
		WriteTimeout:      seconds(cfg.Server.HTTPWriteTimeout),
		IdleTimeout:       seconds(cfg.Server.HTTPIdleTimeout),
		ReadHeaderTimeout: seconds(cfg.Server.HTTPReadHeaderTimeout),
		BaseContext:       func(net.Listener) context.Context { return serverCtx },
	}

	return &Server{
		HTTPServer: httpServer,
		Listener:   listener,
		Ctx:        serverCtx,
		Cancel:     serverCancel,
		Config:     cfg,
	}, nil
}

// Addr фактический адрес listener
func (s *Server) Addr() string {
	return s.Listener.Addr().String()
}

// Start запускает обслуживание запросов в горутине и возвращает канал ошибок
func (s *Server) Start() <-chan error {
	errChan := make(chan error, 1)

	go func() {
		log.Infof("HTTP server listening on %s", s.Addr())
		if err := s.HTTPServer.Serve(s.Listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	return errChan
}

// Shutdown выполняет graceful shutdown сервера
func (s *Server) Shutdown() error {
	log.Info("Starting graceful shutdown...")

	// Сначала закрываем SSE потоки, иначе Shutdown будет ждать их до таймаута
	s.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), seconds(s.Config.Server.GracefulShutdownTimeout))
	defer cancel()

	if err := s.HTTPServer.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("Graceful shutdown timeout, forcing stop...")
		_ = s.HTTPServer.Close()
		return err
	}

	log.Info("HTTP server stopped gracefully")
	return nil
}

// NewHandler собирает цепочку: Logging -> CORS -> Admission -> gin.
// CORS стоит до admission, чтобы заголовки были и на отказах 429/503,
// а preflight обрабатывался до списания бюджета.
func NewHandler(cfg *config.Config, deps Deps) http.Handler {
	engine := newEngine(cfg, deps)

	var handler http.Handler = engine
	handler = middleware.Admission(middleware.AdmissionOptions{
		Limiter:               deps.Limiter,
		KeyFn:                 deps.KeyFn,
		FailOpen:              cfg.RateLimit.FailOpen,
		UnavailableRetryAfter: cfg.RateLimit.Window(),
		Stats:                 deps.Stats,
	})(handler)
	handler = cors.New(CORSOptions(cfg.CORS)).Handler(handler)
	handler = middleware.Logging(handler)

	return handler
}

func newEngine(cfg *config.Config, deps Deps) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.WithField("panic", recovered).Error("handler panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error{
			Code:    response.CodeInternal,
			Message: "Internal server error",
		})
	}))

	engine.GET("/healthz", func(c *gin.Context) {
		if deps.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Health(ctx); err != nil {
				log.WithError(err).Warn("health check failed")
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.NewNotesHandler(deps.NoteService, deps.Events).Register(engine.Group(cfg.Server.APIPrefix))

	engine.NoRoute(fallback(cfg.Static.Dir, cfg.Server.APIPrefix))
	return engine
}

// fallback отвечает на OPTIONS без preflight-заголовков, раздает собранный фронтенд
// (SPA: неизвестный путь -> index.html) и возвращает JSON 404 для API
func fallback(staticDir, apiPrefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		r := c.Request
		if r.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		isRead := r.Method == http.MethodGet || r.Method == http.MethodHead
		if staticDir != "" && isRead && !strings.HasPrefix(r.URL.Path, apiPrefix) {
			file := filepath.Join(staticDir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
			if fi, err := os.Stat(file); err == nil && !fi.IsDir() {
				c.File(file)
				return
			}
			c.File(filepath.Join(staticDir, "index.html"))
			return
		}

		c.JSON(http.StatusNotFound, response.Error{
			Code:    response.CodeRouteNotFound,
			Message: "Route not found",
		})
	}
}

// CORSOptions разрешает cross-origin политику один раз при старте.
// В production без явного списка origin разрешены все, но без credentials.
func CORSOptions(cfg *config.ConfigCORS) cors.Options {
	var origins []string
	for _, o := range strings.Split(cfg.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodDelete, http.MethodOptions, http.MethodPatch,
		},
		AllowedHeaders: []string{
			"Content-Type",
			"Authorization",
			"X-Requested-With",
			"X-Api-Key",
		},
		ExposedHeaders: []string{
			"Retry-After",
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
		},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}

	if cfg.Mode == config.ModeProduction && len(origins) == 0 {
		opts.AllowedOrigins = []string{"*"}
		opts.AllowCredentials = false
	}
	return opts
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
