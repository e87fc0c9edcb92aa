package web

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"brightline.video/relay/cmd/web/handlers/api/video_api"
	"brightline.video/relay/cmd/web/handlers/webhooks"
	"brightline.video/relay/internal/config"
	"brightline.video/relay/internal/db"
	"brightline.video/relay/internal/pipeline"
	"brightline.video/relay/internal/stream"
	"brightline.video/relay/internal/vector"
)

type Deps struct {
	Config     *config.Config
	DBC        *db.DatabaseConnection
	Streams    *stream.Client
	Vectors    *vector.Client
	Dispatcher *pipeline.Dispatcher
}

type Webserver struct {
	*echo.Echo
	conf       *config.Config
	dbc        *db.DatabaseConnection
	streams    *stream.Client
	vectors    *vector.Client
	dispatcher *pipeline.Dispatcher
	reconciler *pipeline.Reconciler
	retrigger  *pipeline.Retrigger
	completion *pipeline.CompletionChecker
}

func NewWebserver(ctx context.Context, deps Deps) (*Webserver, error) {
	e := echo.New()

	queries := deps.DBC.Queries(ctx)
	webserver := &Webserver{
		Echo:       e,
		conf:       deps.Config,
		dbc:        deps.DBC,
		streams:    deps.Streams,
		vectors:    deps.Vectors,
		dispatcher: deps.Dispatcher,
		reconciler: pipeline.NewReconciler(queries, deps.Streams, deps.Dispatcher),
		retrigger:  pipeline.NewRetrigger(queries, deps.Dispatcher),
		completion: pipeline.NewCompletionChecker(queries),
	}

	if deps.Config.AuthToken == "" {
		slog.Info("AUTH_TOKEN not set; API authentication is disabled")
	}
	if deps.Vectors == nil {
		slog.Info("VECTOR_API_BASE not set; transcript search is disabled")
	}

	webserver.registerRoutes()
	webserver.setupMiddleware()

	return webserver, nil
}

func (s *Webserver) setupMiddleware() {
	s.HideBanner = true
	s.HidePort = true
	s.Use(middleware.BodyLimit("2M"))
	s.Use(middleware.Recover())
	s.Use(middleware.RequestID())
	s.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
	}))
	s.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/healthz"
		},
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  false,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				fields = append(fields, "error", v.Error)
			}
			slog.Info("request", fields...)
			return nil
		},
	}))
}

// bearerAuthMiddleware guards the API group with a static bearer token.
// Webhooks are excluded; they carry their own HMAC signature.
func (s *Webserver) bearerAuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.conf.AuthToken == "" {
			return next(c)
		}
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.conf.AuthToken)) != 1 {
			return c.String(401, "unauthorized")
		}
		return next(c)
	}
}

func (s *Webserver) registerRoutes() {
	apiGroup := s.Group("/api")
	apiGroup.Use(s.bearerAuthMiddleware)

	apiGroup.POST("/videos", video_api.HandleCreate(s.dbc, s.streams, s.dispatcher))
	apiGroup.GET("/videos/index", video_api.HandleIndex(s.dbc))
	apiGroup.GET("/videos/search", video_api.HandleSearch(s.dbc, s.vectors))
	apiGroup.GET("/videos/:id", video_api.HandleShow(s.dbc, s.completion))
	apiGroup.DELETE("/videos/:id", video_api.HandleDelete(s.dbc, s.streams, s.vectors))

	apiGroup.GET("/videos/:id/processing-status", video_api.HandleProcessingStatus(s.dbc, s.completion))
	apiGroup.GET("/videos/:id/transcript", video_api.HandleTranscript(s.dbc))
	apiGroup.GET("/videos/:id/chapters", video_api.HandleChapters(s.dbc))
	apiGroup.GET("/videos/:id/tags", video_api.HandleTags(s.dbc))
	apiGroup.GET("/videos/:id/abstract/render", video_api.HandleAbstractRender(s.dbc))

	apiGroup.POST("/videos/:id/sync", video_api.HandleSync(s.reconciler))
	apiGroup.POST("/videos/:id/process", video_api.HandleProcess(s.retrigger))
	apiGroup.POST("/sync", video_api.HandleSyncAll(s.reconciler))

	// Provider webhooks sit outside the bearer-auth group.
	s.POST("/webhooks/stream", webhooks.HandleStreamWebhook(s.conf.StreamWebhookSecret, s.reconciler))

	// Health check
	s.GET("/healthz", func(c echo.Context) error {
		return c.String(200, "ok")
	})
}
