package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/codepolish/internal/profile"
	"github.com/hrygo/codepolish/plugin/formatter"
	"github.com/hrygo/codepolish/server/metrics"
	apiv1 "github.com/hrygo/codepolish/server/router/api/v1"
	"github.com/hrygo/codepolish/server/router/frontend"
)

type Server struct {
	Profile *profile.Profile
	Engine  formatter.Engine

	echoServer *echo.Echo
}

// NewServer assembles the echo server: middleware, the format API and the browser page.
func NewServer(ctx context.Context, profile *profile.Profile) (*Server, error) {
	engine, err := formatter.New(formatter.Config{
		Engine:       profile.Engine,
		PrettierPath: profile.PrettierPath,
		Style:        formatter.FixedStyle,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create formatter engine")
	}
	return NewServerWithEngine(ctx, profile, engine)
}

// NewServerWithEngine is NewServer with a caller supplied formatter engine.
func NewServerWithEngine(ctx context.Context, profile *profile.Profile, engine formatter.Engine) (*Server, error) {
	s := &Server{
		Profile: profile,
		Engine:  engine,
	}

	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.HTTPErrorHandler = jsonErrorHandler
	echoServer.Pre(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	echoServer.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID))
			return nil
		},
	}))
	echoServer.Use(middleware.Recover())
	s.echoServer = echoServer

	frontendService := frontend.NewFrontendService(profile)
	frontendService.Serve(ctx, echoServer)

	exporter := metrics.NewPrometheusExporter(metrics.DefaultConfig())
	apiV1Service := apiv1.NewAPIV1Service(profile, engine, exporter)
	if err := apiV1Service.RegisterGateway(ctx, echoServer); err != nil {
		return nil, errors.Wrap(err, "failed to register api v1 routes")
	}

	return s, nil
}

// Handler exposes the assembled router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

// Start binds the listen address and serves in the background.
func (s *Server) Start(_ context.Context) error {
	listener, err := net.Listen("tcp", s.Profile.ListenAddr())
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", s.Profile.ListenAddr())
	}

	s.echoServer.Listener = listener
	go func() {
		if err := s.echoServer.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	slog.Info("server started", "addr", listener.Addr().String(), "engine", s.Engine.Name(), "mode", s.Profile.Mode)
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}
	slog.Info("server stopped properly")
}

// jsonErrorHandler renders framework errors (not found, body too large,
// rate limited, recovered panics) with the same body shape as the format endpoint.
func jsonErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		message = fmt.Sprint(he.Message)
		if he.Internal != nil {
			slog.Debug("http error", "code", code, "error", he.Internal)
		}
	} else {
		slog.Error("unhandled error", "path", c.Request().URL.Path, "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, apiv1.ErrorResponse{Error: message})
	}
	if err != nil {
		slog.Error("failed to write error response", "error", err)
	}
}
