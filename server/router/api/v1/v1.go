package v1

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/hrygo/codepolish/internal/profile"
	"github.com/hrygo/codepolish/plugin/formatter"
	"github.com/hrygo/codepolish/server/metrics"
)

type APIV1Service struct {
	FormatService *FormatService

	// Shared Infra
	Profile *profile.Profile
	Metrics *metrics.PrometheusExporter
}

func NewAPIV1Service(profile *profile.Profile, engine formatter.Engine, exporter *metrics.PrometheusExporter) *APIV1Service {
	return &APIV1Service{
		FormatService: NewFormatService(engine, exporter, profile.MaxConcurrent, profile.FormatTimeout),
		Profile:       profile,
		Metrics:       exporter,
	}
}

// RegisterGateway registers the format, health and metrics routes with the given Echo instance.
func (s *APIV1Service) RegisterGateway(_ context.Context, echoServer *echo.Echo) error {
	formatMiddlewares := []echo.MiddlewareFunc{
		middleware.BodyLimit(strconv.FormatInt(s.Profile.MaxBodyBytes, 10) + "B"),
	}
	if s.Profile.RateLimit > 0 {
		store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(s.Profile.RateLimit),
			Burst:     int(math.Max(1, math.Ceil(s.Profile.RateLimit))),
			ExpiresIn: 3 * time.Minute,
		})
		formatMiddlewares = append(formatMiddlewares, middleware.RateLimiter(store))
	}

	echoServer.POST("/format", s.FormatService.Format, formatMiddlewares...)
	// The bundled browser page posts to /api/format.
	echoServer.POST("/api/format", s.FormatService.Format, formatMiddlewares...)

	echoServer.GET("/healthz", s.Healthz)
	echoServer.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))
	return nil
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Engine  string `json:"engine"`
	// Conforming is false when the engine only approximates the fixed style.
	Conforming bool `json:"conforming"`
}

// Healthz reports liveness, the server version and the active formatter engine.
func (s *APIV1Service) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:     "ok",
		Version:    s.Profile.Version,
		Engine:     s.FormatService.Engine.Name(),
		Conforming: formatter.Conforms(s.FormatService.Engine),
	})
}
