package v1

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/hrygo/codepolish/plugin/formatter"
	"github.com/hrygo/codepolish/server/metrics"
)

// Messages returned to callers. Formatter diagnostics never reach the response.
const (
	MessageNoCode       = "No code provided"
	MessageFormatFailed = "Failed to format code. Check if your syntax is correct."
)

// FormatRequest is the body of POST /format.
type FormatRequest struct {
	Code *string `json:"code"`
	// Language is untyped so that any JSON value falls back to the default parser.
	Language any `json:"language"`
}

// FormatResponse is the success body of POST /format.
type FormatResponse struct {
	Formatted string `json:"formatted"`
}

// ErrorResponse is the error body of every endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FormatService serves the formatting endpoint. It holds no per-request state.
type FormatService struct {
	Engine  formatter.Engine
	Metrics *metrics.PrometheusExporter

	formatSemaphore *semaphore.Weighted
	formatTimeout   time.Duration
}

// NewFormatService creates a format service allowing maxConcurrent formatter runs at once.
func NewFormatService(engine formatter.Engine, exporter *metrics.PrometheusExporter, maxConcurrent int, timeout time.Duration) *FormatService {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &FormatService{
		Engine:          engine,
		Metrics:         exporter,
		formatSemaphore: semaphore.NewWeighted(int64(maxConcurrent)),
		formatTimeout:   timeout,
	}
}

// Format handles POST /format.
func (s *FormatService) Format(c echo.Context) error {
	requestID := c.Response().Header().Get(echo.HeaderXRequestID)

	var request FormatRequest
	if err := c.Echo().JSONSerializer.Deserialize(c, &request); err != nil && !errors.Is(err, io.EOF) {
		slog.Error("Error formatting code: malformed request",
			slog.String("request_id", requestID),
			slog.Any("error", err))
		s.Metrics.RecordFormatRequest(string(formatter.ParserBabel), metrics.OutcomeFormatFailure)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: MessageFormatFailed})
	}

	language, _ := request.Language.(string)
	parser := formatter.ParserForLanguage(language)

	if request.Code == nil || strings.TrimSpace(*request.Code) == "" {
		s.Metrics.RecordFormatRequest(string(parser), metrics.OutcomeMissingInput)
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: MessageNoCode})
	}

	formatted, err := s.format(c.Request().Context(), *request.Code, parser)
	if err != nil {
		slog.Error("Error formatting code",
			slog.String("request_id", requestID),
			slog.String("engine", s.Engine.Name()),
			slog.String("parser", string(parser)),
			slog.Any("error", err))
		s.Metrics.RecordFormatRequest(string(parser), metrics.OutcomeFormatFailure)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: MessageFormatFailed})
	}

	s.Metrics.RecordFormatRequest(string(parser), metrics.OutcomeOK)
	return c.JSON(http.StatusOK, FormatResponse{Formatted: formatted})
}

// format runs one formatter invocation. The semaphore slot is the only
// resource held and it is released when the invocation returns.
func (s *FormatService) format(ctx context.Context, source string, parser formatter.ParserMode) (formatted string, err error) {
	if err := s.formatSemaphore.Acquire(ctx, 1); err != nil {
		return "", errors.Wrap(err, "failed to acquire formatter slot")
	}
	defer s.formatSemaphore.Release(1)

	defer func() {
		if r := recover(); r != nil {
			formatted, err = "", errors.Errorf("formatter %s panicked: %v", s.Engine.Name(), r)
		}
	}()

	done := s.Metrics.TrackInFlight()
	defer done()

	if s.formatTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.formatTimeout)
		defer cancel()
	}

	start := time.Now()
	formatted, err = s.Engine.Format(ctx, source, parser)
	s.Metrics.RecordFormatLatency(string(parser), time.Since(start))
	if err != nil {
		return "", errors.Wrapf(err, "failed to format with %s", s.Engine.Name())
	}
	return formatted, nil
}
