package frontend

import (
	"context"
	"io/fs"
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/codepolish/internal/profile"
	"github.com/hrygo/codepolish/internal/util"
)

// apiPrefixes are routes owned by the API service.
var apiPrefixes = []string{"/api", "/format", "/healthz", "/metrics"}

type FrontendService struct {
	Profile *profile.Profile
}

func NewFrontendService(profile *profile.Profile) *FrontendService {
	return &FrontendService{
		Profile: profile,
	}
}

func (*FrontendService) Serve(_ context.Context, e *echo.Echo) {
	// Compress static assets only, format responses stay as written by the handler.
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return util.HasPrefixes(c.Request().URL.Path, apiPrefixes...)
		},
	}))

	skipper := func(c echo.Context) bool {
		if util.HasPrefixes(c.Request().URL.Path, apiPrefixes...) {
			return true
		}

		// Security: Prevent MIME type sniffing
		c.Response().Header().Set("X-Content-Type-Options", "nosniff")

		ext := filepath.Ext(c.Request().URL.Path)
		if ext == "" || ext == ".html" {
			c.Response().Header().Set(echo.HeaderCacheControl, "no-cache, no-store, must-revalidate")
			return false
		}
		c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=3600")
		return false
	}

	e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
		Filesystem: getFileSystem("dist"),
		Skipper:    skipper,
	}))
}

func getFileSystem(path string) http.FileSystem {
	fs, err := fs.Sub(embeddedFiles, path)
	if err != nil {
		panic(err)
	}
	return http.FS(fs)
}
