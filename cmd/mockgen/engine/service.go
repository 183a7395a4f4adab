package engine

import (
	"hash/fnv"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"talktrace/internal/analysis"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
)

// NewService returns a stand-in for the analysis service. It answers
// POST /analyze with a report seeded from the uploaded bytes, so the same
// transcript always yields the same numbers.
//
// Scenario "failing" answers every request with a 500 and an error body;
// Delay is applied before each answer.
func NewService(cfg GeneratorConfig, delay time.Duration) *echo.Echo {
	cfg = cfg.withDefaults()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	e.POST("/analyze", func(c echo.Context) error {
		fh, err := c.FormFile("chatFile")
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "No file part"})
		}
		if !strings.EqualFold(filepath.Ext(fh.Filename), ".txt") {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid file format"})
		}
		f, err := fh.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		defer f.Close()

		h := fnv.New64a()
		if _, err := io.Copy(h, f); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}

		user := c.FormValue("user")
		if user == "" {
			user = analysis.Overall
		}
		log.Info().Str("file", fh.Filename).Str("participant", user).Msg("Mock analysis requested")

		select {
		case <-time.After(delay):
		case <-c.Request().Context().Done():
			return c.Request().Context().Err()
		}

		if cfg.Scenario == "failing" {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to process chat file"})
		}
		if user != analysis.Overall && !slices.Contains(cfg.Users, user) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown user: " + user})
		}

		reqCfg := cfg
		reqCfg.Seed = cfg.Seed ^ int64(h.Sum64())
		return c.JSON(http.StatusOK, Generate(reqCfg, user))
	})
	return e
}
