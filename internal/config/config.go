package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"talktrace/internal/analysis"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Environment holds the raw settings read from TALKTRACE_* variables.
type Environment struct {
	ServiceURL     string        `env:"TALKTRACE_SERVICE_URL,default=http://127.0.0.1:5000" validate:"required,url"`
	RequestTimeout time.Duration `env:"TALKTRACE_REQUEST_TIMEOUT,default=60s" validate:"gt=0"`
	ListenAddr     string        `env:"TALKTRACE_LISTEN_ADDR,default=127.0.0.1:8088" validate:"required,hostname_port"`
	DataPath       string        `env:"TALKTRACE_DATA_PATH"`
	LogsFolder     string        `env:"TALKTRACE_LOGS_FOLDER"`
	ReportDir      string        `env:"TALKTRACE_REPORT_DIR"`
	NoColor        string        `env:"NO_COLOR"`
}

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Analysis   analysis.Config
	ListenAddr string
	DataPath   string
	LogDir     string
	ReportDir  string
	Colour     bool
}

var validate = validator.New()

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Binary directory first, so an installed MCP server finds its settings
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Then the working directory; godotenv never overrides variables already set
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	return FromEnviron(exeDir)
}

// FromEnviron builds the configuration from the process environment only.
// Relative data paths default to baseDir, or the working directory.
func FromEnviron(baseDir string) (*AppConfig, error) {
	var e Environment
	if _, err := env.UnmarshalFromEnviron(&e); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if err := validate.Struct(e); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// 3. Resolve Data Paths
	dataPath := e.DataPath
	if dataPath == "" {
		if baseDir != "" {
			dataPath = baseDir
		} else {
			dataPath = "."
		}
	}
	logDir := e.LogsFolder
	if logDir == "" {
		logDir = filepath.Join(dataPath, "logs")
	}
	reportDir := e.ReportDir
	if reportDir == "" {
		reportDir = filepath.Join(dataPath, "reports")
	}

	if err := os.MkdirAll(reportDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", reportDir).Msg("Failed to create report directory")
	}

	return &AppConfig{
		Analysis: analysis.Config{
			BaseURL: e.ServiceURL,
			Timeout: e.RequestTimeout,
		},
		ListenAddr: e.ListenAddr,
		DataPath:   dataPath,
		LogDir:     logDir,
		ReportDir:  reportDir,
		Colour:     e.NoColor == "",
	}, nil
}
