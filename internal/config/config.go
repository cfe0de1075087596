package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Host  string
	Port  int
	Debug bool

	UploadDir   string
	ResultDir   string
	MetadataDir string

	RetentionHours   int
	SweepIntervalMin int

	ConvertTimeoutSec int
	MaxWorkers        int

	// WatchDir enables the inbox watcher when non-empty: supported files
	// dropped there are converted to PDF automatically.
	WatchDir          string
	WatchStabilitySec int

	OCRLanguages string

	// External tool binaries, overridable for non-standard installs.
	SofficeBin   string
	PdftoppmBin  string
	TesseractBin string
	MagickBin    string
	PandocBin    string

	LogLevel string
}

func Load() *Config {
	cfg := &Config{}
	cfg.Host = getEnv("HOST", "0.0.0.0")
	cfg.Port = getEnvInt("PORT", 5000)
	cfg.Debug = getEnvBool("DEBUG", false)

	cfg.UploadDir = getEnv("UPLOAD_DIR", "uploads")
	cfg.ResultDir = getEnv("RESULT_DIR", "results")
	cfg.MetadataDir = getEnv("METADATA_DIR", "metadata")

	cfg.RetentionHours = getEnvInt("RETENTION_HOURS", 24)
	cfg.SweepIntervalMin = getEnvInt("SWEEP_INTERVAL", 60)

	cfg.ConvertTimeoutSec = getEnvInt("CONVERT_TIMEOUT", 300)
	cfg.MaxWorkers = getEnvInt("MAX_WORKERS", 4)

	cfg.WatchDir = getEnv("WATCH_DIR", "")
	cfg.WatchStabilitySec = getEnvInt("WATCH_STABILITY_DELAY", 1)

	cfg.OCRLanguages = getEnv("OCR_LANGUAGES", "eng")

	cfg.SofficeBin = getEnv("SOFFICE_BIN", "soffice")
	cfg.PdftoppmBin = getEnv("PDFTOPPM_BIN", "pdftoppm")
	cfg.TesseractBin = getEnv("TESSERACT_BIN", "tesseract")
	cfg.MagickBin = getEnv("MAGICK_BIN", "convert")
	cfg.PandocBin = getEnv("PANDOC_BIN", "pandoc")

	cfg.LogLevel = getEnv("LOG_LEVEL", "INFO")
	return cfg
}

func (c *Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

func (c *Config) Retention() time.Duration {
	return time.Duration(c.RetentionHours) * time.Hour
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMin) * time.Minute
}

func (c *Config) ConvertTimeout() time.Duration {
	return time.Duration(c.ConvertTimeoutSec) * time.Second
}

func (c *Config) WatchStabilityDelay() time.Duration {
	return time.Duration(c.WatchStabilitySec) * time.Second
}

// ToolBins lists the external binaries the dispatcher may invoke.
func (c *Config) ToolBins() []string {
	return []string{c.SofficeBin, c.PdftoppmBin, c.TesseractBin, c.MagickBin, c.PandocBin}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
