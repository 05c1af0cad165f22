package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort  string
	LogLevel string

	// Pipeline bounds.
	RasterDPI              int
	MaxPageWidth           int
	OCRLanguage            string
	PageTimeoutSeconds     int
	DocumentTimeoutSeconds int
	MaxParallelPages       int

	// HTTP edge.
	MaxUploadBytes    int64
	APIRateLimitRPS   int
	APIRateLimitBurst int
	CORSOrigins       string

	// Parser tunables. Label lists are comma-separated; they are deployment
	// defaults for US tax bills, not document facts.
	OwnerLabels     string
	AddressLabels   string
	TaxYearLabels   string
	AmountLabels    string
	DueDateLabels   string
	ProximityWindow int
	MinTaxYear      int
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		RasterDPI:              mustEnvInt("RASTER_DPI", 200),
		MaxPageWidth:           mustEnvInt("MAX_PAGE_WIDTH", 1500),
		OCRLanguage:            mustEnv("OCR_LANGUAGE", "eng"),
		PageTimeoutSeconds:     mustEnvInt("OCR_PAGE_TIMEOUT_SECONDS", 30),
		DocumentTimeoutSeconds: mustEnvInt("DOCUMENT_TIMEOUT_SECONDS", 120),
		MaxParallelPages:       mustEnvInt("MAX_PARALLEL_PAGES", 4),

		MaxUploadBytes:    mustEnvInt64("MAX_UPLOAD_BYTES", 10*1024*1024),
		APIRateLimitRPS:   mustEnvInt("API_RATE_LIMIT_RPS", 10),
		APIRateLimitBurst: mustEnvInt("API_RATE_LIMIT_BURST", 20),
		CORSOrigins:       mustEnv("CORS_ORIGINS", "*"),

		OwnerLabels:     mustEnv("PARSER_OWNER_LABELS", ""),
		AddressLabels:   mustEnv("PARSER_ADDRESS_LABELS", ""),
		TaxYearLabels:   mustEnv("PARSER_TAX_YEAR_LABELS", ""),
		AmountLabels:    mustEnv("PARSER_AMOUNT_LABELS", ""),
		DueDateLabels:   mustEnv("PARSER_DUE_DATE_LABELS", ""),
		ProximityWindow: mustEnvInt("PARSER_PROXIMITY_WINDOW", 0),
		MinTaxYear:      mustEnvInt("PARSER_MIN_TAX_YEAR", 0),
	}
}

// SplitList parses a comma-separated config value; empty means "use code
// defaults".
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
