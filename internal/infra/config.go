package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend names accepted by IMAGEN_BACKEND.
const (
	BackendREST      = "rest"
	BackendGenAI     = "genai"
	BackendSynthetic = "synthetic"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	TextureAddr string

	ProjectID      string
	Location       string
	ImagenModel    string
	ImagenBaseURL  string
	ImagenBackend  string
	ImagenTimeout  time.Duration
	TextureTimeout time.Duration

	GeneratedDir string
	TextureDir   string
	DatabaseURL  string

	CORSAllowedOrigins []string
	RateLimitPerMin    int
	TrustProxyHeaders  bool

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "5001"),
		TextureAddr:        getEnv("TEXTURE_ADDR", "127.0.0.1:5000"),
		ProjectID:          strings.TrimSpace(os.Getenv("GCP_PROJECT_ID")),
		Location:           getEnv("GCP_LOCATION", "us-central1"),
		ImagenModel:        getEnv("IMAGEN_MODEL", "imagen-3.0-generate-002"),
		ImagenBaseURL:      strings.TrimSpace(os.Getenv("IMAGEN_BASE_URL")),
		ImagenBackend:      strings.ToLower(getEnv("IMAGEN_BACKEND", BackendREST)),
		ImagenTimeout:      time.Second * time.Duration(getEnvInt("IMAGEN_TIMEOUT_SECONDS", 180)),
		TextureTimeout:     time.Second * time.Duration(getEnvInt("TEXTURE_TIMEOUT_SECONDS", 120)),
		GeneratedDir:       getEnv("GENERATED_DIR", "./static/generated"),
		TextureDir:         getEnv("TEXTURE_DIR", "./generated"),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		TrustProxyHeaders:  getEnvBool("TRUST_PROXY_HEADERS", false),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 210)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	// The outbound call must be able to finish before the server gives up on
	// the inbound response.
	if cfg.HTTPWriteTimeout <= cfg.ImagenTimeout {
		cfg.HTTPWriteTimeout = cfg.ImagenTimeout + 30*time.Second
	}

	return cfg, nil
}

// ValidateImagen checks the settings needed to call Imagen. Only the
// generating services call it; gallery tooling loads config without GCP.
func (c *Config) ValidateImagen() error {
	switch c.ImagenBackend {
	case BackendREST, BackendGenAI:
		if c.ProjectID == "" {
			return fmt.Errorf("GCP_PROJECT_ID is required for the %s backend", c.ImagenBackend)
		}
	case BackendSynthetic:
	default:
		return fmt.Errorf("unsupported IMAGEN_BACKEND %q", c.ImagenBackend)
	}
	return nil
}

// Endpoint returns the Vertex AI predict URL for the configured model.
func (c *Config) Endpoint() string {
	base := strings.TrimRight(c.ImagenBaseURL, "/")
	if base == "" {
		base = fmt.Sprintf("https://%s-aiplatform.googleapis.com", c.Location)
	}
	return fmt.Sprintf("%s/v1/projects/%s/locations/%s/publishers/google/models/%s:predict",
		base, c.ProjectID, c.Location, c.ImagenModel)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
