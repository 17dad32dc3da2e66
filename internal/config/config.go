package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by SHOPKUBE_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("SHOPKUBE_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 3001
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// IsProduction reports whether the deployment environment is production.
// It drives both the ingress host scheme and the helm values file selection.
func IsProduction() bool {
	return os.Getenv("ENVIRONMENT") == "production"
}

// EnvironmentName returns the values-file suffix for the current
// environment: "prod" in production, "local" otherwise.
func EnvironmentName() string {
	if IsProduction() {
		return "prod"
	}
	return "local"
}

// IngressDomain returns the base domain stores are published under in
// production, e.g. "34.135.50.141.nip.io".
func IngressDomain() string {
	d := os.Getenv("INGRESS_DOMAIN")
	if d == "" {
		return "127.0.0.1.nip.io"
	}
	return d
}

// KubeconfigPath returns the kubeconfig file location, defaulting to the
// conventional ~/.kube/config.
func KubeconfigPath() string {
	if p := os.Getenv("KUBECONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".kube", "config")
}

// KubeContext returns the kubeconfig context to pin outside production.
// Defaults to docker-desktop for local development clusters.
func KubeContext() string {
	c := os.Getenv("KUBE_CONTEXT")
	if c == "" {
		return "docker-desktop"
	}
	return c
}

func HelmBinary() string {
	b := os.Getenv("HELM_BINARY")
	if b == "" {
		return "helm"
	}
	return b
}

// ChartDir returns the directory holding the per-engine store charts.
func ChartDir() string {
	d := os.Getenv("CHART_DIR")
	if d == "" {
		return "charts"
	}
	return d
}

// HelmTimeout bounds each helm subprocess invocation.
func HelmTimeout() time.Duration {
	d, err := time.ParseDuration(os.Getenv("HELM_TIMEOUT"))
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// NamespaceSettleWait is the advisory pause after requesting namespace
// deletion, giving the control plane time to begin reclaiming resources.
func NamespaceSettleWait() time.Duration {
	d, err := time.ParseDuration(os.Getenv("NAMESPACE_SETTLE_WAIT"))
	if err != nil || d < 0 {
		return 2 * time.Second
	}
	return d
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// CreateLimitPerHour caps store creations per caller per hour.
func CreateLimitPerHour() int {
	n, err := strconv.Atoi(os.Getenv("CREATE_LIMIT_PER_HOUR"))
	if err != nil || n <= 0 {
		return 10
	}
	return n
}

// DeleteLimitPerQuarterHour caps store deletions per caller per 15 minutes.
func DeleteLimitPerQuarterHour() int {
	n, err := strconv.Atoi(os.Getenv("DELETE_LIMIT_PER_QUARTER_HOUR"))
	if err != nil || n <= 0 {
		return 20
	}
	return n
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
