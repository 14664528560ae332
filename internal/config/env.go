// Package config handles environment-based configuration loading and the
// bearer score table overrides.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// EnvConfig holds all environment-variable-driven settings (not hot-updatable).
type EnvConfig struct {
	// Directories
	StateDir string

	// Network
	ListenAddress string

	// Ports
	APIPort         int
	APIMaxBodyBytes int

	// Detection
	ProbeURL               string
	ProbeTimeout           time.Duration
	PingHost               string
	DetectionSweepSchedule string
	VerdictTTL             time.Duration

	// Core
	RequestQuota   int
	ScoreTablePath string

	// Auth
	AdminToken string

	// Metrics
	MetricRTTBinWidthMS    int
	MetricRTTBinOverflowMS int
}

// LoadEnvConfig reads environment variables and returns a validated EnvConfig.
// Returns an error if any required variable is missing or any value is invalid.
func LoadEnvConfig() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	var errs []string

	// --- Directories ---
	cfg.StateDir = envStr("ARBITER_STATE_DIR", "/var/lib/arbiter")
	cfg.ListenAddress = strings.TrimSpace(envStr("ARBITER_LISTEN_ADDRESS", "127.0.0.1"))

	// --- Ports ---
	cfg.APIPort = envInt("ARBITER_PORT", 2270, &errs)
	cfg.APIMaxBodyBytes = envInt("ARBITER_API_MAX_BODY_BYTES", 1<<20, &errs)

	// --- Detection ---
	cfg.ProbeURL = strings.TrimSpace(envStr("ARBITER_PROBE_URL", "http://connectivitycheck.platform.hicloud.com/generate_204"))
	cfg.ProbeTimeout = envDuration("ARBITER_PROBE_TIMEOUT", 2*time.Second, &errs)
	cfg.PingHost = strings.TrimSpace(envStr("ARBITER_PING_HOST", ""))
	cfg.DetectionSweepSchedule = envStr("ARBITER_DETECTION_SWEEP_SCHEDULE", "*/5 * * * *")
	cfg.VerdictTTL = envDuration("ARBITER_VERDICT_TTL", 10*time.Minute, &errs)

	// --- Core ---
	cfg.RequestQuota = envInt("ARBITER_REQUEST_QUOTA", 2000, &errs)
	cfg.ScoreTablePath = strings.TrimSpace(envStr("ARBITER_SCORE_TABLE", ""))

	// --- Auth (must be defined; empty means auth disabled) ---
	adminToken, hasAdminToken := os.LookupEnv("ARBITER_ADMIN_TOKEN")
	cfg.AdminToken = adminToken

	// --- Metrics ---
	cfg.MetricRTTBinWidthMS = envInt("ARBITER_METRIC_RTT_BIN_WIDTH_MS", 50, &errs)
	cfg.MetricRTTBinOverflowMS = envInt("ARBITER_METRIC_RTT_BIN_OVERFLOW_MS", 5000, &errs)

	// --- Validation ---
	if !hasAdminToken {
		errs = append(errs, "ARBITER_ADMIN_TOKEN must be defined (can be empty)")
	}
	if cfg.ListenAddress == "" {
		errs = append(errs, "ARBITER_LISTEN_ADDRESS must not be empty")
	}

	validatePort("ARBITER_PORT", cfg.APIPort, &errs)
	validatePositive("ARBITER_API_MAX_BODY_BYTES", cfg.APIMaxBodyBytes, &errs)

	if u, err := url.Parse(cfg.ProbeURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Sprintf("ARBITER_PROBE_URL: invalid probe URL %q", cfg.ProbeURL))
	}
	if cfg.ProbeTimeout <= 0 {
		errs = append(errs, "ARBITER_PROBE_TIMEOUT must be positive")
	}
	if _, err := cron.ParseStandard(cfg.DetectionSweepSchedule); err != nil {
		errs = append(errs, fmt.Sprintf("ARBITER_DETECTION_SWEEP_SCHEDULE: invalid cron expression %q: %v", cfg.DetectionSweepSchedule, err))
	}
	if cfg.VerdictTTL <= 0 {
		errs = append(errs, "ARBITER_VERDICT_TTL must be positive")
	}

	validatePositive("ARBITER_REQUEST_QUOTA", cfg.RequestQuota, &errs)
	validatePositive("ARBITER_METRIC_RTT_BIN_WIDTH_MS", cfg.MetricRTTBinWidthMS, &errs)
	validatePositive("ARBITER_METRIC_RTT_BIN_OVERFLOW_MS", cfg.MetricRTTBinOverflowMS, &errs)

	if cfg.MetricRTTBinOverflowMS < cfg.MetricRTTBinWidthMS {
		errs = append(errs, "ARBITER_METRIC_RTT_BIN_OVERFLOW_MS must be greater than or equal to ARBITER_METRIC_RTT_BIN_WIDTH_MS")
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}

	return cfg, nil
}

// --- helpers ---

func envStr(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int, errs *[]string) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: invalid integer %q", key, v))
		return defaultVal
	}
	return n
}

func envDuration(key string, defaultVal time.Duration, errs *[]string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: invalid duration %q", key, v))
		return defaultVal
	}
	return d
}

func validatePort(name string, value int, errs *[]string) {
	if value < 1 || value > 65535 {
		*errs = append(*errs, fmt.Sprintf("%s: port must be 1-65535, got %d", name, value))
	}
}

func validatePositive(name string, value int, errs *[]string) {
	if value <= 0 {
		*errs = append(*errs, fmt.Sprintf("%s: must be positive, got %d", name, value))
	}
}
