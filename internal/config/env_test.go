package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

// setEnvs sets multiple env vars with automatic cleanup.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

// requiredEnvs returns the minimum env vars needed for LoadEnvConfig to succeed.
func requiredEnvs() map[string]string {
	return map[string]string{
		"ARBITER_ADMIN_TOKEN": "admin-secret",
	}
}

func TestLoadEnvConfig_Defaults(t *testing.T) {
	setEnvs(t, requiredEnvs())

	cfg, err := LoadEnvConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertEqual(t, "StateDir", cfg.StateDir, "/var/lib/arbiter")
	assertEqual(t, "ListenAddress", cfg.ListenAddress, "127.0.0.1")
	assertEqual(t, "APIPort", cfg.APIPort, 2270)
	assertEqual(t, "APIMaxBodyBytes", cfg.APIMaxBodyBytes, 1<<20)

	assertEqual(t, "ProbeURL", cfg.ProbeURL, "http://connectivitycheck.platform.hicloud.com/generate_204")
	assertEqual(t, "ProbeTimeout", cfg.ProbeTimeout, 2*time.Second)
	assertEqual(t, "PingHost", cfg.PingHost, "")
	assertEqual(t, "DetectionSweepSchedule", cfg.DetectionSweepSchedule, "*/5 * * * *")
	assertEqual(t, "VerdictTTL", cfg.VerdictTTL, 10*time.Minute)

	assertEqual(t, "RequestQuota", cfg.RequestQuota, 2000)
	assertEqual(t, "ScoreTablePath", cfg.ScoreTablePath, "")

	assertEqual(t, "MetricRTTBinWidthMS", cfg.MetricRTTBinWidthMS, 50)
	assertEqual(t, "MetricRTTBinOverflowMS", cfg.MetricRTTBinOverflowMS, 5000)
}

func TestLoadEnvConfig_EnvOverrides(t *testing.T) {
	envs := requiredEnvs()
	envs["ARBITER_STATE_DIR"] = "/tmp/arbiter"
	envs["ARBITER_LISTEN_ADDRESS"] = "0.0.0.0"
	envs["ARBITER_PORT"] = "8080"
	envs["ARBITER_API_MAX_BODY_BYTES"] = "2097152"
	envs["ARBITER_PROBE_URL"] = "https://probe.example.org/generate_204"
	envs["ARBITER_PROBE_TIMEOUT"] = "5s"
	envs["ARBITER_PING_HOST"] = "8.8.8.8"
	envs["ARBITER_DETECTION_SWEEP_SCHEDULE"] = "0 * * * *"
	envs["ARBITER_VERDICT_TTL"] = "30m"
	envs["ARBITER_REQUEST_QUOTA"] = "500"
	envs["ARBITER_SCORE_TABLE"] = "/etc/arbiter/scores.yaml"
	envs["ARBITER_METRIC_RTT_BIN_WIDTH_MS"] = "100"
	envs["ARBITER_METRIC_RTT_BIN_OVERFLOW_MS"] = "3000"
	setEnvs(t, envs)

	cfg, err := LoadEnvConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertEqual(t, "StateDir", cfg.StateDir, "/tmp/arbiter")
	assertEqual(t, "ListenAddress", cfg.ListenAddress, "0.0.0.0")
	assertEqual(t, "APIPort", cfg.APIPort, 8080)
	assertEqual(t, "APIMaxBodyBytes", cfg.APIMaxBodyBytes, 2097152)
	assertEqual(t, "ProbeURL", cfg.ProbeURL, "https://probe.example.org/generate_204")
	assertEqual(t, "ProbeTimeout", cfg.ProbeTimeout, 5*time.Second)
	assertEqual(t, "PingHost", cfg.PingHost, "8.8.8.8")
	assertEqual(t, "DetectionSweepSchedule", cfg.DetectionSweepSchedule, "0 * * * *")
	assertEqual(t, "VerdictTTL", cfg.VerdictTTL, 30*time.Minute)
	assertEqual(t, "RequestQuota", cfg.RequestQuota, 500)
	assertEqual(t, "ScoreTablePath", cfg.ScoreTablePath, "/etc/arbiter/scores.yaml")
	assertEqual(t, "MetricRTTBinWidthMS", cfg.MetricRTTBinWidthMS, 100)
	assertEqual(t, "MetricRTTBinOverflowMS", cfg.MetricRTTBinOverflowMS, 3000)
}

func TestLoadEnvConfig_MissingAdminToken(t *testing.T) {
	os.Unsetenv("ARBITER_ADMIN_TOKEN")

	_, err := LoadEnvConfig()
	if err == nil {
		t.Fatal("expected error for missing ARBITER_ADMIN_TOKEN")
	}
	assertContains(t, err.Error(), "ARBITER_ADMIN_TOKEN must be defined (can be empty)")
}

func TestLoadEnvConfig_EmptyTokenAllowedWhenDefined(t *testing.T) {
	t.Setenv("ARBITER_ADMIN_TOKEN", "")

	cfg, err := LoadEnvConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertEqual(t, "AdminToken", cfg.AdminToken, "")
}

func TestLoadEnvConfig_EmptyListenAddress(t *testing.T) {
	envs := requiredEnvs()
	envs["ARBITER_LISTEN_ADDRESS"] = "   "
	setEnvs(t, envs)

	_, err := LoadEnvConfig()
	if err == nil {
		t.Fatal("expected error for empty listen address")
	}
	assertContains(t, err.Error(), "ARBITER_LISTEN_ADDRESS")
}

func TestLoadEnvConfig_InvalidPort(t *testing.T) {
	tests := []struct {
		name string
		port string
	}{
		{"out_of_range", "99999"},
		{"not_a_number", "abc"},
		{"zero", "0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			envs := requiredEnvs()
			envs["ARBITER_PORT"] = tc.port
			setEnvs(t, envs)

			_, err := LoadEnvConfig()
			if err == nil {
				t.Fatal("expected error for invalid port")
			}
			assertContains(t, err.Error(), "ARBITER_PORT")
		})
	}
}

func TestLoadEnvConfig_InvalidProbeURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"no_scheme", "connectivitycheck.example.org/generate_204"},
		{"bad_scheme", "ftp://probe.example.org/check"},
		{"empty", "   "},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			envs := requiredEnvs()
			envs["ARBITER_PROBE_URL"] = tc.url
			setEnvs(t, envs)

			_, err := LoadEnvConfig()
			if err == nil {
				t.Fatal("expected error for invalid probe URL")
			}
			assertContains(t, err.Error(), "ARBITER_PROBE_URL")
		})
	}
}

func TestLoadEnvConfig_InvalidProbeTimeout(t *testing.T) {
	envs := requiredEnvs()
	envs["ARBITER_PROBE_TIMEOUT"] = "0s"
	setEnvs(t, envs)

	_, err := LoadEnvConfig()
	if err == nil {
		t.Fatal("expected error for zero probe timeout")
	}
	assertContains(t, err.Error(), "ARBITER_PROBE_TIMEOUT")
}

func TestLoadEnvConfig_InvalidDuration(t *testing.T) {
	envs := requiredEnvs()
	envs["ARBITER_VERDICT_TTL"] = "not-a-duration"
	setEnvs(t, envs)

	_, err := LoadEnvConfig()
	if err == nil {
		t.Fatal("expected error for invalid duration")
	}
	assertContains(t, err.Error(), "ARBITER_VERDICT_TTL")
}

func TestLoadEnvConfig_InvalidSweepSchedule(t *testing.T) {
	envs := requiredEnvs()
	envs["ARBITER_DETECTION_SWEEP_SCHEDULE"] = "not-a-cron"
	setEnvs(t, envs)

	_, err := LoadEnvConfig()
	if err == nil {
		t.Fatal("expected error for invalid sweep schedule")
	}
	assertContains(t, err.Error(), "ARBITER_DETECTION_SWEEP_SCHEDULE")
}

func TestLoadEnvConfig_NegativeQuota(t *testing.T) {
	envs := requiredEnvs()
	envs["ARBITER_REQUEST_QUOTA"] = "-5"
	setEnvs(t, envs)

	_, err := LoadEnvConfig()
	if err == nil {
		t.Fatal("expected error for negative request quota")
	}
	assertContains(t, err.Error(), "ARBITER_REQUEST_QUOTA")
}

func TestLoadEnvConfig_RTTOverflowBelowBinWidth(t *testing.T) {
	envs := requiredEnvs()
	envs["ARBITER_METRIC_RTT_BIN_WIDTH_MS"] = "200"
	envs["ARBITER_METRIC_RTT_BIN_OVERFLOW_MS"] = "100"
	setEnvs(t, envs)

	_, err := LoadEnvConfig()
	if err == nil {
		t.Fatal("expected error for overflow below bin width")
	}
	assertContains(t, err.Error(), "ARBITER_METRIC_RTT_BIN_OVERFLOW_MS")
}

// --- test helpers ---

func assertEqual[T comparable](t *testing.T, name string, got, want T) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %v, want %v", name, got, want)
	}
}

func assertContains(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("expected %q to contain %q", s, substr)
	}
}
