package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arbiternet/arbiter/internal/netcap"
	"github.com/arbiternet/arbiter/internal/supplier"
)

func writeScoreFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scores.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write score file: %v", err)
	}
	return path
}

func TestLoadScoreTable_Overrides(t *testing.T) {
	path := writeScoreFile(t, "wifi: 75\ncellular: 45\n")

	table, err := LoadScoreTable(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := table.Base(netcap.BearerWiFi); got != 75 {
		t.Errorf("wifi score: got %d, want 75", got)
	}
	if got := table.Base(netcap.BearerCellular); got != 45 {
		t.Errorf("cellular score: got %d, want 45", got)
	}
	// Untouched bearers keep the built-in score.
	defaults := supplier.DefaultScores()
	if got := table.Base(netcap.BearerEthernet); got != defaults.Base(netcap.BearerEthernet) {
		t.Errorf("ethernet score: got %d, want builtin %d", got, defaults.Base(netcap.BearerEthernet))
	}
}

func TestLoadScoreTable_UnknownBearer(t *testing.T) {
	path := writeScoreFile(t, "carrier-pigeon: 90\n")

	if _, err := LoadScoreTable(path); err == nil {
		t.Fatal("expected error for unknown bearer name")
	}
}

func TestLoadScoreTable_NonPositiveScore(t *testing.T) {
	path := writeScoreFile(t, "wifi: 0\n")

	if _, err := LoadScoreTable(path); err == nil {
		t.Fatal("expected error for non-positive score")
	}
}

func TestLoadScoreTable_MissingFile(t *testing.T) {
	if _, err := LoadScoreTable(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadScoreTable_MalformedYAML(t *testing.T) {
	path := writeScoreFile(t, "wifi: [not a number\n")

	if _, err := LoadScoreTable(path); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}
