package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arbiternet/arbiter/internal/netcap"
	"github.com/arbiternet/arbiter/internal/supplier"
)

// LoadScoreTable reads a YAML file mapping bearer names to base scores and
// returns the built-in table with those entries overridden. Bearers absent
// from the file keep their built-in score.
//
//	wifi: 75
//	cellular: 45
func LoadScoreTable(path string) (supplier.ScoreTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read score table: %w", err)
	}

	var raw map[string]int32
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse score table %s: %w", path, err)
	}

	table := supplier.DefaultScores()
	for name, score := range raw {
		bearer, ok := bearerByName(name)
		if !ok {
			return nil, fmt.Errorf("score table %s: unknown bearer %q", path, name)
		}
		if score <= 0 {
			return nil, fmt.Errorf("score table %s: score for %q must be positive, got %d", path, name, score)
		}
		table[bearer] = score
	}
	return table, nil
}

func bearerByName(name string) (netcap.Bearer, bool) {
	for b := netcap.Bearer(0); b.Valid(); b++ {
		if b.String() == name {
			return b, true
		}
	}
	return 0, false
}
