package supplier

import "github.com/arbiternet/arbiter/internal/netcap"

// Score tuning constants. ValidPenalty is subtracted while a network has not
// passed detection (or sits behind a captive portal); QualityDiff is the
// good/poor swing reported by the quality probe.
const (
	ValidPenalty = 10
	QualityDiff  = 20
)

// ScoreTable maps a bearer type to its base score. Higher wins.
type ScoreTable map[netcap.Bearer]int32

// DefaultScores returns the built-in bearer score table. A deployment can
// override individual entries via the score-table config file.
func DefaultScores() ScoreTable {
	return ScoreTable{
		netcap.BearerVPN:         100,
		netcap.BearerEthernet:    80,
		netcap.BearerWiFi:        70,
		netcap.BearerWiFiAware:   60,
		netcap.BearerCellular:    50,
		netcap.BearerDistributed: 40,
		netcap.BearerBluetooth:   30,
	}
}

// Base returns the base score for a bearer, zero if unlisted.
func (t ScoreTable) Base(b netcap.Bearer) int32 {
	return t[b]
}

// Quality is the verdict of the link-quality probe.
type Quality int

const (
	QualityUnknown Quality = iota
	QualityGood
	QualityPoor
)

func (q Quality) String() string {
	switch q {
	case QualityGood:
		return "good"
	case QualityPoor:
		return "poor"
	default:
		return "unknown"
	}
}

// realScore computes the effective comparison score. It is recomputed on
// every read rather than cached; the base never changes from detection or
// quality churn.
func realScore(base int32, validated bool, q Quality) int32 {
	score := base
	if !validated {
		score -= ValidPenalty
	}
	switch q {
	case QualityPoor:
		score -= QualityDiff
	case QualityGood:
		score += QualityDiff
	}
	return score
}
