package supplier

import (
	"testing"

	"github.com/arbiternet/arbiter/internal/netcap"
)

func TestDefaultScoreOrdering(t *testing.T) {
	scores := DefaultScores()
	order := []netcap.Bearer{
		netcap.BearerVPN,
		netcap.BearerEthernet,
		netcap.BearerWiFi,
		netcap.BearerWiFiAware,
		netcap.BearerCellular,
		netcap.BearerDistributed,
		netcap.BearerBluetooth,
	}
	for i := 1; i < len(order); i++ {
		hi, lo := scores.Base(order[i-1]), scores.Base(order[i])
		if hi <= lo {
			t.Fatalf("expected %v (%d) above %v (%d)", order[i-1], hi, order[i], lo)
		}
	}
}

func TestRealScore(t *testing.T) {
	cases := []struct {
		name      string
		base      int32
		validated bool
		quality   Quality
		want      int32
	}{
		{"validated neutral", 70, true, QualityUnknown, 70},
		{"unvalidated penalty", 70, false, QualityUnknown, 60},
		{"validated poor", 70, true, QualityPoor, 50},
		{"validated good", 70, true, QualityGood, 90},
		{"unvalidated poor stacks", 70, false, QualityPoor, 40},
	}
	for _, tc := range cases {
		if got := realScore(tc.base, tc.validated, tc.quality); got != tc.want {
			t.Errorf("%s: got %d want %d", tc.name, got, tc.want)
		}
	}
}
