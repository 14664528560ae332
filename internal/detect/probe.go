// Package detect validates networks: an HTTP probe classifies them as
// valid, captive-portal, or invalid, an ICMP round trip grades link
// quality, and per-network monitors repeat the checks on an adaptive
// cadence.
package detect

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// Status is the outcome of one HTTP validation probe.
type Status int

const (
	StatusInvalid Status = iota
	StatusValid
	StatusPortal
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusPortal:
		return "portal"
	default:
		return "invalid"
	}
}

// Result is one probe verdict. PortalURL is set only for StatusPortal.
type Result struct {
	Status    Status
	PortalURL string
	RTT       time.Duration
}

const (
	// DefaultProbeURL is the generate-204 endpoint used when config does
	// not override it.
	DefaultProbeURL = "http://connectivitycheck.platform.hicloud.com/generate_204"

	// ProbeTimeout bounds one HTTP validation attempt.
	ProbeTimeout = 2 * time.Second
)

// Prober runs one validation probe. Injectable for testing.
type Prober func(ctx context.Context, probeURL string) (Result, error)

// HTTPProber probes with a plain client that does not follow redirects, so
// a portal's Location header survives for classification.
func HTTPProber() Prober {
	client := &http.Client{
		Timeout: ProbeTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return func(ctx context.Context, probeURL string) (Result, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
		if err != nil {
			return Result{}, fmt.Errorf("build probe request: %w", err)
		}
		start := time.Now()
		resp, err := client.Do(req)
		if err != nil {
			return Result{}, err
		}
		defer resp.Body.Close()
		return Classify(resp, time.Since(start)), nil
	}
}

// Classify maps a probe response to a verdict. 204 is a clean pass; a
// redirect with a Location header is a captive portal; a 200 with a body is
// a portal that rewrites content in place; everything else is invalid.
func Classify(resp *http.Response, rtt time.Duration) Result {
	switch {
	case resp.StatusCode == http.StatusNoContent:
		return Result{Status: StatusValid, RTT: rtt}
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		loc := resp.Header.Get("Location")
		if _, err := url.ParseRequestURI(loc); err != nil || loc == "" {
			return Result{Status: StatusInvalid, RTT: rtt}
		}
		return Result{Status: StatusPortal, PortalURL: loc, RTT: rtt}
	case resp.StatusCode == http.StatusOK && resp.ContentLength != 0:
		return Result{Status: StatusPortal, PortalURL: resp.Request.URL.String(), RTT: rtt}
	default:
		return Result{Status: StatusInvalid, RTT: rtt}
	}
}

// PingFunc measures one ICMP round trip. Injectable for testing.
var PingFunc = func(host string) (time.Duration, error) {
	pinger, err := probing.NewPinger(host)
	if err != nil {
		return 0, fmt.Errorf("create pinger: %w", err)
	}
	pinger.Count = 1
	pinger.Timeout = time.Second
	pinger.SetPrivileged(false)
	if err := pinger.Run(); err != nil {
		return 0, err
	}
	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return 0, fmt.Errorf("packet loss")
	}
	return stats.AvgRtt, nil
}

// Quality grading thresholds for the ICMP round trip.
const (
	goodRTT = 100 * time.Millisecond
	poorRTT = 500 * time.Millisecond
)

// QualityVerdict is the link-quality grade derived from ICMP timing.
type QualityVerdict int

const (
	QualityUnknown QualityVerdict = iota
	QualityGood
	QualityPoor
)

// GradeRTT maps a measured round trip to a quality verdict. A failed
// measurement (zero rtt with err) grades poor; mid-range timings stay
// unknown so scores are not nudged on noise.
func GradeRTT(rtt time.Duration, err error) QualityVerdict {
	if err != nil {
		return QualityPoor
	}
	switch {
	case rtt <= goodRTT:
		return QualityGood
	case rtt >= poorRTT:
		return QualityPoor
	default:
		return QualityUnknown
	}
}
