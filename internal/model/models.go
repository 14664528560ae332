// Package model defines the view structs served by the diagnostics API.
package model

import "github.com/arbiternet/arbiter/internal/config"

// SupplierView is the API projection of one registered supplier.
type SupplierView struct {
	ID           uint32   `json:"id"`
	Bearer       string   `json:"bearer"`
	Ident        string   `json:"ident"`
	Key          string   `json:"key"`
	NetID        int32    `json:"net_id"`
	Available    bool     `json:"available"`
	Validated    bool     `json:"validated"`
	Quality      string   `json:"quality"`
	BaseScore    int32    `json:"base_score"`
	RealScore    int32    `json:"real_score"`
	Caps         []string `json:"caps"`
	IfaceName    string   `json:"iface_name,omitempty"`
	DetectState  string   `json:"detect_state"`
	BestRequests []uint32 `json:"best_requests,omitempty"`
	UID          uint32   `json:"uid"`
}

// RequestView is the API projection of one live request.
type RequestView struct {
	ID            uint32   `json:"id"`
	UID           uint32   `json:"uid"`
	IsDefault     bool     `json:"is_default"`
	Ident         string   `json:"ident,omitempty"`
	Caps          []string `json:"caps"`
	Bearers       []string `json:"bearers,omitempty"`
	BoundSupplier uint32   `json:"bound_supplier,omitempty"`
	Bound         bool     `json:"bound"`
	LastCallback  string   `json:"last_callback"`
}

// NetworkView is the API projection of one live network.
type NetworkView struct {
	NetID       int32    `json:"net_id"`
	SupplierID  uint32   `json:"supplier_id"`
	Bearer      string   `json:"bearer"`
	IfaceName   string   `json:"iface_name,omitempty"`
	DNS         []string `json:"dns,omitempty"`
	MTU         int      `json:"mtu,omitempty"`
	DetectState string   `json:"detect_state"`
	IsDefault   bool     `json:"is_default"`
}

// DefaultNetView describes the current default-network selection.
type DefaultNetView struct {
	HasDefault bool   `json:"has_default"`
	NetID      int32  `json:"net_id,omitempty"`
	SupplierID uint32 `json:"supplier_id,omitempty"`
	Bearer     string `json:"bearer,omitempty"`
	Metered    bool   `json:"metered"`
}

// DetectionConfig echoes the probe settings the daemon was started with.
type DetectionConfig struct {
	ProbeURL      string          `json:"probe_url"`
	ProbeTimeout  config.Duration `json:"probe_timeout"`
	PingHost      string          `json:"ping_host,omitempty"`
	SweepSchedule string          `json:"sweep_schedule"`
	VerdictTTL    config.Duration `json:"verdict_ttl"`
}

// SystemInfo is the API projection of process-level information.
type SystemInfo struct {
	Version      string          `json:"version"`
	Commit       string          `json:"commit"`
	BuildDate    string          `json:"build_date"`
	GoVersion    string          `json:"go_version"`
	UptimeSec    int64           `json:"uptime_sec"`
	Suppliers    int             `json:"suppliers"`
	Requests     int             `json:"requests"`
	AirplaneMode bool            `json:"airplane_mode"`
	Detection    DetectionConfig `json:"detection"`
}
