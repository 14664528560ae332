// Package metrics holds hot-path counters for the connectivity engine.
package metrics

// CallbackKind labels one consumer notification for counting.
type CallbackKind string

const (
	CallbackAvailable   CallbackKind = "available"
	CallbackLost        CallbackKind = "lost"
	CallbackUnavailable CallbackKind = "unavailable"
	CallbackCapsChange  CallbackKind = "caps_change"
	CallbackLinkChange  CallbackKind = "link_change"
	CallbackBlockStatus CallbackKind = "block_status"
)

// VerdictKind labels one detection outcome for counting.
type VerdictKind string

const (
	VerdictValid   VerdictKind = "valid"
	VerdictPortal  VerdictKind = "portal"
	VerdictInvalid VerdictKind = "invalid"
)

// DefaultSwitchEvent describes one default-network change, kept in a bounded
// ring for the diagnostics surface.
type DefaultSwitchEvent struct {
	OldNetID int32 `json:"old_net_id"`
	NewNetID int32 `json:"new_net_id"`
	UnixNano int64 `json:"ts"`
}
