package conn

// Permission gates engine operations per caller.
type Permission uint8

const (
	// PermQuery covers read-only network information.
	PermQuery Permission = 1 << iota
	// PermUseNetwork covers consumer-side request registration and socket
	// binding.
	PermUseNetwork
	// PermManageSuppliers covers supplier registration and state updates.
	PermManageSuppliers
	// PermSettings covers airplane mode, proxy settings, background
	// restriction, detection triggers, and factory reset.
	PermSettings
)

// PermAll grants everything; used by in-process system callers.
const PermAll = PermQuery | PermUseNetwork | PermManageSuppliers | PermSettings

// Caller identifies who invokes an engine operation.
type Caller struct {
	UID   uint32
	Perms Permission
}

// System is the in-process caller used for engine-internal operations.
var System = Caller{UID: 0, Perms: PermAll}

// Has reports whether the caller holds all bits of p.
func (c Caller) Has(p Permission) bool {
	return c.Perms&p == p
}
