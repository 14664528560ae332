package network

import (
	"errors"
	"sync"
)

// Network id ranges. Ids 1-50 are reserved for internal networks (virtual
// carriers the system creates for itself); ordinary supplier networks get
// ids from 100 upward. Zero is never a valid id.
const (
	InvalidNetID int32 = 0

	MinInternalNetID int32 = 1
	MaxInternalNetID int32 = 50

	MinNetID int32 = 100
	MaxNetID int32 = 64511
)

var ErrNetIDExhausted = errors.New("network: no free net id")

// IDPool hands out network ids, walking forward from the last grant and
// wrapping, so recently released ids are not reused immediately.
type IDPool struct {
	mu           sync.Mutex
	next         int32
	nextInternal int32
	used         map[int32]struct{}
}

func NewIDPool() *IDPool {
	return &IDPool{
		next:         MinNetID,
		nextInternal: MinInternalNetID,
		used:         make(map[int32]struct{}),
	}
}

// Acquire grants an ordinary network id.
func (p *IDPool) Acquire() (int32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, err := p.scan(&p.next, MinNetID, MaxNetID)
	if err != nil {
		return InvalidNetID, err
	}
	return id, nil
}

// AcquireInternal grants an id from the reserved internal range.
func (p *IDPool) AcquireInternal() (int32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, err := p.scan(&p.nextInternal, MinInternalNetID, MaxInternalNetID)
	if err != nil {
		return InvalidNetID, err
	}
	return id, nil
}

func (p *IDPool) scan(cursor *int32, lo, hi int32) (int32, error) {
	span := hi - lo + 1
	for i := int32(0); i < span; i++ {
		id := *cursor
		*cursor++
		if *cursor > hi {
			*cursor = lo
		}
		if _, taken := p.used[id]; !taken {
			p.used[id] = struct{}{}
			return id, nil
		}
	}
	return InvalidNetID, ErrNetIDExhausted
}

// Release returns an id to the pool. Releasing an unknown id is a no-op.
func (p *IDPool) Release(id int32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.used, id)
}

// InUse reports whether id is currently granted.
func (p *IDPool) InUse(id int32) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.used[id]
	return ok
}
