// Package internal keeps the IV/salt replay filter shared by the
// stream and AEAD connection wrappers.
package internal

import (
	"hash/fnv"
	"sync"

	"github.com/riobard/go-bloom"
)

// Pool defaults, sized for roughly an hour of busy-server traffic.
const (
	saltPoolGenerations = 10
	saltPoolCapacity    = 1e6
	saltPoolFPR         = 1e-6
)

func fnvPair(b []byte) (uint64, uint64) {
	h1 := fnv.New64()
	h1.Write(b)
	h2 := fnv.New64a()
	h2.Write(b)
	return h1.Sum64(), h2.Sum64()
}

// SaltPool remembers recently seen IVs and salts in a rotating set of
// bloom filter generations. When the newest generation fills up, the
// oldest is recycled, so stale entries expire instead of driving the
// false-positive rate up forever.
type SaltPool struct {
	mu     sync.Mutex
	gens   []bloom.Filter
	newest int
	fill   int
	perGen int
}

func NewSaltPool(generations, capacity int, fpr float64) *SaltPool {
	p := &SaltPool{
		gens:   make([]bloom.Filter, generations),
		perGen: capacity / generations,
	}
	for i := range p.gens {
		p.gens[i] = bloom.New(p.perGen, fpr, fnvPair)
	}
	return p
}

// Check records b and reports whether it was already present. The test
// and the insert happen under one lock, so two connections replaying
// the same salt concurrently cannot both pass.
func (p *SaltPool) Check(b []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, g := range p.gens {
		if g.Test(b) {
			return true
		}
	}
	if p.fill >= p.perGen {
		p.newest = (p.newest + 1) % len(p.gens)
		p.gens[p.newest].Reset()
		p.fill = 0
	}
	p.gens[p.newest].Add(b)
	p.fill++
	return false
}

var salts = NewSaltPool(saltPoolGenerations, saltPoolCapacity, saltPoolFPR)

// CheckSalt reports whether the IV or salt was seen before and
// remembers it for later checks. A true result means the connection is
// replaying an old handshake and must be dropped.
func CheckSalt(b []byte) bool { return salts.Check(b) }
