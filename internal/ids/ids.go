package ids

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Record id prefixes and the digit width used for each table.
const (
	PrefixStudent  = "STU"
	PrefixVisitor  = "VIS"
	PrefixVehicle  = "VEH"
	PrefixLostItem = "LOST"
	PrefixEvent    = "EVT"
	PrefixUser     = "USR"

	WidthStudent = 4
	WidthDefault = 3
)

// Generator draws prefixed, zero-padded record ids and random choices from a
// single seeded source so that tests can replay them.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator returns a generator seeded with seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// NewTimeSeeded returns a generator seeded from the wall clock.
func NewTimeSeeded() *Generator {
	return NewGenerator(time.Now().UnixNano())
}

// Format renders prefix followed by n padded to width digits.
func Format(prefix string, n, width int) string {
	return fmt.Sprintf("%s%0*d", prefix, width, n)
}

// Matches reports whether id is prefix followed by at least width digits.
// Wider ids are accepted because Unique widens a full space.
func Matches(id, prefix string, width int) bool {
	digits, ok := strings.CutPrefix(id, prefix)
	if !ok || len(digits) < width {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Draw returns prefix plus a random number in [0, 10^width), zero padded.
func (g *Generator) Draw(prefix string, width int) string {
	return Format(prefix, g.Intn(pow10(width)), width)
}

// Unique draws ids until taken reports a free one. After a bounded number of
// random attempts it scans the space in order, and widens it when full.
func (g *Generator) Unique(prefix string, width int, taken func(string) bool) string {
	for attempt := 0; attempt < 32; attempt++ {
		if id := g.Draw(prefix, width); !taken(id) {
			return id
		}
	}
	for {
		limit := pow10(width)
		for n := 0; n < limit; n++ {
			if id := Format(prefix, n, width); !taken(id) {
				return id
			}
		}
		width++
	}
}

// Intn returns a pseudo-random int in [0, n).
func (g *Generator) Intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Intn(n)
}

// Float64 returns a pseudo-random float in [0, 1).
func (g *Generator) Float64() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64()
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// Token returns a lexicographically sortable opaque identifier for sessions.
func Token() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

func pow10(width int) int {
	n := 1
	for i := 0; i < width; i++ {
		n *= 10
	}
	return n
}
