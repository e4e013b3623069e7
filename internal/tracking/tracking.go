// Package tracking issues human-readable shipment codes for paid orders.
package tracking

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const prefix = "TRK"

// Generator derives codes shaped TRK-<YYYYMMDD>-<6 trailing epoch-millis digits>-<1000..9999>.
// Codes are display identifiers; two calls in the same millisecond can collide.
type Generator struct {
	Now  func() time.Time
	Rand func(n int) int
}

func NewGenerator() *Generator {
	return &Generator{Now: time.Now, Rand: rand.IntN}
}

func (g *Generator) Generate() string {
	now := time.Now
	if g != nil && g.Now != nil {
		now = g.Now
	}
	intn := rand.IntN
	if g != nil && g.Rand != nil {
		intn = g.Rand
	}
	return Format(now(), 1000+intn(9000))
}

// Format builds a code from an instant and a 4-digit suffix.
func Format(t time.Time, suffix int) string {
	millis := t.UnixMilli() % 1_000_000
	return fmt.Sprintf("%s-%s-%06d-%04d", prefix, t.Format("20060102"), millis, suffix)
}
