package usecase

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// OrderNumberGenerator arma identificadores ORD-<YYYYMMDD>-<NNNN> con la fecha
// UTC. El sufijo es aleatorio en [1000, 9999]; la unicidad queda a cargo del
// llamador y del índice de la base.
type OrderNumberGenerator struct {
	Now  func() time.Time
	Rand func(n int) int
}

func NewOrderNumberGenerator() *OrderNumberGenerator {
	return &OrderNumberGenerator{Now: time.Now, Rand: rand.IntN}
}

func (g *OrderNumberGenerator) Generate() string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	intn := rand.IntN
	if g.Rand != nil {
		intn = g.Rand
	}
	return fmt.Sprintf("ORD-%s-%04d", now().UTC().Format("20060102"), 1000+intn(9000))
}
