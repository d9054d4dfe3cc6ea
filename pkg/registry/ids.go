package registry

import "sync"

// IDGenerator hands out monotonically increasing instance ids, one
// sequence per operator kind. Temp file names embed these ids, so two live
// operators of the same kind never share a file.
type IDGenerator struct {
	mu   sync.Mutex
	next map[string]int64
}

func NewIDGenerator() *IDGenerator {
	return &IDGenerator{next: make(map[string]int64)}
}

// Next returns the next id for kind, starting at 1.
func (g *IDGenerator) Next(kind string) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.next[kind]++
	return g.next[kind]
}
