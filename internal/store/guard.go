package store

// fetchGuard discards late results. The epoch moves on every reset, and
// each fetch key carries its own sequence so only the newest fetch for a
// key is applied. Callers hold the container's mutex.
type fetchGuard struct {
	epoch   uint64
	pending int
	seq     map[string]uint64
}

func (g *fetchGuard) start(key string) (epoch, seq uint64) {
	if g.seq == nil {
		g.seq = map[string]uint64{}
	}
	g.pending++
	g.seq[key]++
	return g.epoch, g.seq[key]
}

// done settles a fetch started with start. current is false when the
// container was reset since; latest is false when a newer fetch for the
// same key was started.
func (g *fetchGuard) done(key string, epoch, seq uint64) (current, latest bool) {
	if epoch != g.epoch {
		return false, false
	}
	g.pending--
	return true, g.seq[key] == seq
}

func (g *fetchGuard) loading() bool {
	return g.pending > 0
}

func (g *fetchGuard) reset() {
	g.epoch++
	g.pending = 0
	g.seq = map[string]uint64{}
}
