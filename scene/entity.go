package scene

import "fmt"

// Entity is a generational handle. A despawned slot is reused with a bumped
// generation so stale handles never alias a live entity.
type Entity struct {
	Index      uint32
	Generation uint32
}

func (e Entity) String() string {
	return fmt.Sprintf("%dv%d", e.Index, e.Generation)
}

// Entities allocates and recycles entity handles.
type Entities struct {
	generations []uint32
	alive       []bool
	free        []uint32
}

func (a *Entities) Spawn() Entity {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		a.alive[idx] = true
		return Entity{Index: idx, Generation: a.generations[idx]}
	}
	idx := uint32(len(a.generations))
	a.generations = append(a.generations, 0)
	a.alive = append(a.alive, true)
	return Entity{Index: idx}
}

// Despawn frees e. It reports false if e was already stale.
func (a *Entities) Despawn(e Entity) bool {
	if !a.Alive(e) {
		return false
	}
	a.alive[e.Index] = false
	a.generations[e.Index]++
	a.free = append(a.free, e.Index)
	return true
}

func (a *Entities) Alive(e Entity) bool {
	return int(e.Index) < len(a.generations) &&
		a.alive[e.Index] &&
		a.generations[e.Index] == e.Generation
}

func (a *Entities) Len() int {
	return len(a.generations) - len(a.free)
}
