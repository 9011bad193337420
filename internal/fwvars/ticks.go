package fwvars

import "strconv"

// Ticks records a monotonic tick counter into the telemetry variables
// named by spec.md §4.2 (LoaderTicksInit, LoaderTicksStartMenu,
// LoaderTicksExec): a CPU time-stamp on platforms that expose one, zero
// otherwise.
type Ticks struct {
	store *Store
	now   func() uint64
}

// NewTicks returns a Ticks helper backed by store. now is the monotonic
// clock function; pass nil to always record zero, matching spec.md
// §4.2's "zero otherwise" fallback for platforms with no time-stamp
// counter.
func NewTicks(store *Store, now func() uint64) *Ticks {
	return &Ticks{store: store, now: now}
}

// Record writes the current tick value to name as decimal text.
func (t *Ticks) Record(name string) error {
	var n uint64
	if t.now != nil {
		n = t.now()
	}
	return t.store.Set(name, strconv.FormatUint(n, 10), false)
}
