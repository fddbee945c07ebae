// Package dynutil holds the time-slicing primitives used to initialize
// dynamic models: activity snapshots, deactivation at time points, derivative
// pairing and value copying between time points.
package dynutil

import "github.com/notargets/DAEInit/model"

// ActivitySnapshot records whether each constraint and block was active
type ActivitySnapshot map[model.ComponentID]bool

// SnapshotActivity records the active flag of every constraint and block below
// b, independent of time indexing
func SnapshotActivity(b *model.Block) ActivitySnapshot {
	snap := make(ActivitySnapshot)
	b.Walk(func(c model.Component) bool {
		if a, ok := c.(model.Activatable); ok {
			snap[a.ID()] = a.Active()
		}
		return true
	})
	return snap
}

// WasActive reports the recorded flag, false for components never recorded
func (s ActivitySnapshot) WasActive(c model.Activatable) bool {
	return s[c.ID()]
}

// Changed returns the components below b whose active flag differs from the
// snapshot
func (s ActivitySnapshot) Changed(b *model.Block) []model.Activatable {
	var out []model.Activatable
	b.Walk(func(c model.Component) bool {
		a, ok := c.(model.Activatable)
		if !ok {
			return true
		}
		if was, recorded := s[a.ID()]; !recorded || was != a.Active() {
			out = append(out, a)
		}
		return true
	})
	return out
}
