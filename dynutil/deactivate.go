package dynutil

import (
	"fmt"

	"github.com/notargets/DAEInit/model"
)

// DeactivationRecord lists, per time point, the components a deactivation
// pass switched off there
type DeactivationRecord map[float64][]model.Activatable

// DeactivateModelAt deactivates every active constraint and block below b
// indexed by td at one of points. The contents of a time-indexed block are
// governed by the block and are not visited.
func DeactivateModelAt(b *model.Block, td *model.TimeDomain, points ...float64) (DeactivationRecord, error) {
	want := make(map[float64]bool, len(points))
	for _, t := range points {
		if !td.Contains(t) {
			return nil, fmt.Errorf("deactivate %s: %g is not a point of %s", b.Name(), t, td.Name())
		}
		want[t] = true
	}
	record := make(DeactivationRecord, len(points))
	for _, t := range points {
		record[t] = nil
	}
	b.Walk(func(c model.Component) bool {
		a, ok := c.(model.Activatable)
		if !ok || a.Time() != td {
			return true
		}
		t := a.Index().Time
		if want[t] && a.Active() {
			a.Deactivate()
			record[t] = append(record[t], a)
		}
		return a.Kind() != model.KindContainer
	})
	return record, nil
}

// DeactivateExceptAt deactivates the model at every point of td not in keep
func DeactivateExceptAt(b *model.Block, td *model.TimeDomain, keep ...float64) (DeactivationRecord, error) {
	skip := make(map[float64]bool, len(keep))
	for _, t := range keep {
		skip[t] = true
	}
	var points []float64
	for _, t := range td.Points() {
		if !skip[t] {
			points = append(points, t)
		}
	}
	return DeactivateModelAt(b, td, points...)
}

// Merge folds other into r
func (r DeactivationRecord) Merge(other DeactivationRecord) {
	for t, comps := range other {
		r[t] = append(r[t], comps...)
	}
}

// ReactivateAt reactivates the components recorded at points that the
// snapshot marks as originally active
func (r DeactivationRecord) ReactivateAt(snap ActivitySnapshot, points ...float64) {
	for _, t := range points {
		for _, c := range r[t] {
			if snap.WasActive(c) {
				c.Activate()
			}
		}
	}
}

// DeactivateAt switches the components recorded at points off again
func (r DeactivationRecord) DeactivateAt(points ...float64) {
	for _, t := range points {
		for _, c := range r[t] {
			c.Deactivate()
		}
	}
}

// ReactivateAll reactivates every recorded, originally active component
func (r DeactivationRecord) ReactivateAll(snap ActivitySnapshot) {
	for _, comps := range r {
		for _, c := range comps {
			if snap.WasActive(c) {
				c.Activate()
			}
		}
	}
}

// Len is the number of recorded components over all points
func (r DeactivationRecord) Len() int {
	n := 0
	for _, comps := range r {
		n += len(comps)
	}
	return n
}

// DeactivateConstraintsUnindexedBy deactivates the active constraints below b
// that are indexed by td neither directly nor through an enclosing block and
// returns them
func DeactivateConstraintsUnindexedBy(b *model.Block, td *model.TimeDomain) []*model.Constraint {
	var out []*model.Constraint
	b.Walk(func(c model.Component) bool {
		switch x := c.(type) {
		case *model.Block:
			return x.Time() != td
		case *model.Constraint:
			if x.Time() != td && x.Active() {
				x.Deactivate()
				out = append(out, x)
			}
		}
		return true
	})
	return out
}

// FixVarsUnindexedBy fixes the unfixed variables below b that are indexed by
// td neither directly nor through an enclosing block and returns them
func FixVarsUnindexedBy(b *model.Block, td *model.TimeDomain) []*model.Var {
	var out []*model.Var
	b.Walk(func(c model.Component) bool {
		switch x := c.(type) {
		case *model.Block:
			return x.Time() != td
		case *model.Var:
			if x.Time() != td && !x.IsFixed() {
				x.Fix()
				out = append(out, x)
			}
		}
		return true
	})
	return out
}
