package model

import "strings"

// TimeOf returns the point of td indexing c, either directly or through an
// enclosing block
func TimeOf(c Component, td *TimeDomain) (float64, bool) {
	if c.Time() == td && c.Index().Timed {
		return c.Index().Time, true
	}
	for blk := c.Parent(); blk != nil; blk = blk.parent {
		if blk.Time() == td && blk.index.Timed {
			return blk.index.Time, true
		}
	}
	return 0, false
}

// IndexedBy reports whether c or any enclosing block below base is indexed
// by td
func IndexedBy(base *Block, c Component, td *TimeDomain) bool {
	if c.Time() == td && c.Index().Timed {
		return true
	}
	for blk := c.Parent(); blk != nil && blk != base; blk = blk.parent {
		if blk.Time() == td && blk.index.Timed {
			return true
		}
	}
	return false
}

// SlicePath names c relative to base with every index position over td
// replaced by "*", e.g. outlet[*].flow or c[*,A]. Variables at different
// points of the same time slice share a slice path.
func SlicePath(base *Block, c Component, td *TimeDomain) string {
	var parts []string
	parts = append(parts, localSlice(c, td))
	for blk := c.Parent(); blk != nil && blk != base; blk = blk.parent {
		parts = append(parts, localSlice(blk, td))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

func localSlice(c Component, td *TimeDomain) string {
	ix := c.Index()
	var name string
	switch x := c.(type) {
	case *Var:
		name = x.family.name
	case *Constraint:
		name = x.family.name
	case *Block:
		name = x.name
	}
	if ix.Timed && c.Time() == td {
		return name + ix.wildcard()
	}
	return name + ix.String()
}

// VarsAt maps the slice path of every variable below base that is indexed
// at point t of td to the variable
func VarsAt(base *Block, td *TimeDomain, t float64) map[string]*Var {
	out := make(map[string]*Var)
	base.Walk(func(c Component) bool {
		switch x := c.(type) {
		case *Block:
			if x.Time() == td && x.index.Timed && x.index.Time != t {
				return false
			}
		case *Var:
			if tv, ok := TimeOf(x, td); ok && tv == t {
				out[SlicePath(base, x, td)] = x
			}
		}
		return true
	})
	return out
}
