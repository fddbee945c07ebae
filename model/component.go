package model

import (
	"strconv"
	"strings"
)

// ComponentID is the stable handle a Model assigns to every component at
// construction. Snapshot tables are keyed by it.
type ComponentID int

// Kind tags the component variant
type Kind uint8

const (
	KindVariable Kind = iota
	KindConstraint
	KindContainer
)

func (k Kind) String() string {
	switch k {
	case KindVariable:
		return "variable"
	case KindConstraint:
		return "constraint"
	case KindContainer:
		return "container"
	}
	return "unknown"
}

// Index locates a member of an indexed family. Timed members are indexed by
// the time domain of their family, Key is any remaining sub-index.
type Index struct {
	Time  float64
	Timed bool
	Key   string
}

// NoIndex is the index of scalar components
var NoIndex = Index{}

func At(t float64) Index             { return Index{Time: t, Timed: true} }
func AtKey(t float64, k string) Index { return Index{Time: t, Timed: true, Key: k} }
func Key(k string) Index             { return Index{Key: k} }

// Label renders the index without brackets ("", "0.5", "A", "0.5,A")
func (ix Index) Label() string {
	return ix.label(false)
}

func (ix Index) String() string {
	if l := ix.Label(); l != "" {
		return "[" + l + "]"
	}
	return ""
}

// wildcard renders the index with the time position replaced by "*"
func (ix Index) wildcard() string {
	if l := ix.label(true); l != "" {
		return "[" + l + "]"
	}
	return ""
}

func (ix Index) label(wild bool) string {
	parts := make([]string, 0, 2)
	if ix.Timed {
		if wild {
			parts = append(parts, "*")
		} else {
			parts = append(parts, strconv.FormatFloat(ix.Time, 'g', -1, 64))
		}
	}
	if ix.Key != "" {
		parts = append(parts, ix.Key)
	}
	return strings.Join(parts, ",")
}

// Component is implemented by *Var, *Constraint and *Block
type Component interface {
	ID() ComponentID
	Kind() Kind
	Name() string      // Full structural path, e.g. fs.tank.outlet[0.5].flow
	LocalName() string // Family name plus index, e.g. flow, h[0.5]
	Index() Index
	Parent() *Block
	Time() *TimeDomain // Domain indexing this component directly, nil if none
}

// Activatable components can be switched in and out of the model
type Activatable interface {
	Component
	Active() bool
	Activate()
	Deactivate()
}

// Fixable components can be held at their current value
type Fixable interface {
	Component
	IsFixed() bool
	Fix()
	Unfix()
}

func IsActivatable(c Component) bool {
	_, ok := c.(Activatable)
	return ok
}

func IsFixable(c Component) bool {
	_, ok := c.(Fixable)
	return ok
}

func joinName(parent *Block, local string) string {
	if parent == nil {
		return local
	}
	return parent.Name() + "." + local
}
