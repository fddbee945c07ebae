// Package network connects blocks through ports so that values can be
// passed from one unit to the next ahead of its initialization.
package network

import (
	"fmt"

	"github.com/notargets/DAEInit/initialize"
	"github.com/notargets/DAEInit/model"
)

// Port is a named group of variable families exposed by a block
type Port struct {
	name    string
	members map[string]*model.VarFamily
	order   []string
}

func NewPort(name string) *Port {
	return &Port{name: name, members: make(map[string]*model.VarFamily)}
}

func (p *Port) Name() string { return p.name }

// Add exposes fam under name. It panics on a duplicate name.
func (p *Port) Add(name string, fam *model.VarFamily) *Port {
	if _, dup := p.members[name]; dup {
		panic(fmt.Sprintf("port %s: member %s added twice", p.name, name))
	}
	p.members[name] = fam
	p.order = append(p.order, name)
	return p
}

// Member returns the family exposed under name, or nil
func (p *Port) Member(name string) *model.VarFamily { return p.members[name] }

// Names returns the member names in the order they were added
func (p *Port) Names() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Arc is a directional connection between two ports
type Arc struct {
	Name        string
	Source      *Port
	Destination *Port
}

type Direction uint8

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

// PropagateState copies the values of every member of one end of arc into
// the matching, unfixed members of the other end. Forward copies from the
// source to the destination.
func PropagateState(arc *Arc, dir Direction) error {
	if arc == nil || arc.Source == nil || arc.Destination == nil {
		return &initialize.ConfigurationError{Msg: "arc must connect two ports"}
	}
	var from, to *Port
	switch dir {
	case Forward:
		from, to = arc.Source, arc.Destination
	case Backward:
		from, to = arc.Destination, arc.Source
	default:
		return &initialize.ConfigurationError{Msg: fmt.Sprintf(
			"arc %s: unexpected direction %s, must be forward or backward", arc.Name, dir)}
	}

	for _, name := range from.order {
		src, dst := from.members[name], to.members[name]
		if dst == nil {
			return &initialize.ConfigurationError{Msg: fmt.Sprintf(
				"arc %s: port %s has no member %s", arc.Name, to.name, name)}
		}
		for _, sv := range src.Members() {
			dv := dst.At(sv.Index())
			if dv == nil {
				return &initialize.ConfigurationError{Msg: fmt.Sprintf(
					"arc %s: %s.%s has no index %s", arc.Name, to.name, name, sv.Index())}
			}
			if dv.IsFixed() {
				continue
			}
			if sv.HasValue() {
				dv.SetValue(sv.Value())
			} else {
				dv.ClearValue()
			}
		}
	}
	return nil
}
