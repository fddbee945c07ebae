package model

import "fmt"

// Model owns a tree of blocks and assigns every component its handle
type Model struct {
	root  *Block
	comps []Component
}

// New creates a model whose root block is called name
func New(name string) *Model {
	m := &Model{}
	m.root = newBlock(m, nil, nil, name, NoIndex)
	return m
}

func (m *Model) Root() *Block { return m.root }

// Component resolves a handle, nil if it was not issued by this model
func (m *Model) Component(id ComponentID) Component {
	if id < 0 || int(id) >= len(m.comps) {
		return nil
	}
	return m.comps[id]
}

func (m *Model) NumComponents() int { return len(m.comps) }

func (m *Model) register(c Component) ComponentID {
	id := ComponentID(len(m.comps))
	m.comps = append(m.comps, c)
	return id
}

// BlockFamily is a named, possibly time-indexed, set of sub-blocks
type BlockFamily struct {
	name    string
	parent  *Block
	time    *TimeDomain
	members map[Index]*Block
	order   []*Block
}

func (f *BlockFamily) Name() string      { return f.name }
func (f *BlockFamily) Parent() *Block    { return f.parent }
func (f *BlockFamily) Time() *TimeDomain { return f.time }

// At returns the member at ix, or nil
func (f *BlockFamily) At(ix Index) *Block { return f.members[ix] }

// Members returns the members in declaration order
func (f *BlockFamily) Members() []*Block {
	out := make([]*Block, len(f.order))
	copy(out, f.order)
	return out
}

// Block is the container variant of Component
type Block struct {
	id      ComponentID
	model   *Model
	parent  *Block
	family  *BlockFamily
	name    string
	index   Index
	active  bool
	members []Component

	varFams   map[string]*VarFamily
	conFams   map[string]*ConFamily
	blockFams map[string]*BlockFamily
}

func newBlock(m *Model, parent *Block, fam *BlockFamily, name string, ix Index) *Block {
	b := &Block{
		model:     m,
		parent:    parent,
		family:    fam,
		name:      name,
		index:     ix,
		active:    true,
		varFams:   make(map[string]*VarFamily),
		conFams:   make(map[string]*ConFamily),
		blockFams: make(map[string]*BlockFamily),
	}
	b.id = m.register(b)
	return b
}

func (b *Block) ID() ComponentID   { return b.id }
func (b *Block) Kind() Kind        { return KindContainer }
func (b *Block) Index() Index      { return b.index }
func (b *Block) Parent() *Block    { return b.parent }
func (b *Block) Model() *Model     { return b.model }
func (b *Block) LocalName() string { return b.name + b.index.String() }
func (b *Block) Name() string      { return joinName(b.parent, b.LocalName()) }
func (b *Block) Active() bool      { return b.active }
func (b *Block) Activate()         { b.active = true }
func (b *Block) Deactivate()       { b.active = false }

func (b *Block) Time() *TimeDomain {
	if b.index.Timed && b.family != nil {
		return b.family.time
	}
	return nil
}

// EffectivelyActive reports whether b and every enclosing block are active
func (b *Block) EffectivelyActive() bool {
	for blk := b; blk != nil; blk = blk.parent {
		if !blk.active {
			return false
		}
	}
	return true
}

func (b *Block) claim(name string) {
	_, v := b.varFams[name]
	_, c := b.conFams[name]
	_, s := b.blockFams[name]
	if v || c || s {
		panic(fmt.Sprintf("block %s: component %s declared twice", b.Name(), name))
	}
}

// AddVar declares a scalar variable
func (b *Block) AddVar(name string) *Var {
	return b.AddVars(name, nil).Scalar()
}

// AddVars declares a variable family indexed by td (may be nil) and by the
// optional sub-index keys
func (b *Block) AddVars(name string, td *TimeDomain, keys ...string) *VarFamily {
	b.claim(name)
	f := &VarFamily{name: name, block: b, time: td, members: make(map[Index]*Var)}
	b.varFams[name] = f
	for _, ix := range indexSet(td, keys) {
		f.add(ix)
	}
	return f
}

// AddDerivative declares the time derivative of a time-indexed family. The
// derivative shares the index set of state.
func (b *Block) AddDerivative(name string, state *VarFamily) *VarFamily {
	if state == nil || state.time == nil {
		panic(fmt.Sprintf("block %s: derivative %s needs a time-indexed state family", b.Name(), name))
	}
	b.claim(name)
	f := &VarFamily{name: name, block: b, time: state.time, state: state, members: make(map[Index]*Var)}
	b.varFams[name] = f
	for _, sv := range state.order {
		f.add(sv.index)
	}
	return f
}

// AddConstraint declares a scalar constraint
func (b *Block) AddConstraint(name string, residual ResidualFunc, vars ...*Var) *Constraint {
	return b.AddConstraints(name, nil).Add(NoIndex, residual, vars...)
}

// AddConstraints declares an empty constraint family indexed by td (may be
// nil); members are added with ConFamily.Add
func (b *Block) AddConstraints(name string, td *TimeDomain) *ConFamily {
	b.claim(name)
	f := &ConFamily{name: name, block: b, time: td, members: make(map[Index]*Constraint)}
	b.conFams[name] = f
	return f
}

// AddBlock declares a scalar sub-block
func (b *Block) AddBlock(name string) *Block {
	return b.AddBlocks(name, nil).At(NoIndex)
}

// AddBlocks declares a sub-block family with one member per point of td
// (a single scalar member when td is nil)
func (b *Block) AddBlocks(name string, td *TimeDomain) *BlockFamily {
	b.claim(name)
	f := &BlockFamily{name: name, parent: b, time: td, members: make(map[Index]*Block)}
	b.blockFams[name] = f
	for _, ix := range indexSet(td, nil) {
		sub := newBlock(b.model, b, f, name, ix)
		f.members[ix] = sub
		f.order = append(f.order, sub)
		b.members = append(b.members, sub)
	}
	return f
}

func (b *Block) VarFamily(name string) *VarFamily     { return b.varFams[name] }
func (b *Block) ConFamily(name string) *ConFamily     { return b.conFams[name] }
func (b *Block) BlockFamily(name string) *BlockFamily { return b.blockFams[name] }

// Var returns the scalar variable called name, or nil
func (b *Block) Var(name string) *Var {
	if f := b.varFams[name]; f != nil {
		return f.Scalar()
	}
	return nil
}

// Sub returns the scalar sub-block called name, or nil
func (b *Block) Sub(name string) *Block {
	if f := b.blockFams[name]; f != nil {
		return f.At(NoIndex)
	}
	return nil
}

// Members returns the direct members in declaration order
func (b *Block) Members() []Component {
	out := make([]Component, len(b.members))
	copy(out, b.members)
	return out
}

// Walk visits every descendant of b depth first in declaration order. When fn
// returns false for a block its contents are skipped.
func (b *Block) Walk(fn func(c Component) bool) {
	for _, c := range b.members {
		descend := fn(c)
		if sub, ok := c.(*Block); ok && descend {
			sub.Walk(fn)
		}
	}
}

// Variables returns every variable below b
func (b *Block) Variables() []*Var {
	var out []*Var
	b.Walk(func(c Component) bool {
		if v, ok := c.(*Var); ok {
			out = append(out, v)
		}
		return true
	})
	return out
}

// Constraints returns every constraint below b regardless of activity
func (b *Block) Constraints() []*Constraint {
	var out []*Constraint
	b.Walk(func(c Component) bool {
		if con, ok := c.(*Constraint); ok {
			out = append(out, con)
		}
		return true
	})
	return out
}

// Blocks returns every sub-block below b
func (b *Block) Blocks() []*Block {
	var out []*Block
	b.Walk(func(c Component) bool {
		if sub, ok := c.(*Block); ok {
			out = append(out, sub)
		}
		return true
	})
	return out
}

// ActiveConstraints returns the constraints a solver sees when given b:
// active constraints not hidden by an inactive block between b and them
func (b *Block) ActiveConstraints() []*Constraint {
	if !b.active {
		return nil
	}
	var out []*Constraint
	b.Walk(func(c Component) bool {
		switch x := c.(type) {
		case *Block:
			return x.active
		case *Constraint:
			if x.active {
				out = append(out, x)
			}
		}
		return true
	})
	return out
}

func indexSet(td *TimeDomain, keys []string) []Index {
	var out []Index
	switch {
	case td == nil && len(keys) == 0:
		out = append(out, NoIndex)
	case td == nil:
		for _, k := range keys {
			out = append(out, Key(k))
		}
	case len(keys) == 0:
		for _, t := range td.points {
			out = append(out, At(t))
		}
	default:
		for _, t := range td.points {
			for _, k := range keys {
				out = append(out, AtKey(t, k))
			}
		}
	}
	return out
}
