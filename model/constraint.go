package model

import "fmt"

// ResidualFunc evaluates body - rhs of an equality constraint from the
// current variable values
type ResidualFunc func() float64

// ConFamily is a named, possibly indexed, set of equality constraints
type ConFamily struct {
	name    string
	block   *Block
	time    *TimeDomain
	members map[Index]*Constraint
	order   []*Constraint
}

func (f *ConFamily) Name() string      { return f.name }
func (f *ConFamily) Block() *Block     { return f.block }
func (f *ConFamily) Time() *TimeDomain { return f.time }

// At returns the member at ix, or nil
func (f *ConFamily) At(ix Index) *Constraint { return f.members[ix] }

// Members returns the members in declaration order
func (f *ConFamily) Members() []*Constraint {
	out := make([]*Constraint, len(f.order))
	copy(out, f.order)
	return out
}

// Add declares the member at ix. vars lists every variable the residual reads.
func (f *ConFamily) Add(ix Index, residual ResidualFunc, vars ...*Var) *Constraint {
	if ix.Timed && (f.time == nil || !f.time.Contains(ix.Time)) {
		panic(fmt.Sprintf("constraint %s: index %v is not in the family time domain", f.name, ix))
	}
	if _, dup := f.members[ix]; dup {
		panic(fmt.Sprintf("constraint %s%s declared twice", f.name, ix))
	}
	if residual == nil {
		panic(fmt.Sprintf("constraint %s%s has no residual", f.name, ix))
	}
	c := &Constraint{family: f, index: ix, residual: residual, active: true}
	c.vars = append(c.vars, vars...)
	c.id = f.block.model.register(c)
	f.members[ix] = c
	f.order = append(f.order, c)
	f.block.members = append(f.block.members, c)
	return c
}

// Constraint is a single equality residual(x) = 0
type Constraint struct {
	id       ComponentID
	family   *ConFamily
	index    Index
	vars     []*Var
	residual ResidualFunc
	active   bool
}

func (c *Constraint) ID() ComponentID    { return c.id }
func (c *Constraint) Kind() Kind         { return KindConstraint }
func (c *Constraint) Index() Index       { return c.index }
func (c *Constraint) Parent() *Block     { return c.family.block }
func (c *Constraint) Family() *ConFamily { return c.family }
func (c *Constraint) LocalName() string  { return c.family.name + c.index.String() }
func (c *Constraint) Name() string       { return joinName(c.family.block, c.LocalName()) }
func (c *Constraint) Active() bool       { return c.active }
func (c *Constraint) Activate()          { c.active = true }
func (c *Constraint) Deactivate()        { c.active = false }
func (c *Constraint) Residual() float64  { return c.residual() }

func (c *Constraint) Time() *TimeDomain {
	if c.index.Timed {
		return c.family.time
	}
	return nil
}

// Vars returns the variables referenced by the residual
func (c *Constraint) Vars() []*Var {
	out := make([]*Var, len(c.vars))
	copy(out, c.vars)
	return out
}

// EffectivelyActive reports whether the constraint and all of its enclosing
// blocks are active
func (c *Constraint) EffectivelyActive() bool {
	return c.active && c.family.block.EffectivelyActive()
}
