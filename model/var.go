package model

import "fmt"

// VarFamily is a named, possibly indexed, set of variables declared on one
// block. A derivative family carries a link to the family it differentiates.
type VarFamily struct {
	name    string
	block   *Block
	time    *TimeDomain
	state   *VarFamily
	members map[Index]*Var
	order   []*Var
}

func (f *VarFamily) Name() string         { return f.name }
func (f *VarFamily) Block() *Block        { return f.block }
func (f *VarFamily) Time() *TimeDomain    { return f.time }
func (f *VarFamily) IsDerivative() bool   { return f.state != nil }
func (f *VarFamily) StateFamily() *VarFamily {
	return f.state
}

// At returns the member at ix, or nil
func (f *VarFamily) At(ix Index) *Var { return f.members[ix] }

// Scalar returns the single member of an unindexed family
func (f *VarFamily) Scalar() *Var { return f.members[NoIndex] }

// Members returns the members in declaration order
func (f *VarFamily) Members() []*Var {
	out := make([]*Var, len(f.order))
	copy(out, f.order)
	return out
}

func (f *VarFamily) add(ix Index) *Var {
	if ix.Timed && (f.time == nil || !f.time.Contains(ix.Time)) {
		panic(fmt.Sprintf("variable %s: index %v is not in the family time domain", f.name, ix))
	}
	if _, dup := f.members[ix]; dup {
		panic(fmt.Sprintf("variable %s%s declared twice", f.name, ix))
	}
	v := &Var{family: f, index: ix}
	v.id = f.block.model.register(v)
	f.members[ix] = v
	f.order = append(f.order, v)
	f.block.members = append(f.block.members, v)
	return v
}

// Var is a single decision variable. Its value is optional until assigned.
type Var struct {
	id      ComponentID
	family  *VarFamily
	index   Index
	value   float64
	defined bool
	fixed   bool
}

func (v *Var) ID() ComponentID     { return v.id }
func (v *Var) Kind() Kind          { return KindVariable }
func (v *Var) Index() Index        { return v.index }
func (v *Var) Parent() *Block      { return v.family.block }
func (v *Var) Family() *VarFamily  { return v.family }
func (v *Var) LocalName() string   { return v.family.name + v.index.String() }
func (v *Var) Name() string        { return joinName(v.family.block, v.LocalName()) }
func (v *Var) IsDerivative() bool  { return v.family.state != nil }
func (v *Var) IsFixed() bool       { return v.fixed }
func (v *Var) HasValue() bool      { return v.defined }
func (v *Var) Fix()                { v.fixed = true }
func (v *Var) Unfix()              { v.fixed = false }
func (v *Var) ClearValue()         { v.value, v.defined = 0, false }

func (v *Var) Time() *TimeDomain {
	if v.index.Timed {
		return v.family.time
	}
	return nil
}

// Value returns the current value, 0 when undefined
func (v *Var) Value() float64 { return v.value }

func (v *Var) SetValue(x float64) {
	v.value = x
	v.defined = true
}

// FixAt assigns x and fixes the variable
func (v *Var) FixAt(x float64) {
	v.SetValue(x)
	v.fixed = true
}

// StateVar returns the differential variable paired with a derivative at the
// same index, nil for non-derivative variables
func (v *Var) StateVar() *Var {
	if v.family.state == nil {
		return nil
	}
	return v.family.state.At(v.index)
}

func (v *Var) String() string {
	if !v.defined {
		return v.Name() + "=None"
	}
	return fmt.Sprintf("%s=%g", v.Name(), v.value)
}
