package initialize

import (
	"fmt"
	"sort"

	"github.com/notargets/DAEInit/model"
)

// StateBlock exposes the state variables of every member of an indexed
// collection of property blocks
type StateBlock interface {
	Keys() []model.Index
	StateVars(key model.Index) map[string]*model.VarFamily
}

type familyStateBlock struct {
	fam   *model.BlockFamily
	names []string
}

// NewStateBlock uses the variable families called names in each member of
// fam as its state variables
func NewStateBlock(fam *model.BlockFamily, names ...string) StateBlock {
	return &familyStateBlock{fam: fam, names: names}
}

func (sb *familyStateBlock) Keys() []model.Index {
	members := sb.fam.Members()
	keys := make([]model.Index, len(members))
	for i, b := range members {
		keys[i] = b.Index()
	}
	return keys
}

func (sb *familyStateBlock) StateVars(key model.Index) map[string]*model.VarFamily {
	b := sb.fam.At(key)
	if b == nil {
		return nil
	}
	out := make(map[string]*model.VarFamily, len(sb.names))
	for _, n := range sb.names {
		if f := b.VarFamily(n); f != nil {
			out[n] = f
		}
	}
	return out
}

// StateArgs holds values to fix state variables at, by variable name and
// then index label ("" for scalar variables)
type StateArgs map[string]map[string]float64

type StateFlagKey struct {
	Block model.Index
	Var   string
	Index model.Index
}

// StateFlags records whether each state variable was fixed before
// FixStateVars
type StateFlags map[StateFlagKey]bool

// FixStateVars fixes every unfixed state variable of blk, at the value from
// args when one is given for its name, otherwise at its current value
func FixStateVars(blk StateBlock, args StateArgs) (StateFlags, error) {
	if blk == nil {
		return nil, &ConfigurationError{Msg: "no state block"}
	}
	flags := make(StateFlags)
	for _, k := range blk.Keys() {
		vars := blk.StateVars(k)
		for _, n := range sortedNames(vars) {
			for _, v := range vars[n].Members() {
				flags[StateFlagKey{Block: k, Var: n, Index: v.Index()}] = v.IsFixed()
				if v.IsFixed() {
					continue
				}
				if guesses, ok := args[n]; ok {
					val, ok := guesses[v.Index().Label()]
					if !ok {
						return flags, &ConfigurationError{Msg: fmt.Sprintf(
							"indexes in state args do not agree with those of state variable %s", n)}
					}
					v.FixAt(val)
					continue
				}
				if !v.HasValue() {
					return flags, &ConfigurationError{Msg: fmt.Sprintf(
						"state variable %s has no value to fix at", v.Name())}
				}
				v.Fix()
			}
		}
	}
	return flags, nil
}

// RevertStateVars unfixes the state variables of blk that flags records as
// originally free
func RevertStateVars(blk StateBlock, flags StateFlags) error {
	if blk == nil {
		return &ConfigurationError{Msg: "no state block"}
	}
	for _, k := range blk.Keys() {
		vars := blk.StateVars(k)
		for _, n := range sortedNames(vars) {
			for _, v := range vars[n].Members() {
				was, ok := flags[StateFlagKey{Block: k, Var: n, Index: v.Index()}]
				if !ok {
					return &ConfigurationError{Msg: fmt.Sprintf(
						"flags do not match the indices of state block member %s", v.Name())}
				}
				if !was {
					v.Unfix()
				}
			}
		}
	}
	return nil
}

func sortedNames(vars map[string]*model.VarFamily) []string {
	names := make([]string, 0, len(vars))
	for n := range vars {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
