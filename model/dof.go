package model

// DegreesOfFreedom counts the distinct unfixed variables referenced by the
// active constraints of b, minus the number of those constraints
func DegreesOfFreedom(b *Block) int {
	cons := b.ActiveConstraints()
	return len(UnfixedVariables(cons)) - len(cons)
}

// UnfixedVariables returns the distinct unfixed variables referenced by cons,
// in first-reference order
func UnfixedVariables(cons []*Constraint) []*Var {
	seen := make(map[ComponentID]struct{})
	var out []*Var
	for _, c := range cons {
		for _, v := range c.vars {
			if v.fixed {
				continue
			}
			if _, ok := seen[v.id]; ok {
				continue
			}
			seen[v.id] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
