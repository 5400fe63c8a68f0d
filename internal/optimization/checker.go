package optimization

import (
	"fmt"
	"strings"
)

// ConstraintChecker renders human-readable violation strings for a
// candidate. It never rejects candidates mid-search: searches keep
// themselves feasible by snapping into the box, and the checker runs only
// against a returned optimum. Performance targets and economic caps are the
// engine's post-check, not the checker's.
type ConstraintChecker struct {
	constraints Constraints
}

// NewConstraintChecker builds a checker over one run's constraints.
func NewConstraintChecker(c Constraints) *ConstraintChecker {
	return &ConstraintChecker{constraints: c}
}

// Check returns one violation per broken box or material constraint, box
// violations first in field-table order, then the three material fields.
// The order is deterministic so callers can assert on it.
func (cc *ConstraintChecker) Check(p DesignParameters) []string {
	var violations []string
	for _, f := range continuousFields {
		b := f.Bounds(cc.constraints)
		if b == nil {
			continue
		}
		if v := f.Get(p); v < b.Min || v > b.Max {
			violations = append(violations,
				fmt.Sprintf("%s %g outside [%g, %g]", f.Name, v, b.Min, b.Max))
		}
	}
	violations = appendMaterialViolation(violations, "anodeCatalyst", p.AnodeCatalyst, cc.constraints.AllowedAnodeCatalysts)
	violations = appendMaterialViolation(violations, "cathodeCatalyst", p.CathodeCatalyst, cc.constraints.AllowedCathodeCatalysts)
	violations = appendMaterialViolation(violations, "membraneType", p.MembraneType, cc.constraints.AllowedMembranes)
	return violations
}

// appendMaterialViolation skips unset fields: an absent material choice is
// not a violation, only a disallowed one is.
func appendMaterialViolation(violations []string, name, value string, allowed []string) []string {
	if value == "" || len(allowed) == 0 {
		return violations
	}
	for _, a := range allowed {
		if a == value {
			return violations
		}
	}
	return append(violations,
		fmt.Sprintf("%s %q not in allowed set [%s]", name, value, strings.Join(allowed, ", ")))
}
