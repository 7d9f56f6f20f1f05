package rules

import (
	"context"
	"fmt"

	"github.com/custodia-labs/mathnb/internal/core/domain"
)

// ComputeFunc derives a child payload from the parent's payload.
// A nil payload means the child should not exist.
type ComputeFunc func(data domain.Payload) (domain.Payload, error)

// AsyncComputeFunc is the long-running form of ComputeFunc. It may call
// external services and must honour ctx.
type AsyncComputeFunc func(ctx context.Context, data domain.Payload) (domain.Payload, error)

// Rule derives one child style from a matching parent style.
type Rule struct {
	// Name identifies the rule. It is the subrole of error children.
	Name string

	// Parent selects the styles the rule applies to.
	Parent domain.StylePattern

	// Role, Subrole and Type describe the derived child.
	Role    domain.StyleRole
	Subrole domain.StyleSubrole
	Type    domain.StyleType

	// Exactly one of Compute and ComputeAsync must be set.
	Compute      ComputeFunc
	ComputeAsync AsyncComputeFunc
}

// Validate checks that the rule is usable.
func (r Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: rule without name", domain.ErrInvalidInput)
	}
	if r.Role == "" || r.Type == "" {
		return fmt.Errorf("%w: rule %s: result role and type required", domain.ErrInvalidInput, r.Name)
	}
	if (r.Compute == nil) == (r.ComputeAsync == nil) {
		return fmt.Errorf("%w: rule %s: exactly one of Compute and ComputeAsync required", domain.ErrInvalidInput, r.Name)
	}
	return nil
}

// async reports whether the rule runs on the long-running path.
func (r Rule) async() bool {
	return r.ComputeAsync != nil
}

// shape is the role, subrole and type of a derived child.
type shape struct {
	role    domain.StyleRole
	subrole domain.StyleSubrole
	typ     domain.StyleType
}

func (r Rule) shape() shape {
	return shape{role: r.Role, subrole: r.Subrole, typ: r.Type}
}

// errorShape is the shape of the child recording a failed evaluation.
func (r Rule) errorShape() shape {
	return shape{role: domain.RoleEvaluationError, subrole: domain.StyleSubrole(r.Name), typ: domain.TypeError}
}
