package domain

import "regexp"

// StylePattern selects styles. Zero-valued fields match anything.
type StylePattern struct {
	// Role matches exactly. Ignored when RoleRegexp is set.
	Role StyleRole

	// RoleRegexp matches the role against a regular expression.
	RoleRegexp *regexp.Regexp

	Subrole StyleSubrole
	Type    StyleType
	Source  StyleSource

	// NotSource excludes styles from this source.
	NotSource StyleSource

	// Recursive searches the whole subtree instead of immediate children.
	Recursive bool
}

// Matches reports whether s satisfies every set field of the pattern.
// Recursive does not affect matching of a single style.
func (p StylePattern) Matches(s *Style) bool {
	if p.RoleRegexp != nil {
		if !p.RoleRegexp.MatchString(string(s.Role)) {
			return false
		}
	} else if p.Role != "" && p.Role != s.Role {
		return false
	}
	if p.Subrole != "" && p.Subrole != s.Subrole {
		return false
	}
	if p.Type != "" && p.Type != s.Type {
		return false
	}
	if p.Source != "" && p.Source != s.Source {
		return false
	}
	if p.NotSource != "" && p.NotSource == s.Source {
		return false
	}
	return true
}

// RelationshipPattern selects relationships. Zero-valued fields match anything.
type RelationshipPattern struct {
	// StyleID matches relationships with this style at either end.
	StyleID StyleID

	FromID StyleID
	ToID   StyleID
	Role   RelationshipRole
	Source StyleSource
}

// Matches reports whether r satisfies every set field of the pattern.
func (p RelationshipPattern) Matches(r *Relationship) bool {
	if p.StyleID != 0 && !r.Touches(p.StyleID) {
		return false
	}
	if p.FromID != 0 && p.FromID != r.FromID {
		return false
	}
	if p.ToID != 0 && p.ToID != r.ToID {
		return false
	}
	if p.Role != "" && p.Role != r.Role {
		return false
	}
	if p.Source != "" && p.Source != r.Source {
		return false
	}
	return true
}
