// Package notation provides the NOTATION provider: every EXPR formula gets
// a PRESENTATION child with a LaTeX rendering, produced by a list of
// regular-expression rewrites declared in YAML.
package notation

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/mathnb/internal/core/domain"
	"github.com/custodia-labs/mathnb/internal/core/ports/driven"
	"github.com/custodia-labs/mathnb/internal/core/rules"
)

// Source is the provider's source name.
const Source domain.StyleSource = "NOTATION"

// RuleLatex names the rendering rule.
const RuleLatex = "latex"

//go:embed rules.yaml
var defaultRules []byte

// Rewrite is one regular-expression substitution.
type Rewrite struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
	Replace string `yaml:"replace"`

	re *regexp.Regexp
}

// Rules is an ordered list of rewrites.
type Rules struct {
	Rewrites []Rewrite `yaml:"rewrites"`
}

// ParseRules decodes and compiles rewrites from YAML.
func ParseRules(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse notation rules: %w", err)
	}
	for i := range r.Rewrites {
		rw := &r.Rewrites[i]
		if rw.Pattern == "" {
			return nil, fmt.Errorf("%w: notation rewrite %d (%s) has no pattern", domain.ErrInvalidInput, i, rw.Name)
		}
		re, err := regexp.Compile(rw.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: notation rewrite %s: %w", domain.ErrInvalidInput, rw.Name, err)
		}
		rw.re = re
	}
	return &r, nil
}

// DefaultRules returns the built-in rewrites.
func DefaultRules() (*Rules, error) {
	return ParseRules(defaultRules)
}

// Render applies every rewrite in order.
func (r *Rules) Render(text string) string {
	for _, rw := range r.Rewrites {
		text = rw.re.ReplaceAllString(text, rw.Replace)
	}
	return strings.Join(strings.Fields(text), " ")
}

// Factory returns a provider factory rendering with rules.
func Factory(r *Rules) driven.ProviderFactory {
	return func(reader driven.NotebookReader) (driven.Provider, error) {
		return New(reader, r)
	}
}

// New creates the provider for one notebook.
func New(reader driven.NotebookReader, r *Rules) (*rules.Table, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: notation rules required", domain.ErrInvalidInput)
	}
	return rules.New(Source, reader, []rules.Rule{{
		Name:    RuleLatex,
		Parent:  domain.StylePattern{Role: domain.RoleFormula, Type: domain.TypeExpr},
		Role:    domain.RolePresentation,
		Type:    domain.TypeLatex,
		Compute: r.compute,
	}})
}

func (r *Rules) compute(data domain.Payload) (domain.Payload, error) {
	text, _ := domain.PayloadText(data)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return domain.TextPayload(r.Render(text)), nil
}
