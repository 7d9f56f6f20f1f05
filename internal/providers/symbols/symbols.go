// Package symbols provides the SYMBOLS provider. A formula of the form
// "name = expr" defines name; every other formula that mentions name
// depends on it. The provider keeps one DEPENDENCY relationship from each
// definition to each formula using it, and removes relationships that no
// longer hold.
package symbols

import (
	"context"
	"regexp"
	"slices"

	"github.com/custodia-labs/mathnb/internal/core/domain"
	"github.com/custodia-labs/mathnb/internal/core/ports/driven"
)

// Source is the provider's source name.
const Source domain.StyleSource = "SYMBOLS"

// Verify interface compliance.
var _ driven.Provider = (*Provider)(nil)

var (
	definitionRe = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*=\s*([^=].*)?$`)
	identifierRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
)

// Factory returns the provider factory.
func Factory() driven.ProviderFactory {
	return func(reader driven.NotebookReader) (driven.Provider, error) {
		return New(reader), nil
	}
}

// Provider maintains definition-to-use relationships.
type Provider struct {
	reader driven.NotebookReader
}

// New creates the provider for one notebook.
func New(reader driven.NotebookReader) *Provider {
	return &Provider{reader: reader}
}

// Source returns SYMBOLS.
func (p *Provider) Source() domain.StyleSource {
	return Source
}

// Parse splits formula text into the name it defines, if any, and the
// names it uses. A definition does not use its own name.
func Parse(text string) (defines string, uses []string) {
	body := text
	if m := definitionRe.FindStringSubmatch(text); m != nil {
		defines, body = m[1], m[2]
	}
	for _, id := range identifierRe.FindAllString(body, -1) {
		if id != defines && !slices.Contains(uses, id) {
			uses = append(uses, id)
		}
	}
	return defines, uses
}

// edge is a wanted dependency.
type edge struct {
	from, to domain.StyleID
}

// OnChanges recomputes the dependency graph when top-level formulas were
// added, edited, converted, moved or removed.
func (p *Provider) OnChanges(_ context.Context, changes []domain.Change) ([]domain.ChangeRequest, error) {
	if !p.relevant(changes) {
		return nil, nil
	}

	formulas, err := p.reader.FindStyles(domain.StylePattern{Role: domain.RoleFormula, Type: domain.TypeExpr}, 0)
	if err != nil {
		return nil, err
	}

	definitions := make(map[string][]domain.StyleID)
	uses := make(map[domain.StyleID][]string, len(formulas))
	for _, f := range formulas {
		text, _ := domain.PayloadText(f.Data)
		name, used := Parse(text)
		if name != "" {
			definitions[name] = append(definitions[name], f.ID)
		}
		uses[f.ID] = used
	}

	var want []edge
	for _, f := range formulas {
		for _, name := range uses[f.ID] {
			for _, def := range definitions[name] {
				if def != f.ID {
					want = append(want, edge{from: def, to: f.ID})
				}
			}
		}
	}

	existing := p.reader.FindRelationships(domain.RelationshipPattern{Role: domain.RelationshipDependency, Source: Source})
	have := make(map[edge]bool, len(existing))
	var reqs []domain.ChangeRequest
	for _, r := range existing {
		e := edge{from: r.FromID, to: r.ToID}
		if have[e] || !slices.Contains(want, e) {
			reqs = append(reqs, domain.DeleteRelationship{ID: r.ID})
			continue
		}
		have[e] = true
	}
	for _, e := range want {
		if have[e] {
			continue
		}
		have[e] = true
		reqs = append(reqs, domain.InsertRelationship{
			FromID: e.from,
			ToID:   e.to,
			Props:  domain.RelationshipProps{Role: domain.RelationshipDependency},
		})
	}
	return reqs, nil
}

// relevant reports whether changes touch a top-level style.
func (p *Provider) relevant(changes []domain.Change) bool {
	for _, c := range changes {
		switch ch := c.(type) {
		case domain.StyleInserted:
			if ch.Style.IsTopLevel() {
				return true
			}
		case domain.StyleChanged:
			if ch.Style.IsTopLevel() {
				return true
			}
		case domain.StyleDeleted:
			if ch.Style.IsTopLevel() {
				return true
			}
		case domain.StyleConverted, domain.StyleMoved:
			return true
		}
	}
	return false
}

// UseTool does nothing; the provider owns no styles.
func (p *Provider) UseTool(context.Context, *domain.Style) ([]domain.ChangeRequest, error) {
	return nil, nil
}

// Close does nothing.
func (p *Provider) Close() error {
	return nil
}
