package rules

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/mathnb/internal/core/domain"
	"github.com/custodia-labs/mathnb/internal/core/ports/driven"
	"github.com/custodia-labs/mathnb/internal/logger"
)

// Verify interface compliance.
var _ driven.Provider = (*Table)(nil)

// ToolFunc handles tool invocation on a style owned by the table's source.
type ToolFunc func(ctx context.Context, reader driven.NotebookReader, style *domain.Style) ([]domain.ChangeRequest, error)

// CloseFunc releases resources when the table is closed.
type CloseFunc func() error

// Option configures a Table.
type Option func(*Table)

// WithTool sets the handler for tool invocations.
func WithTool(fn ToolFunc) Option {
	return func(t *Table) {
		t.tool = fn
	}
}

// WithClose sets a function run when the table is closed.
func WithClose(fn CloseFunc) Option {
	return func(t *Table) {
		t.close = fn
	}
}

// Table is a Provider driven by a fixed list of rules.
type Table struct {
	source domain.StyleSource
	reader driven.NotebookReader
	rules  []Rule
	tool   ToolFunc
	close  CloseFunc
}

// New creates a rule table provider for one notebook.
func New(source domain.StyleSource, reader driven.NotebookReader, rules []Rule, opts ...Option) (*Table, error) {
	if source == "" {
		return nil, fmt.Errorf("%w: rule table needs a source", domain.ErrInvalidInput)
	}
	if reader == nil {
		return nil, fmt.Errorf("%w: rule table needs a notebook", domain.ErrInvalidInput)
	}
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}

	t := &Table{
		source: source,
		reader: reader,
		rules:  append([]Rule(nil), rules...),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Source returns the table's source name.
func (t *Table) Source() domain.StyleSource {
	return t.source
}

// Rules returns the table's rules.
func (t *Table) Rules() []Rule {
	return append([]Rule(nil), t.rules...)
}

// shapeOf identifies a derived child by its parent and result shape.
type shapeOf struct {
	parent domain.StyleID
	shape  shape
}

// evaluation is one (rule, style) pair and its outcome.
type evaluation struct {
	rule   *Rule
	style  *domain.Style
	result domain.Payload
	err    error
}

// OnChanges evaluates every rule against the styles touched by changes
// and returns the requests that reconcile their derived children.
func (t *Table) OnChanges(ctx context.Context, changes []domain.Change) ([]domain.ChangeRequest, error) {
	styles, err := t.touched(changes)
	if err != nil {
		return nil, err
	}

	var evals []*evaluation
	var stale []*evaluation
	// The first matching rule in table order owns a result shape.
	produced := make(map[shapeOf]bool)
	for _, s := range styles {
		for i := range t.rules {
			r := &t.rules[i]
			if r.Parent.Matches(s) && !produced[shapeOf{s.ID, r.shape()}] {
				evals = append(evals, &evaluation{rule: r, style: s})
				produced[shapeOf{s.ID, r.shape()}] = true
				produced[shapeOf{s.ID, r.errorShape()}] = true
			} else {
				stale = append(stale, &evaluation{rule: r, style: s})
			}
		}
	}

	if err := t.compute(ctx, evals); err != nil {
		return nil, err
	}

	var requests []domain.ChangeRequest
	for _, e := range evals {
		reqs, err := t.reconcile(e)
		if err != nil {
			return nil, err
		}
		requests = append(requests, reqs...)
	}
	// A style that stopped matching a rule loses that rule's children,
	// unless a rule it still matches owns a child of the same shape.
	retracted := make(map[domain.StyleID]bool)
	for _, e := range stale {
		reqs, err := t.retract(e, produced, retracted)
		if err != nil {
			return nil, err
		}
		requests = append(requests, reqs...)
	}
	return requests, nil
}

// touched returns the current state of every style inserted, changed or
// converted in changes, in first-seen order. Styles deleted since are skipped.
func (t *Table) touched(changes []domain.Change) ([]*domain.Style, error) {
	seen := make(map[domain.StyleID]bool)
	var styles []*domain.Style

	for _, c := range changes {
		var id domain.StyleID
		switch ch := c.(type) {
		case domain.StyleInserted:
			id = ch.Style.ID
		case domain.StyleChanged:
			id = ch.Style.ID
		case domain.StyleConverted:
			id = ch.StyleID
		default:
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		s, err := t.reader.GetStyle(id)
		if errors.Is(err, domain.ErrUnknownStyle) {
			continue
		}
		if err != nil {
			return nil, err
		}
		styles = append(styles, s)
	}
	return styles, nil
}

// compute runs synchronous rules inline and long-running rules concurrently.
func (t *Table) compute(ctx context.Context, evals []*evaluation) error {
	var g errgroup.Group
	for _, e := range evals {
		if !e.rule.async() {
			e.run(ctx)
			continue
		}
		g.Go(func() error {
			e.run(ctx)
			return nil
		})
	}
	_ = g.Wait()

	// Results computed under a cancelled context are not trustworthy.
	return ctx.Err()
}

// run evaluates the rule on the style. A panicking rule is reported as a
// failed evaluation.
func (e *evaluation) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			e.result, e.err = nil, fmt.Errorf("rule %s panicked: %v", e.rule.Name, r)
		}
	}()
	if e.rule.async() {
		e.result, e.err = e.rule.ComputeAsync(ctx, e.style.Data)
		return
	}
	e.result, e.err = e.rule.Compute(e.style.Data)
}

// reconcile turns one evaluation into upsert/retract requests for the
// derived child and the error child.
func (t *Table) reconcile(e *evaluation) ([]domain.ChangeRequest, error) {
	child, err := t.child(e.style.ID, t.derivedPattern(e.rule))
	if err != nil {
		return nil, err
	}
	errChild, err := t.child(e.style.ID, t.errorPattern(e.rule))
	if err != nil {
		return nil, err
	}

	if e.err != nil {
		logger.Debug("rule %s failed on style %d: %v", e.rule.Name, e.style.ID, e.err)
		var reqs []domain.ChangeRequest
		if child != nil {
			reqs = append(reqs, domain.DeleteStyle{StyleID: child.ID})
		}
		payload := domain.ErrorPayload{Message: e.err.Error()}
		reqs = append(reqs, upsert(e.style.ID, errChild, domain.StyleProps{
			Role:    domain.RoleEvaluationError,
			Subrole: domain.StyleSubrole(e.rule.Name),
			Type:    domain.TypeError,
			Data:    payload,
		})...)
		return reqs, nil
	}

	var reqs []domain.ChangeRequest
	if errChild != nil {
		reqs = append(reqs, domain.DeleteStyle{StyleID: errChild.ID})
	}
	if e.result == nil {
		if child != nil {
			reqs = append(reqs, domain.DeleteStyle{StyleID: child.ID})
		}
		return reqs, nil
	}
	reqs = append(reqs, upsert(e.style.ID, child, domain.StyleProps{
		Role:    e.rule.Role,
		Subrole: e.rule.Subrole,
		Type:    e.rule.Type,
		Data:    e.result,
	})...)
	return reqs, nil
}

// retract deletes the children a rule left under a style it no longer
// matches. Shapes in produced belong to a matching rule and are kept.
// retracted records deleted children so that rules sharing a result shape
// delete a child once.
func (t *Table) retract(e *evaluation, produced map[shapeOf]bool, retracted map[domain.StyleID]bool) ([]domain.ChangeRequest, error) {
	var reqs []domain.ChangeRequest
	for _, sh := range []shape{e.rule.shape(), e.rule.errorShape()} {
		if produced[shapeOf{e.style.ID, sh}] {
			continue
		}
		child, err := t.child(e.style.ID, t.pattern(sh))
		if err != nil {
			return nil, err
		}
		if child != nil && !retracted[child.ID] {
			retracted[child.ID] = true
			reqs = append(reqs, domain.DeleteStyle{StyleID: child.ID})
		}
	}
	return reqs, nil
}

func (t *Table) child(parentID domain.StyleID, p domain.StylePattern) (*domain.Style, error) {
	s, err := t.reader.FindStyle(p, parentID)
	if err != nil {
		return nil, fmt.Errorf("find child of %d: %w", parentID, err)
	}
	return s, nil
}

func (t *Table) pattern(sh shape) domain.StylePattern {
	return domain.StylePattern{Role: sh.role, Subrole: sh.subrole, Type: sh.typ, Source: t.source}
}

func (t *Table) derivedPattern(r *Rule) domain.StylePattern {
	return t.pattern(r.shape())
}

func (t *Table) errorPattern(r *Rule) domain.StylePattern {
	return t.pattern(r.errorShape())
}

// upsert inserts a child with props or updates existing when its data differs.
func upsert(parentID domain.StyleID, existing *domain.Style, props domain.StyleProps) []domain.ChangeRequest {
	if existing == nil {
		return []domain.ChangeRequest{domain.InsertStyle{ParentID: parentID, Props: props}}
	}
	if domain.PayloadEqual(existing.Data, props.Data) {
		return nil
	}
	return []domain.ChangeRequest{domain.ChangeStyle{StyleID: existing.ID, Data: props.Data}}
}

// UseTool delegates to the configured tool handler.
func (t *Table) UseTool(ctx context.Context, style *domain.Style) ([]domain.ChangeRequest, error) {
	if t.tool == nil {
		return nil, nil
	}
	return t.tool(ctx, t.reader, style)
}

// Close runs the configured close function, if any.
func (t *Table) Close() error {
	if t.close == nil {
		return nil
	}
	return t.close()
}
