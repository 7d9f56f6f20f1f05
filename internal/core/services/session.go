package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/mathnb/internal/core/domain"
	"github.com/custodia-labs/mathnb/internal/core/notebook"
	"github.com/custodia-labs/mathnb/internal/core/ports/driven"
	"github.com/custodia-labs/mathnb/internal/logger"
)

// CommitFunc is called with the notebook's snapshot after every call that
// leaves the notebook in a new consistent state.
type CommitFunc func(ctx context.Context, snap *domain.Snapshot) error

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithMaxRounds sets how many times providers are dispatched per call.
// Values below 1 are ignored.
func WithMaxRounds(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.maxRounds = n
		}
	}
}

// WithRoundTimeout bounds how long a round waits for providers.
// Zero waits indefinitely.
func WithRoundTimeout(d time.Duration) SessionOption {
	return func(s *Session) {
		s.roundTimeout = d
	}
}

// WithCommit sets the function that persists completed calls.
func WithCommit(fn CommitFunc) SessionOption {
	return func(s *Session) {
		s.commit = fn
	}
}

// Session is one open notebook together with its providers.
// Calls are serialized; the notebook is only mutated between rounds.
type Session struct {
	mu           sync.Mutex
	name         string
	nb           *notebook.Notebook
	providers    []driven.Provider
	maxRounds    int
	roundTimeout time.Duration
	commit       CommitFunc
	closed       bool
}

// NewSession opens nb and creates one provider per factory, in order.
// If a factory fails, the providers created so far are closed.
func NewSession(name string, nb *notebook.Notebook, factories []driven.ProviderFactory, opts ...SessionOption) (*Session, error) {
	s := &Session{
		name:      name,
		nb:        nb,
		maxRounds: domain.DefaultMaxRounds,
	}
	for _, opt := range opts {
		opt(s)
	}

	for i, factory := range factories {
		p, err := factory(nb)
		if err != nil {
			closeErr := closeProviders(s.providers)
			return nil, errors.Join(fmt.Errorf("create provider %d: %w", i, err), closeErr)
		}
		s.providers = append(s.providers, p)
	}

	openSessions.Inc()
	logger.Debug("opened notebook %s with %d providers", name, len(s.providers))
	return s, nil
}

// Name returns the notebook name.
func (s *Session) Name() string {
	return s.name
}

// Providers returns the sources of the session's providers in registration order.
func (s *Session) Providers() []domain.StyleSource {
	sources := make([]domain.StyleSource, len(s.providers))
	for i, p := range s.providers {
		sources[i] = p.Source()
	}
	return sources
}

// Reader returns a read-only view of the notebook.
func (s *Session) Reader() driven.NotebookReader {
	return s.nb
}

// Snapshot returns the notebook's persisted shape.
func (s *Session) Snapshot() *domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nb.Snapshot()
}

// Styles returns every style in document order.
func (s *Session) Styles() ([]*domain.Style, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nb.FindStyles(domain.StylePattern{Recursive: true}, 0)
}

// Relationships returns every relationship ordered by id.
func (s *Session) Relationships() []*domain.Relationship {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nb.FindRelationships(domain.RelationshipPattern{})
}

// RequestChanges applies requests on behalf of source and propagates the
// resulting changes through the providers until they settle.
//
// An invariant violation or a provider timeout restores the notebook to
// its state before the call. When providers still have requests after the
// last permitted round, the applied changes are kept and returned together
// with a *domain.RuleCycleError holding the unapplied requests.
func (s *Session) RequestChanges(ctx context.Context, source domain.StyleSource, requests []domain.ChangeRequest) (*domain.ChangeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, domain.ErrNotebookClosed
	}
	return s.requestChanges(ctx, source, requests)
}

// sourcedRequest is a change request and the source it is made for.
type sourcedRequest struct {
	source domain.StyleSource
	req    domain.ChangeRequest
}

func (s *Session) requestChanges(ctx context.Context, source domain.StyleSource, requests []domain.ChangeRequest) (*domain.ChangeResult, error) {
	start := time.Now()
	defer func() {
		propagationDuration.Observe(time.Since(start).Seconds())
	}()

	result := &domain.ChangeResult{BatchID: uuid.NewString()}
	backup := s.nb.Clone()
	rollback := func(err error) (*domain.ChangeResult, error) {
		s.nb.Restore(backup)
		rollbacksTotal.Inc()
		logger.Warn("notebook %s: batch %s rolled back: %v", s.name, result.BatchID, err)
		return nil, err
	}

	initial := make([]sourcedRequest, len(requests))
	for i, r := range requests {
		initial[i] = sourcedRequest{source: source, req: r}
	}

	pending, err := s.apply(initial)
	if err != nil {
		return rollback(err)
	}
	result.Changes = append(result.Changes, pending...)

	for round := 1; len(pending) > 0; round++ {
		logger.Section(fmt.Sprintf("%s round %d", s.name, round))
		roundsTotal.Inc()

		reqs, err := s.dispatch(ctx, pending)
		if err != nil {
			return rollback(err)
		}
		if len(reqs) == 0 {
			break
		}
		if round >= s.maxRounds {
			ruleCyclesTotal.Inc()
			cycle := &domain.RuleCycleError{Rounds: round}
			for _, r := range reqs {
				cycle.Pending = append(cycle.Pending, r.req)
			}
			logger.Warn("notebook %s: %v", s.name, cycle)
			if err := s.persist(ctx); err != nil {
				return result, errors.Join(cycle, err)
			}
			return result, cycle
		}

		pending, err = s.apply(reqs)
		if err != nil {
			return rollback(err)
		}
		result.Changes = append(result.Changes, pending...)
		result.Rounds = round
	}

	if err := s.persist(ctx); err != nil {
		return result, err
	}
	logger.Debug("notebook %s: batch %s applied %d changes in %d rounds",
		s.name, result.BatchID, len(result.Changes), result.Rounds)
	return result, nil
}

// apply compiles and applies each request in order, so that later
// requests see the effect of earlier ones.
func (s *Session) apply(requests []sourcedRequest) ([]domain.Change, error) {
	var applied []domain.Change
	for i, r := range requests {
		changes, err := notebook.Compile(s.nb, r.source, r.req)
		if err != nil {
			return nil, fmt.Errorf("compile request %d (%s from %s): %w", i, r.req.RequestType(), r.source, err)
		}
		if err := s.nb.ApplyAll(changes); err != nil {
			return nil, fmt.Errorf("apply request %d (%s from %s): %w", i, r.req.RequestType(), r.source, err)
		}
		for _, c := range changes {
			changesTotal.WithLabelValues(string(c.ChangeType())).Inc()
		}
		applied = append(applied, changes...)
	}
	return applied, nil
}

// providerOutput is what one provider returned for a round.
type providerOutput struct {
	index int
	reqs  []domain.ChangeRequest
	err   error
}

// dispatch hands changes to every provider concurrently and merges their
// requests in registration order once all have answered.
func (s *Session) dispatch(ctx context.Context, changes []domain.Change) ([]sourcedRequest, error) {
	if len(s.providers) == 0 {
		return nil, nil
	}

	rctx, cancel := ctx, context.CancelFunc(func() {})
	if s.roundTimeout > 0 {
		rctx, cancel = context.WithTimeout(ctx, s.roundTimeout)
	}
	defer cancel()

	// Buffered so that providers finishing after a timeout do not block.
	results := make(chan providerOutput, len(s.providers))
	for i, p := range s.providers {
		go func() {
			out := providerOutput{index: i}
			defer func() {
				if r := recover(); r != nil {
					out.reqs, out.err = nil, fmt.Errorf("panic: %v", r)
				}
				results <- out
			}()
			out.reqs, out.err = p.OnChanges(rctx, changes)
		}()
	}

	outputs := make([]*providerOutput, len(s.providers))
	for received := 0; received < len(s.providers); received++ {
		select {
		case out := <-results:
			outputs[out.index] = &out
		case <-rctx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, s.timeoutError(outputs)
		}
	}

	var merged []sourcedRequest
	for i, out := range outputs {
		p := s.providers[i]
		if out.err != nil {
			perr := &domain.ProviderError{Source: p.Source(), Err: out.err}
			switch {
			case domain.IsInvariantViolation(out.err):
				providerErrorsTotal.WithLabelValues(string(p.Source()), "invariant").Inc()
				return nil, perr
			case errors.Is(out.err, context.DeadlineExceeded) && rctx.Err() != nil:
				providerErrorsTotal.WithLabelValues(string(p.Source()), "timeout").Inc()
				return nil, &domain.ProviderError{Source: p.Source(), Err: domain.ErrProviderTimeout}
			default:
				providerErrorsTotal.WithLabelValues(string(p.Source()), "error").Inc()
				logger.Warn("notebook %s: dropping output of %v", s.name, perr)
				continue
			}
		}
		for _, r := range out.reqs {
			merged = append(merged, sourcedRequest{source: p.Source(), req: r})
		}
	}
	return merged, nil
}

// timeoutError reports every provider that did not answer in time.
func (s *Session) timeoutError(outputs []*providerOutput) error {
	var errs []error
	for i, out := range outputs {
		if out != nil {
			continue
		}
		src := s.providers[i].Source()
		providerErrorsTotal.WithLabelValues(string(src), "timeout").Inc()
		errs = append(errs, &domain.ProviderError{Source: src, Err: domain.ErrProviderTimeout})
	}
	return errors.Join(errs...)
}

func (s *Session) persist(ctx context.Context) error {
	if s.commit == nil {
		return nil
	}
	if err := s.commit(ctx, s.nb.Snapshot()); err != nil {
		return fmt.Errorf("persist notebook %s: %w", s.name, err)
	}
	return nil
}

// UseTool activates the tool of the provider that owns a style and
// propagates the requests it returns.
func (s *Session) UseTool(ctx context.Context, styleID domain.StyleID) (*domain.ChangeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, domain.ErrNotebookClosed
	}

	style, err := s.nb.GetStyle(styleID)
	if err != nil {
		return nil, err
	}

	var owner driven.Provider
	for _, p := range s.providers {
		if p.Source() == style.Source {
			owner = p
			break
		}
	}
	if owner == nil {
		return nil, fmt.Errorf("%w: style %d from %s", domain.ErrNoToolProvider, styleID, style.Source)
	}

	reqs, err := owner.UseTool(ctx, style)
	if err != nil {
		return nil, &domain.ProviderError{Source: owner.Source(), Err: err}
	}
	if len(reqs) == 0 {
		return &domain.ChangeResult{BatchID: uuid.NewString()}, nil
	}
	logger.Info("notebook %s: tool of %s on style %d produced %d requests", s.name, owner.Source(), styleID, len(reqs))
	return s.requestChanges(ctx, owner.Source(), reqs)
}

// Close closes the providers in reverse registration order.
// Closing a closed session is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	openSessions.Dec()
	return closeProviders(s.providers)
}

func closeProviders(providers []driven.Provider) error {
	var errs []error
	for i := len(providers) - 1; i >= 0; i-- {
		if err := providers[i].Close(); err != nil {
			errs = append(errs, fmt.Errorf("close provider %s: %w", providers[i].Source(), err))
		}
	}
	return errors.Join(errs...)
}
