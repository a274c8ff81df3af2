package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/glimte/mmate-intercept/contracts"
	"github.com/glimte/mmate-intercept/interceptors"
	"github.com/glimte/mmate-intercept/internal/config"
	"github.com/glimte/mmate-intercept/internal/journal"
)

var (
	// ErrUnknownOperation is returned for an operation id that was never registered
	ErrUnknownOperation = errors.New("registry: unknown operation")

	// ErrDuplicateOperation is returned when an operation id is registered twice
	ErrDuplicateOperation = errors.New("registry: operation already registered")

	// ErrUnknownInterceptor is returned for an interceptor name not attached to the operation
	ErrUnknownInterceptor = errors.New("registry: unknown interceptor")
)

type entry struct {
	operation     *contracts.Operation
	registrations []interceptors.Registration
	chain         *interceptors.Chain
}

// Registry binds interceptors to target operations and resolves invocations
// by operation id. Every mutation builds a new immutable chain, so an
// invocation in flight keeps the chain it started with.
type Registry struct {
	entries  map[contracts.OperationID]*entry
	mu       sync.RWMutex
	executor *interceptors.Executor
	journal  journal.ChangeJournal
	logger   *slog.Logger
}

// Option configures a Registry
type Option func(*Registry)

// WithLogger sets the registry logger
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithExecutor sets the executor used by Invoke
func WithExecutor(executor *interceptors.Executor) Option {
	return func(r *Registry) {
		if executor != nil {
			r.executor = executor
		}
	}
}

// WithJournal records every chain change in j
func WithJournal(j journal.ChangeJournal) Option {
	return func(r *Registry) {
		r.journal = j
	}
}

// New creates an empty registry
func New(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[contracts.OperationID]*entry),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.executor == nil {
		r.executor = interceptors.NewExecutor(interceptors.WithLogger(r.logger))
	}
	return r
}

// RegisterOperation makes an operation invocable through the registry
func (r *Registry) RegisterOperation(op *contracts.Operation) error {
	if op == nil {
		return interceptors.ErrNilOperation
	}
	chain, err := interceptors.NewChain(op)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[op.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateOperation, op.ID)
	}
	r.entries[op.ID] = &entry{operation: op, chain: chain}
	r.logger.Debug("operation registered", "operation", op.ID.String())
	r.record(op.ID, journal.ChangeRegister, "", nil, chain, nil)
	return nil
}

// Attach binds an interceptor to an operation
func (r *Registry) Attach(id contracts.OperationID, reg interceptors.Registration) error {
	return r.mutate(id, journal.ChangeAttach, reg.Name(), func(regs []interceptors.Registration) ([]interceptors.Registration, error) {
		return append(regs, reg), nil
	})
}

// Detach removes an interceptor from an operation
func (r *Registry) Detach(id contracts.OperationID, name string) error {
	return r.mutate(id, journal.ChangeDetach, name, func(regs []interceptors.Registration) ([]interceptors.Registration, error) {
		i, err := indexOf(regs, name)
		if err != nil {
			return nil, err
		}
		return append(regs[:i], regs[i+1:]...), nil
	})
}

// SetEnabled enables or disables an attached interceptor
func (r *Registry) SetEnabled(id contracts.OperationID, name string, enabled bool) error {
	change := journal.ChangeDisable
	if enabled {
		change = journal.ChangeEnable
	}
	return r.mutate(id, change, name, func(regs []interceptors.Registration) ([]interceptors.Registration, error) {
		i, err := indexOf(regs, name)
		if err != nil {
			return nil, err
		}
		regs[i].Enabled = enabled
		return regs, nil
	})
}

// SetSortOrder changes the sort order of an attached interceptor
func (r *Registry) SetSortOrder(id contracts.OperationID, name string, sortOrder int) error {
	return r.mutate(id, journal.ChangeSortOrder, name, func(regs []interceptors.Registration) ([]interceptors.Registration, error) {
		i, err := indexOf(regs, name)
		if err != nil {
			return nil, err
		}
		regs[i].SortOrder = sortOrder
		return regs, nil
	})
}

// Apply sets sort orders and enabled flags from plugin declarations. A
// declaration only changes the fields it sets. Every declared operation and
// plugin must already be registered; on error nothing is changed.
func (r *Registry) Apply(plugins *config.Plugins) error {
	if plugins == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[contracts.OperationID]*entry, len(plugins.Operations))
	var errs []error
	for _, opCfg := range plugins.Operations {
		e, ok := r.entries[opCfg.ID]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownOperation, opCfg.ID))
			continue
		}
		regs := cloneRegistrations(e.registrations)
		for _, p := range opCfg.Plugins {
			i, err := indexOf(regs, p.Name)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", opCfg.ID, err))
				continue
			}
			regs[i].SortOrder, regs[i].Enabled = p.Override(regs[i].SortOrder, regs[i].Enabled)
		}
		chain, err := interceptors.NewChain(e.operation, regs...)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		next[opCfg.ID] = &entry{operation: e.operation, registrations: regs, chain: chain}
	}
	if err := errors.Join(errs...); err != nil {
		for _, opCfg := range plugins.Operations {
			r.record(opCfg.ID, journal.ChangeApply, "", nil, nil, err)
		}
		return err
	}

	for id, e := range next {
		r.record(id, journal.ChangeApply, "", r.entries[id].chain, e.chain, nil)
		r.entries[id] = e
		r.logger.Info("plugin configuration applied",
			"operation", id.String(),
			"enabled", e.chain.Names(),
			"disabled", e.chain.Disabled(),
		)
	}
	return nil
}

// Chain returns the current chain snapshot of an operation
func (r *Registry) Chain(id contracts.OperationID) (*interceptors.Chain, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, id)
	}
	return e.chain, nil
}

// Invoke resolves the chain of an operation and executes it
func (r *Registry) Invoke(ctx context.Context, id contracts.OperationID, args contracts.Args) (any, error) {
	chain, err := r.Chain(id)
	if err != nil {
		return nil, err
	}
	return r.executor.Invoke(ctx, chain, args)
}

// Operations lists the registered operation ids in a stable order
func (r *Registry) Operations() []contracts.OperationID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]contracts.OperationID, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}

func (r *Registry) mutate(id contracts.OperationID, change journal.ChangeType, name string, fn func([]interceptors.Registration) ([]interceptors.Registration, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOperation, id)
	}
	regs, err := fn(cloneRegistrations(e.registrations))
	if err != nil {
		err = fmt.Errorf("%s: %w", id, err)
		r.record(id, change, name, nil, nil, err)
		return err
	}
	chain, err := interceptors.NewChain(e.operation, regs...)
	if err != nil {
		r.record(id, change, name, nil, nil, err)
		return err
	}
	r.record(id, change, name, e.chain, chain, nil)
	r.entries[id] = &entry{operation: e.operation, registrations: regs, chain: chain}
	return nil
}

// record writes a change to the journal. before and after are stored as the
// chain descriptions.
func (r *Registry) record(id contracts.OperationID, change journal.ChangeType, name string, before, after *interceptors.Chain, failure error) {
	if r.journal == nil {
		return
	}
	ctx := context.Background()
	var err error
	if failure != nil {
		err = r.journal.RecordError(ctx, id.String(), change, name, failure)
	} else {
		err = r.journal.RecordChange(ctx, id.String(), change, name, describe(before), describe(after))
	}
	if err != nil {
		r.logger.Warn("failed to record chain change", "operation", id.String(), "change", change, "error", err)
	}
}

func describe(c *interceptors.Chain) any {
	if c == nil {
		return nil
	}
	return c.Describe()
}

func cloneRegistrations(regs []interceptors.Registration) []interceptors.Registration {
	out := make([]interceptors.Registration, len(regs))
	copy(out, regs)
	return out
}

func indexOf(regs []interceptors.Registration, name string) (int, error) {
	for i, reg := range regs {
		if reg.Name() == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrUnknownInterceptor, name)
}
