package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Authenticator obtains a credential for a declared user, mediating between
// direct login and group delegation.
type Authenticator interface {
	Authenticate(ctx context.Context, id, password, group string) (*Credential, error)
}

// Executor handles one operation type. Validate checks the raw declaration
// for required parameters before any network call; Execute builds the
// request from the resolved parameters, dispatches it, and returns the named
// output fields to record in the store. Executors are stateless beyond the
// clients they are constructed with. cred is nil when the command declares
// no user.
type Executor interface {
	Validate(params map[string]any) error
	Execute(ctx context.Context, cred *Credential, params map[string]any) (map[string]string, error)
}

// Registry maps an operation-type discriminator to its Executor. Adding an
// operation type means registering one handler; nothing else changes.
type Registry struct {
	executors map[string]Executor
}

func NewRegistry() *Registry {
	return &Registry{
		executors: make(map[string]Executor),
	}
}

func (r *Registry) Register(opType string, exec Executor) {
	r.executors[opType] = exec
}

func (r *Registry) Get(opType string) (Executor, bool) {
	exec, ok := r.executors[opType]
	return exec, ok
}

// Types returns every registered discriminator in sorted order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.executors))
	for t := range r.executors {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Result records the outcome of a single operation.
type Result struct {
	Name     string
	Type     string
	Err      error
	Outputs  map[string]string
	Warnings []SubstitutionWarning
}

func (r Result) Failed() bool {
	return r.Err != nil
}

// Summary aggregates a whole run.
type Summary struct {
	RunID     string
	Total     int
	Succeeded int
	Results   []Result
}

func (s *Summary) Failed() int {
	return s.Total - s.Succeeded
}

func (s *Summary) AllSucceeded() bool {
	return s.Succeeded == s.Total
}

// Runner drives the main loop: resolve parameters, obtain a credential,
// dispatch to the executor, record outputs, continue. It owns the run's
// single OutputStore; a failure in one operation never aborts the run.
type Runner struct {
	store    *OutputStore
	resolver *Resolver
	registry *Registry
	auth     Authenticator
	l        *slog.Logger
	delay    time.Duration
}

func NewRunner(registry *Registry, auth Authenticator, l *slog.Logger, delay time.Duration) *Runner {
	store := NewOutputStore()
	return &Runner{
		store:    store,
		resolver: NewResolver(store),
		registry: registry,
		auth:     auth,
		l:        l,
		delay:    delay,
	}
}

// Store exposes the run's output store for the variables dump.
func (r *Runner) Store() *OutputStore {
	return r.store
}

// Run executes every command in declaration order. Structural validation
// failures abort before any operation executes; after that, each command is
// attempted exactly once and its failure is scoped to itself.
func (r *Runner) Run(ctx context.Context, flow *Flow) (*Summary, error) {
	if errs := flow.Validate(r.registry); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	summary := &Summary{
		RunID: uuid.NewString(),
		Total: len(flow.Commands),
	}

	for i, c := range flow.Commands {
		if i > 0 && r.delay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(r.delay):
			}
		}

		res := r.runCommand(ctx, c)
		summary.Results = append(summary.Results, res)

		if res.Failed() {
			r.l.Error("operation failed",
				"run", summary.RunID,
				"name", c.Name,
				"type", c.Type,
				"error", res.Err.Error())
			continue
		}

		summary.Succeeded++
		r.l.Info("operation succeeded",
			"run", summary.RunID,
			"name", c.Name,
			"type", c.Type,
			"outputs", len(res.Outputs))
	}

	return summary, nil
}

func (r *Runner) runCommand(ctx context.Context, c Command) Result {
	res := Result{Name: c.Name, Type: c.Type}

	resolved, warnings := r.resolver.ResolveAll(c.Parameters)
	res.Warnings = warnings
	for _, w := range warnings {
		r.l.Warn("substitution incomplete", "name", c.Name, "detail", w.String())
	}

	var cred *Credential
	if c.User.Specified() {
		var err error
		cred, err = r.auth.Authenticate(ctx, c.User.ID, c.User.Password, c.User.Group)
		if err != nil {
			res.Err = err
			return res
		}
	}

	exec, ok := r.registry.Get(c.Type)
	if !ok {
		// Validate catches this before the loop; guard anyway.
		res.Err = fmt.Errorf("operation type %q not registered", c.Type)
		return res
	}

	outputs, err := exec.Execute(ctx, cred, resolved)
	if err != nil {
		res.Err = err
		return res
	}

	res.Outputs = outputs
	for field, value := range outputs {
		r.store.Set(c.Name, field, value)
	}

	return res
}
