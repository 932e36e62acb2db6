package storage

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/y0lz/backend-json/internal/apperr"
	"github.com/y0lz/backend-json/internal/domain"
	"github.com/y0lz/backend-json/internal/logx"
)

// Backends holds the configured drivers. Any of them may be nil when not configured.
type Backends struct {
	Local      Backend
	Relational Backend
	Blob       Backend
}

// Options configures a Facade.
type Options struct {
	Policy       domain.Policy
	MirrorPeople bool
	Logger       logx.Logger
	Now          func() time.Time
}

// routing is an immutable snapshot of which backend serves what.
type routing struct {
	policy      domain.Policy
	people      Backend
	branches    Backend
	shifts      Backend
	assignments Backend
	settings    SettingsStore
	mirror      Backend
}

func (r *routing) backendFor(coll Collection) Backend {
	switch coll {
	case People:
		return r.people
	case Branches:
		return r.branches
	case Shifts:
		return r.shifts
	case Assignments:
		return r.assignments
	default:
		return nil
	}
}

// Facade dispatches domain operations to the backends selected by the active policy.
type Facade struct {
	backends     Backends
	mirrorPeople bool
	logger       logx.Logger
	now          func() time.Time

	current  atomic.Pointer[routing]
	switchMu sync.Mutex
}

// New builds a Facade for the initial policy. Readiness is not probed here so the
// process can start while a remote backend is still down.
func New(backends Backends, opts Options) (*Facade, error) {
	if opts.Logger == nil {
		opts.Logger = logx.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Policy == "" {
		opts.Policy = domain.PolicyLocal
	}
	f := &Facade{
		backends:     backends,
		mirrorPeople: opts.MirrorPeople,
		logger:       opts.Logger,
		now:          opts.Now,
	}
	r, err := f.route(opts.Policy)
	if err != nil {
		return nil, err
	}
	f.current.Store(r)
	return f, nil
}

func (f *Facade) route(policy domain.Policy) (*routing, error) {
	if !policy.Valid() {
		return nil, fmt.Errorf("policy %q: %w", policy, apperr.ErrInvalid)
	}
	b := f.backends
	r := &routing{policy: policy}
	switch policy {
	case domain.PolicyLocal:
		if b.Local == nil {
			return nil, fmt.Errorf("policy local: local store: %w", apperr.ErrBackendUnavailable)
		}
		r.people, r.branches, r.shifts, r.assignments = b.Local, b.Local, b.Local, b.Local
		r.settings = settingsOf(b.Local)
		if f.mirrorPeople {
			r.mirror = b.Relational
		}
	case domain.PolicyRemote:
		if b.Relational == nil {
			return nil, fmt.Errorf("policy remote: relational store: %w", apperr.ErrBackendUnavailable)
		}
		r.people, r.branches, r.shifts, r.assignments = b.Relational, b.Relational, b.Relational, b.Relational
		r.settings = settingsOf(b.Local)
		if f.mirrorPeople {
			r.mirror = b.Local
		}
	case domain.PolicyHybrid:
		if b.Relational == nil || b.Blob == nil {
			return nil, fmt.Errorf("policy hybrid: relational and blob stores: %w", apperr.ErrBackendUnavailable)
		}
		r.people, r.branches = b.Relational, b.Relational
		r.shifts, r.assignments = b.Blob, b.Blob
		r.settings = settingsOf(b.Blob)
	}
	return r, nil
}

func settingsOf(b Backend) SettingsStore {
	if s, ok := b.(SettingsStore); ok {
		return s
	}
	return nil
}

// targets lists the distinct backends a routing depends on.
func (r *routing) targets() []Backend {
	seen := make(map[Backend]struct{}, 3)
	out := make([]Backend, 0, 3)
	for _, b := range []Backend{r.people, r.branches, r.shifts, r.assignments} {
		if _, ok := seen[b]; ok || b == nil {
			continue
		}
		seen[b] = struct{}{}
		out = append(out, b)
	}
	return out
}

// View pins the current routing. All calls on the returned view use the same
// backends even if the policy is switched meanwhile.
func (f *Facade) View() *View {
	return &View{r: f.current.Load(), f: f}
}

// Policy returns the active policy.
func (f *Facade) Policy() domain.Policy {
	return f.current.Load().policy
}

// Backend returns the configured driver of the given kind.
func (f *Facade) Backend(kind Kind) (Backend, error) {
	var b Backend
	switch kind {
	case KindLocal:
		b = f.backends.Local
	case KindRelational:
		b = f.backends.Relational
	case KindBlob:
		b = f.backends.Blob
	}
	if b == nil {
		return nil, fmt.Errorf("%s store: %w", kind, apperr.ErrBackendUnavailable)
	}
	return b, nil
}

// SwitchPrimary makes policy active for new calls. It fails without changing
// anything when a backend the policy needs is missing or not ready.
// Data is never migrated here.
func (f *Facade) SwitchPrimary(ctx context.Context, policy domain.Policy) error {
	f.switchMu.Lock()
	defer f.switchMu.Unlock()

	next, err := f.route(policy)
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, b := range next.targets() {
		g.Go(func() error {
			if err := b.Ready(gctx); err != nil {
				return fmt.Errorf("%s store not ready: %w: %w", b.Kind(), apperr.ErrBackendUnavailable, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	prev := f.current.Swap(next)
	f.logger.Info("storage policy switched",
		logx.Event("storage_switched"),
		logx.String("from", string(prev.policy)),
		logx.String("to", string(policy)),
	)
	return nil
}

// BackendStatus is the readiness of one configured driver.
type BackendStatus struct {
	Kind       Kind   `json:"kind"`
	Configured bool   `json:"configured"`
	Ready      bool   `json:"ready"`
	Error      string `json:"error,omitempty"`
}

// Info describes the active policy and every driver.
type Info struct {
	Policy       domain.Policy   `json:"policy"`
	MirrorPeople bool            `json:"mirrorPeople"`
	Backends     []BackendStatus `json:"backends"`
}

// Info probes every configured driver concurrently.
func (f *Facade) Info(ctx context.Context) Info {
	kinds := []Kind{KindLocal, KindRelational, KindBlob}
	statuses := make([]BackendStatus, len(kinds))
	var g errgroup.Group
	for i, kind := range kinds {
		statuses[i] = BackendStatus{Kind: kind}
		b, err := f.Backend(kind)
		if err != nil {
			continue
		}
		statuses[i].Configured = true
		g.Go(func() error {
			if err := b.Ready(ctx); err != nil {
				statuses[i].Error = err.Error()
				return nil
			}
			statuses[i].Ready = true
			return nil
		})
	}
	_ = g.Wait()
	return Info{Policy: f.Policy(), MirrorPeople: f.mirrorPeople, Backends: statuses}
}
