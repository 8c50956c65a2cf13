package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/errs"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/models"
)

// ErrClosed is returned by a registry that was committed or whose commands failed.
var ErrClosed = errors.New("domain: registry is closed")

// Factory wraps entities of one kind into models. Within one registry a given entity id
// always maps to the same model instance.
type Factory[E models.Entity, M any] struct {
	reg   *Registry
	build func(*Registry, E) M
	cache map[uuid.UUID]M
}

func newFactory[E models.Entity, M any](reg *Registry, build func(*Registry, E) M) *Factory[E, M] {
	return &Factory[E, M]{reg: reg, build: build, cache: make(map[uuid.UUID]M)}
}

// Create returns the model for e, building it on first use.
func (f *Factory[E, M]) Create(e E) M {
	id := e.Meta().ID
	if m, ok := f.cache[id]; ok {
		return m
	}
	if _, ok := f.reg.entities[id]; !ok {
		f.reg.entities[id] = e
	}
	m := f.build(f.reg, e)
	f.cache[id] = m
	return m
}

// Registry is the identity map of one operation. It is not safe for concurrent use and
// must not outlive the request that created it.
type Registry struct {
	store Store
	now   func() time.Time

	entities map[uuid.UUID]models.Entity
	dirty    []models.Entity
	touched  map[uuid.UUID]bool
	closed   bool

	users   *Factory[*models.User, *User]
	games   *Factory[*models.Game, *Game]
	players *Factory[*models.Player, *Player]
	rounds  *Factory[*models.Round, *Round]
	hands   *Factory[*models.Hand, *Hand]
	tricks  *Factory[*models.Trick, *Trick]
	turns   *Factory[*models.Turn, *Turn]
	calls   *Factory[*models.Call, *Call]
	results *Factory[*models.Result, *Result]
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// NewRegistry creates an empty registry reading from store.
func NewRegistry(store Store, opts ...Option) *Registry {
	r := &Registry{
		store:    store,
		now:      time.Now,
		entities: make(map[uuid.UUID]models.Entity),
		touched:  make(map[uuid.UUID]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.users = newFactory(r, func(r *Registry, e *models.User) *User { return &User{reg: r, e: e} })
	r.games = newFactory(r, func(r *Registry, e *models.Game) *Game { return &Game{reg: r, e: e} })
	r.players = newFactory(r, func(r *Registry, e *models.Player) *Player { return &Player{reg: r, e: e} })
	r.rounds = newFactory(r, func(r *Registry, e *models.Round) *Round { return &Round{reg: r, e: e} })
	r.hands = newFactory(r, func(r *Registry, e *models.Hand) *Hand { return &Hand{reg: r, e: e} })
	r.tricks = newFactory(r, func(r *Registry, e *models.Trick) *Trick { return &Trick{reg: r, e: e} })
	r.turns = newFactory(r, func(r *Registry, e *models.Turn) *Turn { return &Turn{reg: r, e: e} })
	r.calls = newFactory(r, func(r *Registry, e *models.Call) *Call { return &Call{reg: r, e: e} })
	r.results = newFactory(r, func(r *Registry, e *models.Result) *Result { return &Result{reg: r, e: e} })
	return r
}

func (r *Registry) Users() *Factory[*models.User, *User]       { return r.users }
func (r *Registry) Games() *Factory[*models.Game, *Game]       { return r.games }
func (r *Registry) Players() *Factory[*models.Player, *Player] { return r.players }
func (r *Registry) Rounds() *Factory[*models.Round, *Round]    { return r.rounds }
func (r *Registry) Hands() *Factory[*models.Hand, *Hand]       { return r.hands }
func (r *Registry) Tricks() *Factory[*models.Trick, *Trick]    { return r.tricks }
func (r *Registry) Turns() *Factory[*models.Turn, *Turn]       { return r.turns }
func (r *Registry) Calls() *Factory[*models.Call, *Call]       { return r.calls }
func (r *Registry) Results() *Factory[*models.Result, *Result] { return r.results }

func (r *Registry) User(ctx context.Context, id uuid.UUID) (*User, error) {
	return lookup(ctx, r, r.users, models.KindUser, id)
}

func (r *Registry) Game(ctx context.Context, id uuid.UUID) (*Game, error) {
	return lookup(ctx, r, r.games, models.KindGame, id)
}

func (r *Registry) Player(ctx context.Context, id uuid.UUID) (*Player, error) {
	return lookup(ctx, r, r.players, models.KindPlayer, id)
}

func (r *Registry) Round(ctx context.Context, id uuid.UUID) (*Round, error) {
	return lookup(ctx, r, r.rounds, models.KindRound, id)
}

func (r *Registry) Hand(ctx context.Context, id uuid.UUID) (*Hand, error) {
	return lookup(ctx, r, r.hands, models.KindHand, id)
}

func (r *Registry) Trick(ctx context.Context, id uuid.UUID) (*Trick, error) {
	return lookup(ctx, r, r.tricks, models.KindTrick, id)
}

func (r *Registry) Turn(ctx context.Context, id uuid.UUID) (*Turn, error) {
	return lookup(ctx, r, r.turns, models.KindTurn, id)
}

func (r *Registry) Call(ctx context.Context, id uuid.UUID) (*Call, error) {
	return lookup(ctx, r, r.calls, models.KindCall, id)
}

func (r *Registry) Result(ctx context.Context, id uuid.UUID) (*Result, error) {
	return lookup(ctx, r, r.results, models.KindResult, id)
}

// Execute applies cmds in order. The first failing command aborts the sequence and
// closes the registry, since the graph may be partially modified.
func (r *Registry) Execute(ctx context.Context, cmds ...Command) error {
	if r.closed {
		return ErrClosed
	}
	for _, cmd := range cmds {
		if err := cmd.apply(ctx, r); err != nil {
			r.closed = true
			return err
		}
	}
	return nil
}

// Commit saves every entity created or modified by executed commands in one Store.Save
// and closes the registry.
func (r *Registry) Commit(ctx context.Context) error {
	if r.closed {
		return ErrClosed
	}
	r.closed = true
	if len(r.dirty) == 0 {
		return nil
	}
	return r.store.Save(ctx, r.dirty...)
}

// Close discards pending changes. Lookups keep working; Execute and Commit return
// ErrClosed.
func (r *Registry) Close() {
	r.closed = true
}

// Pending returns the number of entities Commit would save.
func (r *Registry) Pending() int {
	return len(r.dirty)
}

func (r *Registry) entity(ctx context.Context, kind models.Kind, id uuid.UUID) (models.Entity, error) {
	if e, ok := r.entities[id]; ok {
		if e.Kind() != kind {
			return nil, errs.NotFoundf("%s %s not found", kind, id)
		}
		return e, nil
	}
	e, err := r.store.Load(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	r.entities[id] = e
	return e, nil
}

// add registers a new entity, assigning its id and timestamps.
func (r *Registry) add(e models.Entity) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate id: %w", err)
	}
	meta := e.Meta()
	meta.ID = id
	meta.Version = 0
	meta.CreatedAt = r.now()
	meta.UpdatedAt = meta.CreatedAt
	r.entities[id] = e
	r.touch(e)
	return nil
}

// touch marks e for saving on commit.
func (r *Registry) touch(e models.Entity) {
	meta := e.Meta()
	meta.UpdatedAt = r.now()
	if r.touched[meta.ID] {
		return
	}
	r.touched[meta.ID] = true
	r.dirty = append(r.dirty, e)
}

func lookup[E models.Entity, M any](ctx context.Context, r *Registry, f *Factory[E, M], kind models.Kind, id uuid.UUID) (M, error) {
	var zero M
	if m, ok := f.cache[id]; ok {
		return m, nil
	}
	e, err := r.entity(ctx, kind, id)
	if err != nil {
		return zero, err
	}
	typed, ok := e.(E)
	if !ok {
		panic(fmt.Sprintf("domain: store returned %T for %s %s", e, kind, id))
	}
	return f.Create(typed), nil
}

func lookupAll[E models.Entity, M any](ctx context.Context, r *Registry, f *Factory[E, M], kind models.Kind, ids []uuid.UUID) ([]M, error) {
	out := make([]M, 0, len(ids))
	for _, id := range ids {
		m, err := lookup(ctx, r, f, kind, id)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
