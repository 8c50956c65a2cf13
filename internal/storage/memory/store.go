// Package memory keeps entities in process memory. Entities are stored as JSON so
// callers never share instances with the store or with each other.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/errs"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/models"
)

type row struct {
	kind    models.Kind
	version int64
	data    []byte
}

type Store struct {
	mu   sync.Mutex
	rows map[uuid.UUID]row
}

func NewStore() *Store {
	return &Store{
		rows: make(map[uuid.UUID]row),
	}
}

func (s *Store) Load(_ context.Context, kind models.Kind, id uuid.UUID) (models.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok || r.kind != kind {
		return nil, errs.NotFoundf("%s %s not found", kind, id)
	}
	return decode(r)
}

// Save writes entities atomically. Nothing is written when any entity conflicts.
func (s *Store) Save(_ context.Context, entities ...models.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make(map[uuid.UUID]row, len(entities))
	for _, e := range entities {
		meta := e.Meta()
		cur, exists := s.rows[meta.ID]
		switch {
		case meta.Version == 0 && exists:
			return errs.Conflictf("%s %s already exists", e.Kind(), meta.ID)
		case meta.Version != 0 && !exists:
			return errs.NotFoundf("%s %s not found", e.Kind(), meta.ID)
		case meta.Version != 0 && cur.version != meta.Version:
			return errs.Conflictf("%s %s was modified concurrently", e.Kind(), meta.ID)
		}
		if u, ok := e.(*models.User); ok && meta.Version == 0 && s.nameTaken(u.Username) {
			return errs.Constraintf("username %q is taken", u.Username)
		}
		if _, dup := staged[meta.ID]; dup {
			return fmt.Errorf("%s %s saved twice in one batch", e.Kind(), meta.ID)
		}
		next := *meta
		next.Version++
		data, err := encode(e, next)
		if err != nil {
			return err
		}
		staged[meta.ID] = row{kind: e.Kind(), version: next.Version, data: data}
	}
	for id, r := range staged {
		s.rows[id] = r
	}
	for _, e := range entities {
		e.Meta().Version++
	}
	return nil
}

func (s *Store) nameTaken(username string) bool {
	_, err := s.findUser(username)
	return err == nil
}

// FindUserByName looks up a user by case-insensitive name.
func (s *Store) FindUserByName(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findUser(username)
}

func (s *Store) findUser(username string) (*models.User, error) {
	for _, r := range s.rows {
		if r.kind != models.KindUser {
			continue
		}
		e, err := decode(r)
		if err != nil {
			return nil, err
		}
		u := e.(*models.User)
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return nil, errs.NotFoundf("user %q not found", username)
}

// Len returns the number of stored entities.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func encode(e models.Entity, meta models.Record) ([]byte, error) {
	orig := *e.Meta()
	*e.Meta() = meta
	data, err := json.Marshal(e)
	*e.Meta() = orig
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.Kind(), err)
	}
	return data, nil
}

func decode(r row) (models.Entity, error) {
	e, err := models.New(r.kind)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(r.data, e); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.kind, err)
	}
	return e, nil
}
