package store

import (
	"context"
	"reflect"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/xid"
)

// Memory is an in-process document collection with the same contract as
// Mongo. Ids are xids.
type Memory struct {
	mu     sync.RWMutex
	docs   map[string]Document
	order  []string
	unique map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{docs: map[string]Document{}, unique: map[string]struct{}{}}
}

func (m *Memory) EnsureUnique(_ context.Context, field string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, id := range m.order {
		v, ok := m.docs[id][field]
		if !ok {
			continue
		}
		for _, other := range m.order[i+1:] {
			if w, ok := m.docs[other][field]; ok && reflect.DeepEqual(v, w) {
				return errors.Wrapf(ErrDuplicate, "existing documents share %s", field)
			}
		}
	}

	m.unique[field] = struct{}{}
	return nil
}

func (m *Memory) Create(ctx context.Context, doc Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", unavailable(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	d := withoutID(doc)
	if err := m.checkUnique(d, ""); err != nil {
		return "", err
	}

	id := xid.New().String()
	m.docs[id] = d
	m.order = append(m.order, id)
	return id, nil
}

func (m *Memory) Get(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(err)
	}
	if !isValidID(id) {
		return nil, ErrInvalidID
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m.out(id, d), nil
}

func (m *Memory) List(ctx context.Context, limit int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(err)
	}
	limit = normalizeLimit(limit)

	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]Document, 0, min(limit, len(m.order)))
	for _, id := range m.order {
		if len(docs) == limit {
			break
		}
		docs = append(docs, m.out(id, m.docs[id]))
	}
	return docs, nil
}

func (m *Memory) Update(ctx context.Context, id string, partial Document) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, unavailable(err)
	}
	if !isValidID(id) {
		return false, ErrInvalidID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.docs[id]
	if !ok {
		return false, nil
	}

	merged := d.clone()
	modified := false
	for k, v := range withoutID(partial) {
		if old, exists := merged[k]; !exists || !reflect.DeepEqual(old, v) {
			modified = true
		}
		merged[k] = v
	}
	if !modified {
		return false, nil
	}
	if err := m.checkUnique(merged, id); err != nil {
		return false, err
	}

	m.docs[id] = merged
	return true, nil
}

func (m *Memory) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, unavailable(err)
	}
	if !isValidID(id) {
		return false, ErrInvalidID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; !ok {
		return false, nil
	}
	delete(m.docs, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (m *Memory) FindOneBy(ctx context.Context, field string, value interface{}) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.order {
		d := m.docs[id]
		if field == IDField && id == value {
			return m.out(id, d), nil
		}
		if v, ok := d[field]; ok && reflect.DeepEqual(v, value) {
			return m.out(id, d), nil
		}
	}
	return nil, ErrNotFound
}

// checkUnique must be called with mu held. self is skipped so a document
// never conflicts with itself on update.
func (m *Memory) checkUnique(d Document, self string) error {
	for field := range m.unique {
		v, ok := d[field]
		if !ok {
			continue
		}
		for id, other := range m.docs {
			if w, ok := other[field]; ok && id != self && reflect.DeepEqual(w, v) {
				return errors.Wrap(ErrDuplicate, field)
			}
		}
	}
	return nil
}

func (m *Memory) out(id string, d Document) Document {
	c := d.clone()
	c[IDField] = id
	return c
}

func isValidID(id string) bool {
	_, err := xid.FromString(id)
	return err == nil
}
