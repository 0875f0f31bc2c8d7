// Package store provides access to a single collection of schema-less
// documents addressed by store-assigned string ids.
package store

import (
	"github.com/pkg/errors"
)

// DefaultLimit bounds List when no positive limit is given.
const DefaultLimit = 100

// IDField is the key under which every returned document carries its id.
const IDField = "_id"

// Document is a JSON-like record. Documents returned by the adapters
// always carry their id under IDField as a string.
type Document map[string]interface{}

var (
	ErrNotFound    = errors.New("document not found")
	ErrInvalidID   = errors.New("invalid document id")
	ErrDuplicate   = errors.New("duplicate key")
	ErrUnavailable = errors.New("store unavailable")
)

// ID returns the id carried by the document, or "" if it has none.
func (d Document) ID() string {
	id, _ := d[IDField].(string)
	return id
}

func (d Document) clone() Document {
	c := make(Document, len(d))
	for k, v := range d {
		c[k] = v
	}
	return c
}

func withoutID(d Document) Document {
	c := d.clone()
	delete(c, IDField)
	return c
}

func unavailable(err error) error {
	return errors.Wrap(ErrUnavailable, err.Error())
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
