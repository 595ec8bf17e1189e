// Package storage is the persistence core of the portal.  Tables are
// ordered sequences of schemaless records kept under one key each in
// a flat key-value Backend.  The Engine emulates insert/find/update/
// delete over those sequences and the Proxy wraps it with an access
// check and an audit log.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// Record is one row of a table.  Values follow JSON typing: numbers
// are float64, arrays are []any and objects are map[string]any.
type Record map[string]any

// Criteria maps field names to the value each field must equal.  A
// record matches when every listed field is equal (logical AND).
type Criteria map[string]any

// Operation names the kind of access being performed.  It is passed
// to the access policy and recorded in the audit log.
type Operation string

const (
	OpInsert  Operation = "INSERT"
	OpSelect  Operation = "SELECT"
	OpScan    Operation = "SELECT_ALL"
	OpUpdate  Operation = "UPDATE"
	OpDelete  Operation = "DELETE"
	OpConnect Operation = "CONNECT"
)

// ErrAccessDenied is returned by the Proxy when its policy rejects an
// operation.  The engine is not touched in that case.
var ErrAccessDenied = errors.New("access denied")

// DataAccess is the contract shared by the Engine and the Proxy.
// Absence is never an error: FindOne reports it with false and
// FindAll returns an empty slice.
type DataAccess interface {
	Insert(ctx context.Context, table string, rec Record) error
	FindOne(ctx context.Context, table string, c Criteria) (Record, bool, error)
	FindAll(ctx context.Context, table string) ([]Record, error)
	Update(ctx context.Context, table string, c Criteria, patch Record) (int, error)
	Delete(ctx context.Context, table string, c Criteria) (int, error)
}

// Match reports whether rec satisfies every field in c.  Criteria
// values must already be normalised (see normalize); comparison is
// exact and never coerces across JSON types.
func Match(rec Record, c Criteria) bool {
	for k, want := range c {
		got, ok := rec[k]
		if !ok {
			return false
		}
		if !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// Filter returns the records of rows matching c, preserving order.
func Filter(rows []Record, c Criteria) ([]Record, error) {
	nc, err := normalize(c)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		if Match(r, nc) {
			out = append(out, r)
		}
	}
	return out, nil
}

// normalize pushes criteria through JSON so that Go values compare
// the same way stored values do (an int 5 becomes float64 5, a typed
// string becomes a plain string).
func normalize(c Criteria) (Criteria, error) {
	if len(c) == 0 {
		return Criteria{}, nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode criteria: %w", err)
	}
	var out Criteria
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode criteria: %w", err)
	}
	return out, nil
}

// ToRecord converts a struct (or map) to a Record using its JSON
// field names.
func ToRecord(v any) (Record, error) {
	if r, ok := v.(Record); ok {
		return r.clone()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if r == nil {
		return nil, errors.New("record must be a JSON object")
	}
	return r, nil
}

// FromRecord decodes a Record into T using its JSON field names.
func FromRecord[T any](r Record) (T, error) {
	var out T
	b, err := json.Marshal(r)
	if err != nil {
		return out, fmt.Errorf("encode record: %w", err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("decode record: %w", err)
	}
	return out, nil
}

func (r Record) clone() (Record, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var out Record
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return out, nil
}
