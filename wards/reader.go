package wards

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/liamcoop/wardline/internal/logger"
)

// ErrNotFound is returned when no ward has the requested id
var ErrNotFound = errors.New("ward not found")

// catalog is the on-disk layout of wards.json
type catalog struct {
	Wards []Ward `json:"wards"`
}

// Reader loads wards from a static JSON catalog.
// The file is read on every call so a replaced catalog is picked up without a restart.
type Reader struct {
	path string
}

// NewReader creates a reader for the catalog at path
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// Load reads the full catalog
func (r *Reader) Load(ctx context.Context) ([]Ward, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ward catalog: %w", err)
	}

	var c catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse ward catalog: %w", err)
	}

	return c.Wards, nil
}

// GetByID returns the ward with the given id.
// Read failures are logged and reported as ErrNotFound.
func (r *Reader) GetByID(ctx context.Context, id int) (*Ward, error) {
	all, err := r.Load(ctx)
	if err != nil {
		logger.Error("Error loading ward data", "error", err, "path", r.path)
		return nil, fmt.Errorf("ward %d: %w", id, ErrNotFound)
	}

	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("ward %d: %w", id, ErrNotFound)
}

// Search returns wards whose name, alderman name or any platform contains
// query, ignoring case. Results keep catalog order. Read failures yield an empty result.
func (r *Reader) Search(ctx context.Context, query string) []Ward {
	all, err := r.Load(ctx)
	if err != nil {
		logger.Error("Error loading ward data", "error", err, "path", r.path)
		return []Ward{}
	}

	q := strings.ToLower(query)
	matches := []Ward{}
	for _, w := range all {
		if w.Matches(q) {
			matches = append(matches, w)
		}
	}
	return matches
}

// Matches reports whether the lower-cased query occurs in the ward name,
// the alderman name or one of the alderman's platforms.
func (w Ward) Matches(lowerQuery string) bool {
	if strings.Contains(strings.ToLower(w.Name), lowerQuery) {
		return true
	}
	if strings.Contains(strings.ToLower(w.Alderman.Name), lowerQuery) {
		return true
	}
	for _, p := range w.Alderman.Platforms {
		if strings.Contains(strings.ToLower(p), lowerQuery) {
			return true
		}
	}
	return false
}
