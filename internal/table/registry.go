package table

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"
)

// validName matches table names accepted by Create.
var validName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Store persists whole-table snapshots keyed by (scope, name).
// Implementations live in internal/storage.
type Store interface {
	// Read returns the table and true, or false if it does not exist.
	Read(ctx context.Context, scope, name string) (Table, bool, error)
	// Write replaces the stored table.
	Write(ctx context.Context, scope, name string, t Table) error
	// Delete removes the table. Deleting a missing table is not an error.
	Delete(ctx context.Context, scope, name string) error
	// ListNames returns the table names in scope; an unknown scope yields none.
	ListNames(ctx context.Context, scope string) ([]string, error)
}

// ValidName reports whether name is an acceptable table name.
func ValidName(name string) bool {
	return validName.MatchString(name)
}

// Registry is the per-scope namespace of tables.
// It holds no table data itself: every operation reads the snapshot from the
// store, applies the change to a private copy and writes it back before
// reporting success.
type Registry struct {
	store Store

	mu    sync.Mutex
	locks map[key]*sync.Mutex
}

type key struct {
	scope string
	name  string
}

// NewRegistry creates a registry backed by store.
func NewRegistry(store Store) *Registry {
	return &Registry{
		store: store,
		locks: make(map[key]*sync.Mutex),
	}
}

// lock serializes read-modify-persist cycles for one table.
func (r *Registry) lock(scope, name string) func() {
	k := key{scope: scope, name: name}
	r.mu.Lock()
	l, ok := r.locks[k]
	if !ok {
		l = &sync.Mutex{}
		r.locks[k] = l
	}
	r.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Create adds an empty table to scope.
func (r *Registry) Create(ctx context.Context, scope, name string) error {
	if !ValidName(name) {
		return &TableError{Scope: scope, Name: name, Err: ErrInvalidName}
	}

	unlock := r.lock(scope, name)
	defer unlock()

	_, found, err := r.store.Read(ctx, scope, name)
	if err != nil {
		return fmt.Errorf("%w: reading table %q: %v", ErrPersistence, name, err)
	}
	if found {
		return &TableError{Scope: scope, Name: name, Err: ErrAlreadyExists}
	}

	if err := r.store.Write(ctx, scope, name, New()); err != nil {
		return fmt.Errorf("%w: writing table %q: %v", ErrPersistence, name, err)
	}
	return nil
}

// Get returns a handle to an existing table.
func (r *Registry) Get(ctx context.Context, scope, name string) (*Handle, error) {
	_, found, err := r.store.Read(ctx, scope, name)
	if err != nil {
		return nil, fmt.Errorf("%w: reading table %q: %v", ErrPersistence, name, err)
	}
	if !found {
		return nil, &TableError{Scope: scope, Name: name, Err: ErrNotFound}
	}
	return &Handle{registry: r, scope: scope, name: name}, nil
}

// List returns the sorted table names in scope.
func (r *Registry) List(ctx context.Context, scope string) ([]string, error) {
	names, err := r.store.ListNames(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("%w: listing tables: %v", ErrPersistence, err)
	}
	sort.Strings(names)
	return names, nil
}

// Delete permanently removes a table.
func (r *Registry) Delete(ctx context.Context, scope, name string) error {
	unlock := r.lock(scope, name)
	defer unlock()

	_, found, err := r.store.Read(ctx, scope, name)
	if err != nil {
		return fmt.Errorf("%w: reading table %q: %v", ErrPersistence, name, err)
	}
	if !found {
		return &TableError{Scope: scope, Name: name, Err: ErrNotFound}
	}
	if err := r.store.Delete(ctx, scope, name); err != nil {
		return fmt.Errorf("%w: deleting table %q: %v", ErrPersistence, name, err)
	}
	return nil
}

// update runs fn against a copy of the stored table and persists the copy
// only if fn succeeds.
func (r *Registry) update(ctx context.Context, scope, name string, fn func(t *Table) error) error {
	unlock := r.lock(scope, name)
	defer unlock()

	current, found, err := r.store.Read(ctx, scope, name)
	if err != nil {
		return fmt.Errorf("%w: reading table %q: %v", ErrPersistence, name, err)
	}
	if !found {
		return &TableError{Scope: scope, Name: name, Err: ErrNotFound}
	}

	next := current.Clone()
	if err := fn(&next); err != nil {
		return err
	}

	if err := r.store.Write(ctx, scope, name, next); err != nil {
		return fmt.Errorf("%w: writing table %q: %v", ErrPersistence, name, err)
	}
	return nil
}

// Handle addresses one table in a registry. Each method is a complete
// read-modify-persist transaction.
type Handle struct {
	registry *Registry
	scope    string
	name     string
}

// Name returns the table name.
func (h *Handle) Name() string {
	return h.name
}

// Scope returns the scope the table lives in.
func (h *Handle) Scope() string {
	return h.scope
}

// Snapshot returns a copy of the current table contents.
func (h *Handle) Snapshot(ctx context.Context) (Table, error) {
	t, found, err := h.registry.store.Read(ctx, h.scope, h.name)
	if err != nil {
		return Table{}, fmt.Errorf("%w: reading table %q: %v", ErrPersistence, h.name, err)
	}
	if !found {
		return Table{}, &TableError{Scope: h.scope, Name: h.name, Err: ErrNotFound}
	}
	return t.Clone(), nil
}

// AddColumn appends a column.
func (h *Handle) AddColumn(ctx context.Context, column string) error {
	return h.registry.update(ctx, h.scope, h.name, func(t *Table) error {
		t.AddColumn(column)
		return nil
	})
}

// RemoveColumn drops a column.
func (h *Handle) RemoveColumn(ctx context.Context, column string) error {
	return h.registry.update(ctx, h.scope, h.name, func(t *Table) error {
		return t.RemoveColumn(column)
	})
}

// AddRow appends a row.
func (h *Handle) AddRow(ctx context.Context, values []string) error {
	return h.registry.update(ctx, h.scope, h.name, func(t *Table) error {
		return t.AddRow(values)
	})
}

// EditRow replaces a row (1-indexed).
func (h *Handle) EditRow(ctx context.Context, index int, values []string) error {
	return h.registry.update(ctx, h.scope, h.name, func(t *Table) error {
		return t.EditRow(index, values)
	})
}

// EditCell sets one cell (1-indexed row).
func (h *Handle) EditCell(ctx context.Context, index int, column, value string) error {
	return h.registry.update(ctx, h.scope, h.name, func(t *Table) error {
		return t.EditCell(index, column, value)
	})
}

// RemoveRow deletes a row (1-indexed) and returns its cells.
func (h *Handle) RemoveRow(ctx context.Context, index int) ([]string, error) {
	var removed []string
	err := h.registry.update(ctx, h.scope, h.name, func(t *Table) error {
		var err error
		removed, err = t.RemoveRow(index)
		return err
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// RenameColumn relabels a column.
func (h *Handle) RenameColumn(ctx context.Context, oldName, newName string) error {
	return h.registry.update(ctx, h.scope, h.name, func(t *Table) error {
		return t.RenameColumn(oldName, newName)
	})
}

// Clear removes all rows.
func (h *Handle) Clear(ctx context.Context) error {
	return h.registry.update(ctx, h.scope, h.name, func(t *Table) error {
		t.Clear()
		return nil
	})
}
