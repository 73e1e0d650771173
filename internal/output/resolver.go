package output

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
)

// Lister lists the file names stored in a directory relative to the output
// root. A missing directory lists as empty.
type Lister interface {
	ListNames(ctx context.Context, dir string) ([]string, error)
}

// DuplicateOutputError reports a name that already exists in its directory.
type DuplicateOutputError struct {
	Dir  string
	Name string
}

func (e *DuplicateOutputError) Error() string {
	return fmt.Sprintf("a file named %q already exists in %q", e.Name, e.Dir)
}

// Resolver hands out destination names. The existence check and the claim
// of a name happen under one lock, so concurrent songs resolving to the same
// name cannot both proceed.
type Resolver struct {
	lister Lister

	mu       sync.Mutex
	reserved map[string]struct{}
}

func NewResolver(lister Lister) *Resolver {
	return &Resolver{
		lister:   lister,
		reserved: make(map[string]struct{}),
	}
}

// Reservation is a claimed destination name.
type Reservation struct {
	Dir  string
	Name string

	resolver *Resolver
	key      string
}

// Release gives the name back, for songs that failed before writing.
func (r *Reservation) Release() {
	r.resolver.mu.Lock()
	defer r.resolver.mu.Unlock()
	delete(r.resolver.reserved, r.key)
}

// Reserve claims name in dir. It fails with *DuplicateOutputError when a
// file in dir has the same name once its extension is stripped, or when the
// name is already claimed.
func (r *Resolver) Reserve(ctx context.Context, dir, name string) (*Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := dir + "\x00" + name
	if _, ok := r.reserved[key]; ok {
		return nil, &DuplicateOutputError{Dir: dir, Name: name}
	}

	existing, err := r.lister.ListNames(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	for _, file := range existing {
		if strings.TrimSuffix(file, path.Ext(file)) == name {
			return nil, &DuplicateOutputError{Dir: dir, Name: name}
		}
	}

	r.reserved[key] = struct{}{}
	return &Reservation{Dir: dir, Name: name, resolver: r, key: key}, nil
}
