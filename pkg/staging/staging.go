package staging

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

// Store owns the staging tree: one directory per database under a common
// root, holding dump output or uploaded restore input.
type Store struct {
	root string

	mu    sync.Mutex
	locks map[string]*lock
}

type lock struct {
	sem  *semaphore.Weighted
	refs int
}

func New(root string) *Store {
	return &Store{
		root:  root,
		locks: make(map[string]*lock),
	}
}

func (s *Store) Root() string {
	return s.root
}

func (s *Store) EnsureRoot() error {
	return s.EnsureDir(s.root)
}

// PathFor does not sanitize the identifier, callers must validate it.
func (s *Store) PathFor(database string) string {
	return filepath.Join(s.root, database)
}

func (s *Store) EnsureDir(dir string) error {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return errors.Wrapf(err, "unable to create directory %s", dir)
	}

	return nil
}

// Lock blocks until no other holder of the same database lock remains or
// ctx is done. Locks on distinct databases do not contend.
func (s *Store) Lock(ctx context.Context, database string) (func(), error) {
	s.mu.Lock()
	l, ok := s.locks[database]
	if !ok {
		l = &lock{sem: semaphore.NewWeighted(1)}
		s.locks[database] = l
	}
	l.refs++
	s.mu.Unlock()

	if err := l.sem.Acquire(ctx, 1); err != nil {
		s.release(database, l)
		return nil, errors.Wrapf(err, "unable to lock staging directory of %q", database)
	}

	var once sync.Once

	return func() {
		once.Do(func() {
			l.sem.Release(1)
			s.release(database, l)
		})
	}, nil
}

func (s *Store) release(database string, l *lock) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(s.locks, database)
	}
}
