package classpath

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/jdecomp/jdecomp/internal/classfile"
	"github.com/jdecomp/jdecomp/internal/domain"
	"github.com/jdecomp/jdecomp/internal/ports"
)

// Chain asks each loader in turn, moving on only when a class is not found.
// Successful lookups are cached.
type Chain struct {
	loaders []ports.ClassLoader
	closers []io.Closer

	mu    sync.Mutex
	cache map[string]*classfile.Class
}

var _ ports.ClassLoader = (*Chain)(nil)

var errNilLoader = errors.New("class loader is nil")

func NewChain(loaders ...ports.ClassLoader) (*Chain, error) {
	for _, l := range loaders {
		if l == nil {
			return nil, errNilLoader
		}
	}

	return &Chain{loaders: loaders, cache: map[string]*classfile.Class{}}, nil
}

// Open builds a chain from class path entries: directories and .jar/.zip
// archives, in order.
func Open(entries ...string) (*Chain, error) {
	chain, _ := NewChain()
	for _, entry := range entries {
		if entry == "" {
			continue
		}

		info, err := os.Stat(entry)
		if err != nil {
			_ = chain.Close()
			return nil, fmt.Errorf("class path entry %q: %w", entry, err)
		}

		if info.IsDir() {
			dir, err := NewDir(entry)
			if err != nil {
				_ = chain.Close()
				return nil, err
			}
			chain.loaders = append(chain.loaders, dir)
			continue
		}

		lower := strings.ToLower(entry)
		if !strings.HasSuffix(lower, ".jar") && !strings.HasSuffix(lower, ".zip") {
			_ = chain.Close()
			return nil, fmt.Errorf("class path entry %q: not a directory or jar", entry)
		}
		jar, err := OpenJar(entry)
		if err != nil {
			_ = chain.Close()
			return nil, err
		}
		chain.loaders = append(chain.loaders, jar)
		chain.closers = append(chain.closers, jar)
	}

	return chain, nil
}

func (c *Chain) LoadClass(name string) (*classfile.Class, error) {
	c.mu.Lock()
	cached, ok := c.cache[name]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	var errs []error
	for _, l := range c.loaders {
		class, err := l.LoadClass(name)
		if err == nil {
			c.mu.Lock()
			c.cache[name] = class
			c.mu.Unlock()
			return class, nil
		}
		if !errors.Is(err, domain.ErrClassNotFound) {
			return nil, err
		}
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrClassNotFound, name)
	}
	return nil, errors.Join(errs...)
}

// Close releases opened archives.
func (c *Chain) Close() error {
	var errs []error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil

	return errors.Join(errs...)
}
