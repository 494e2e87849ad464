// Package classpath loads classes from directory trees and jar files.
package classpath

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jdecomp/jdecomp/internal/classfile"
	"github.com/jdecomp/jdecomp/internal/domain"
	"github.com/jdecomp/jdecomp/internal/ports"
)

const classSuffix = ".class"

// Dir serves classes laid out by package under a root directory.
type Dir struct {
	root string
}

var _ ports.ClassSource = (*Dir)(nil)

func NewDir(root string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve class directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open class directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open class directory: %s is not a directory", abs)
	}

	return &Dir{root: abs}, nil
}

func (d *Dir) Root() string {
	return d.root
}

// Close is a no-op; directories hold no open handles.
func (d *Dir) Close() error {
	return nil
}

func (d *Dir) path(name string) string {
	return filepath.Join(d.root, filepath.FromSlash(name)+classSuffix)
}

func (d *Dir) ReadClass(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(d.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrClassNotFound, name)
		}
		return nil, fmt.Errorf("read class %s: %w", name, err)
	}

	return data, nil
}

func (d *Dir) LoadClass(name string) (*classfile.Class, error) {
	data, err := d.ReadClass(context.Background(), name)
	if err != nil {
		return nil, err
	}

	class, err := classfile.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse class %s: %w", name, err)
	}

	return class, nil
}

// ClassNames lists every class file below the root as an internal name, in
// lexical order.
func (d *Dir) ClassNames(ctx context.Context) ([]string, error) {
	var names []string
	err := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), classSuffix) {
			return nil
		}

		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			return err
		}
		names = append(names, strings.TrimSuffix(filepath.ToSlash(rel), classSuffix))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list class directory: %w", err)
	}

	sort.Strings(names)
	return names, nil
}
