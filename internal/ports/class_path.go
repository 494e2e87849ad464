package ports

import (
	"context"
	"io"

	"github.com/jdecomp/jdecomp/internal/classfile"
)

// ClassLoader resolves referenced types by internal name ("java/util/List").
// A type that cannot be found yields an error wrapping domain.ErrClassNotFound.
type ClassLoader interface {
	LoadClass(name string) (*classfile.Class, error)
}

// ClassSource is a class loader whose contents can be enumerated, such as a
// directory tree or a jar.
type ClassSource interface {
	ClassLoader
	ClassNames(ctx context.Context) ([]string, error)
	ReadClass(ctx context.Context, name string) ([]byte, error)
}

type ClassPath interface {
	ClassLoader
	io.Closer
}

type ClassArchive interface {
	ClassSource
	io.Closer
}

// ClassPathOpener turns class path entries (directories and jars) into
// loaders.
type ClassPathOpener interface {
	OpenClassPath(entries ...string) (ClassPath, error)
	OpenArchive(path string) (ClassArchive, error)
}
