package classpath

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jdecomp/jdecomp/internal/classfile"
	"github.com/jdecomp/jdecomp/internal/domain"
	"github.com/jdecomp/jdecomp/internal/ports"
)

// Jar serves classes from a jar (zip) archive. Entries can be read
// concurrently.
type Jar struct {
	path    string
	archive *zip.ReadCloser
	entries map[string]*zip.File
}

var _ ports.ClassSource = (*Jar)(nil)

func OpenJar(path string) (*Jar, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open jar: %w", err)
	}

	entries := make(map[string]*zip.File, len(archive.File))
	for _, f := range archive.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, classSuffix) {
			continue
		}
		// multi-release and module metadata are not classes of the archive
		if strings.HasPrefix(f.Name, "META-INF/") || f.Name == "module-info.class" {
			continue
		}
		entries[strings.TrimSuffix(f.Name, classSuffix)] = f
	}

	return &Jar{path: path, archive: archive, entries: entries}, nil
}

func (j *Jar) Close() error {
	return j.archive.Close()
}

func (j *Jar) ReadClass(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, ok := j.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrClassNotFound, name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s in %s: %w", f.Name, j.path, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s in %s: %w", f.Name, j.path, err)
	}

	return data, nil
}

func (j *Jar) LoadClass(name string) (*classfile.Class, error) {
	data, err := j.ReadClass(context.Background(), name)
	if err != nil {
		return nil, err
	}

	class, err := classfile.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse class %s: %w", name, err)
	}

	return class, nil
}

func (j *Jar) ClassNames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(j.entries))
	for name := range j.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}
