package classpath

import (
	"fmt"
	"os"

	"github.com/jdecomp/jdecomp/internal/ports"
)

// Opener opens class path entries from the local file system.
type Opener struct{}

var _ ports.ClassPathOpener = Opener{}

func (Opener) OpenClassPath(entries ...string) (ports.ClassPath, error) {
	return Open(entries...)
}

// OpenArchive opens a directory tree or a jar for enumeration.
func (Opener) OpenArchive(path string) (ports.ClassArchive, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open class archive: %w", err)
	}
	if info.IsDir() {
		return NewDir(path)
	}

	return OpenJar(path)
}
