package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/jdecomp/jdecomp/internal/adapters/classpath"
	"github.com/jdecomp/jdecomp/internal/adapters/config"
	dumpadapter "github.com/jdecomp/jdecomp/internal/adapters/render/dump"
	"github.com/jdecomp/jdecomp/internal/application"
	"github.com/jdecomp/jdecomp/internal/domain"
)

const (
	colorAuto   = "auto"
	colorAlways = "always"
	colorNever  = "never"
)

type app struct {
	cfg          config.Config
	logger       *zap.Logger
	service      *application.Service
	dumpRenderer func(domain.StageDump, dumpadapter.Options) (string, error)
	color        bool
	progress     bool
}

func wireApp(cfg config.Config, logger *zap.Logger) *app {
	return &app{
		cfg:          cfg,
		logger:       logger,
		service:      application.NewService(classpath.Opener{}, cfg.ClassPath, logger),
		dumpRenderer: dumpadapter.Render,
	}
}

// colorEnabled resolves a --color mode against the writer dumps go to.
func colorEnabled(w io.Writer, mode string) (bool, error) {
	switch strings.ToLower(mode) {
	case colorAlways:
		return true, nil
	case colorNever:
		return false, nil
	case "", colorAuto:
		if os.Getenv("NO_COLOR") != "" {
			return false, nil
		}
		return isTerminal(w), nil
	default:
		return false, fmt.Errorf("unknown color mode %q (want %s, %s or %s)", mode, colorAuto, colorAlways, colorNever)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
