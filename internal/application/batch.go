package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jdecomp/jdecomp/internal/classfile"
	"github.com/jdecomp/jdecomp/internal/ports"
)

const (
	javaSuffix    = ".java"
	outputDirMode = 0o755
)

var ErrNoClassPathOpener = errors.New("no class path opener configured")

// DecompileAll writes one Java file per class found in cmd.Source, laid out
// by package under cmd.OutputDir. A class that fails is recorded in its item
// and does not stop the others; the returned error joins those failures.
func (s *Service) DecompileAll(ctx context.Context, cmd BatchCommand, progress BatchProgress) (BatchResult, error) {
	if s.opener == nil {
		return BatchResult{}, ErrNoClassPathOpener
	}

	archive, err := s.opener.OpenArchive(cmd.Source)
	if err != nil {
		return BatchResult{}, fmt.Errorf("open batch source %q: %w", cmd.Source, err)
	}
	defer func() {
		if closeErr := archive.Close(); closeErr != nil {
			s.logger.Warn("close batch source", zap.String("source", cmd.Source), zap.Error(closeErr))
		}
	}()

	names, err := archive.ClassNames(ctx)
	if err != nil {
		return BatchResult{}, fmt.Errorf("list classes in %q: %w", cmd.Source, err)
	}

	loader, err := s.openClassPath(cmd.Source)
	if err != nil {
		return BatchResult{}, err
	}
	defer func() {
		if closeErr := loader.Close(); closeErr != nil {
			s.logger.Warn("close class path", zap.Error(closeErr))
		}
	}()

	workers := cmd.Workers
	if workers < 1 {
		workers = 1
	}

	result := BatchResult{Items: make([]BatchItem, len(names))}
	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			item := s.decompileClass(gctx, archive, loader, name, cmd)
			result.Items[i] = item

			mu.Lock()
			done++
			if progress != nil {
				progress(done, len(names), item)
			}
			mu.Unlock()

			if item.Err != nil {
				s.logger.Warn("decompile class", zap.String("class", name), zap.Error(item.Err))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	var errs []error
	for _, item := range result.Items {
		if item.Err != nil {
			errs = append(errs, item.Err)
		}
	}
	if len(errs) > 0 {
		return result, fmt.Errorf("decompile %d of %d classes failed: %w", len(errs), len(names), errors.Join(errs...))
	}

	return result, nil
}

func (s *Service) decompileClass(ctx context.Context, archive ports.ClassSource, loader ports.ClassLoader, name string, cmd BatchCommand) BatchItem {
	item := BatchItem{
		ClassName: name,
		Output:    filepath.Join(cmd.OutputDir, filepath.FromSlash(name)+javaSuffix),
	}

	fail := func(err error) BatchItem {
		item.Err = fmt.Errorf("decompile %s: %w", name, err)
		return item
	}

	data, err := archive.ReadClass(ctx, name)
	if err != nil {
		return fail(err)
	}
	class, err := classfile.Parse(data)
	if err != nil {
		return fail(err)
	}
	if item.Summary, err = summarize(class); err != nil {
		return fail(err)
	}

	blocks, err := s.blockList(class, loader)
	if err != nil {
		return fail(err)
	}
	blocks.LowerExpectedLines(0)
	blocks.LowerHeaderLines()

	if err := os.MkdirAll(filepath.Dir(item.Output), outputDirMode); err != nil {
		return fail(fmt.Errorf("create output directory: %w", err))
	}
	if err := s.WriteSource(ctx, item.Output, blocks.Lines(), cmd.Options); err != nil {
		return fail(err)
	}

	s.logger.Debug("wrote class", zap.String("class", name), zap.String("output", item.Output))
	return item
}
