package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/jdecomp/jdecomp/internal/classfile"
	"github.com/jdecomp/jdecomp/internal/decompiler"
	"github.com/jdecomp/jdecomp/internal/domain"
	"github.com/jdecomp/jdecomp/internal/ports"
)

type Service struct {
	opener    ports.ClassPathOpener
	classPath []string
	logger    *zap.Logger
}

// NewService wires a service. With a nil opener no class path is consulted
// and imports are not checked.
func NewService(opener ports.ClassPathOpener, classPath []string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		opener:    opener,
		classPath: classPath,
		logger:    logger,
	}
}

// Reconstruct decompiles the class file at input and applies the line
// corrections, capturing the block structure before and after each one.
func (s *Service) Reconstruct(ctx context.Context, input string) (Reconstruction, error) {
	if err := ctx.Err(); err != nil {
		return Reconstruction{}, err
	}

	class, err := classfile.ReadFile(input)
	if err != nil {
		return Reconstruction{}, fmt.Errorf("read class file %q: %w", input, err)
	}
	name, err := class.Name()
	if err != nil {
		return Reconstruction{}, fmt.Errorf("read class file %q: %w", input, err)
	}

	loader, err := s.openClassPath(classRoot(input, name))
	if err != nil {
		return Reconstruction{}, err
	}
	if loader != nil {
		defer func() {
			if closeErr := loader.Close(); closeErr != nil {
				s.logger.Warn("close class path", zap.Error(closeErr))
			}
		}()
	}

	blocks, err := s.blockList(class, loader)
	if err != nil {
		return Reconstruction{}, fmt.Errorf("decompile %q: %w", input, err)
	}

	s.logger.Debug("decompiled class", zap.String("class", name), zap.String("input", input))

	return Reconstruction{
		ClassName: name,
		Stages:    applyCorrections(blocks),
		Lines:     blocks.Lines(),
	}, nil
}

// WriteSource writes lines to path, replacing any existing file.
func (s *Service) WriteSource(ctx context.Context, path string, lines []domain.SourceLine, opts domain.WriteOptions) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write source file %q: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("write source file %q: %w", path, closeErr))
		}
	}()

	if err := decompiler.WriteLines(file, lines, opts); err != nil {
		return fmt.Errorf("write source file %q: %w", path, err)
	}

	return nil
}

// Inspect summarizes the class file at input without decompiling it.
func (s *Service) Inspect(ctx context.Context, input string) (domain.ClassSummary, error) {
	if err := ctx.Err(); err != nil {
		return domain.ClassSummary{}, err
	}

	class, err := classfile.ReadFile(input)
	if err != nil {
		return domain.ClassSummary{}, fmt.Errorf("read class file %q: %w", input, err)
	}

	summary, err := summarize(class)
	if err != nil {
		return domain.ClassSummary{}, fmt.Errorf("inspect %q: %w", input, err)
	}

	return summary, nil
}

// classRoot returns the class path root holding a class file: one directory
// up from path per package segment of its internal name.
func classRoot(path, internalName string) string {
	dir := filepath.Dir(path)
	for i := strings.Count(internalName, "/"); i > 0; i-- {
		dir = filepath.Dir(dir)
	}

	return dir
}

func (s *Service) openClassPath(extra ...string) (ports.ClassPath, error) {
	if s.opener == nil {
		return nil, nil
	}

	entries := append(append([]string(nil), s.classPath...), extra...)
	loader, err := s.opener.OpenClassPath(entries...)
	if err != nil {
		return nil, fmt.Errorf("open class path: %w", err)
	}

	return loader, nil
}

func (s *Service) blockList(class *classfile.Class, loader ports.ClassLoader) (*domain.BlockList, error) {
	d, err := decompiler.New(decompiler.Java, class, loader, decompiler.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}

	return d.BlockList()
}

// applyCorrections runs the line corrections in order and records the
// structure seen before the first and after each one.
func applyCorrections(blocks *domain.BlockList) []domain.StageDump {
	stages := make([]domain.StageDump, 0, 3)
	capture := func(stage domain.Stage) {
		var buf strings.Builder
		blocks.Dump(&buf, 0)
		stages = append(stages, domain.StageDump{
			Stage:     stage,
			Structure: buf.String(),
			LineCount: len(blocks.Lines()),
		})
	}

	capture(domain.StageNoCorrections)
	blocks.LowerExpectedLines(0)
	capture(domain.StageExpectedLinesLowered)
	blocks.LowerHeaderLines()
	capture(domain.StageHeaderLinesLowered)

	return stages
}

func summarize(class *classfile.Class) (domain.ClassSummary, error) {
	name, err := class.Name()
	if err != nil {
		return domain.ClassSummary{}, err
	}
	super, err := class.SuperName()
	if err != nil {
		return domain.ClassSummary{}, err
	}
	ifaces, err := class.InterfaceNames()
	if err != nil {
		return domain.ClassSummary{}, err
	}
	source, _ := class.SourceFile()

	summary := domain.ClassSummary{
		Name:         name,
		SourceFile:   source,
		MajorVersion: int(class.MajorVersion),
		MinorVersion: int(class.MinorVersion),
		Access:       decompiler.ClassAccessNames(class.AccessFlags),
		Super:        super,
	}
	if len(ifaces) > 0 {
		summary.Interfaces = ifaces
	}

	for i := range class.Fields {
		f := &class.Fields[i]
		summary.Fields = append(summary.Fields, domain.MemberSummary{
			Name:       f.Name,
			Descriptor: f.Descriptor,
			Access:     decompiler.AccessNames(f.AccessFlags, false),
		})
	}

	for i := range class.Methods {
		m := &class.Methods[i]
		member := domain.MemberSummary{
			Name:       m.Name,
			Descriptor: m.Descriptor,
			Access:     decompiler.AccessNames(m.AccessFlags, true),
		}

		code, err := class.Code(m)
		if err != nil {
			return domain.ClassSummary{}, fmt.Errorf("method %s%s: %w", m.Name, m.Descriptor, err)
		}
		if code != nil {
			member.CodeLength = len(code.Bytecode)
			member.FirstLine, member.LastLine = code.LineRange()
		}
		summary.Methods = append(summary.Methods, member)
	}

	return summary, nil
}
