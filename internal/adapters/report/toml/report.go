// Package toml stores class summaries as TOML reports.
package toml

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/jdecomp/jdecomp/internal/domain"
)

const (
	reportDirMode   = 0o755
	reportFileMode  = 0o644
	tempFilePattern = ".report-*.toml"
)

var ErrReportNotFound = errors.New("report not found")

// Encode writes summaries to w as a single report document.
func Encode(w io.Writer, summaries ...domain.ClassSummary) error {
	data, err := marshal(summaries)
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

// WriteFile replaces the report at path. The file is written to a temporary
// sibling first and renamed into place.
func WriteFile(path string, summaries ...domain.ClassSummary) error {
	data, err := marshal(summaries)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), reportDirMode); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp report file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp report file: %w", err)
	}

	if err := tempFile.Chmod(reportFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp report file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp report file: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace report file: %w", err)
	}

	cleanup = false

	return nil
}

// MergeFile adds summaries to the report at path, creating it when missing.
// A stored class with the same name is replaced in place; new classes are
// appended in the order given.
func MergeFile(path string, summaries ...domain.ClassSummary) error {
	existing, err := ReadFile(path)
	if err != nil && !errors.Is(err, ErrReportNotFound) {
		return err
	}

	at := make(map[string]int, len(existing))
	for i, s := range existing {
		at[s.Name] = i
	}
	for _, s := range summaries {
		if i, ok := at[s.Name]; ok {
			existing[i] = s
			continue
		}
		at[s.Name] = len(existing)
		existing = append(existing, s)
	}

	return WriteFile(path, existing...)
}

// ReadFile loads the summaries stored at path.
func ReadFile(path string) ([]domain.ClassSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrReportNotFound, path)
		}
		return nil, fmt.Errorf("read report file: %w", err)
	}

	var file reportSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode report file: %w", err)
	}
	file.applyDefaults()
	if err := file.validateVersion(); err != nil {
		return nil, err
	}

	summaries := make([]domain.ClassSummary, 0, len(file.Classes))
	for _, entry := range file.Classes {
		summaries = append(summaries, fromClassSchema(entry))
	}

	return summaries, nil
}

func marshal(summaries []domain.ClassSummary) ([]byte, error) {
	file := reportSchema{Classes: make([]classSchema, 0, len(summaries))}
	file.applyDefaults()
	for _, s := range summaries {
		file.Classes = append(file.Classes, toClassSchema(s))
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}

	return data, nil
}
