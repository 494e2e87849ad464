package application

import (
	"github.com/jdecomp/jdecomp/internal/domain"
)

// Reconstruction is the outcome of decompiling a single class file.
type Reconstruction struct {
	ClassName string
	Stages    []domain.StageDump
	Lines     []domain.SourceLine
}

type BatchCommand struct {
	// Source is a directory tree of class files or a jar.
	Source    string
	OutputDir string
	Options   domain.WriteOptions
	// Workers bounds concurrent decompilation; values below 1 mean one.
	Workers int
}

type BatchItem struct {
	ClassName string
	Output    string
	Summary   domain.ClassSummary
	Err       error
}

type BatchResult struct {
	Items []BatchItem
}

// Failed counts items that could not be written.
func (r BatchResult) Failed() int {
	n := 0
	for _, item := range r.Items {
		if item.Err != nil {
			n++
		}
	}

	return n
}

// Summaries returns the summaries of every successfully written class.
func (r BatchResult) Summaries() []domain.ClassSummary {
	out := make([]domain.ClassSummary, 0, len(r.Items))
	for _, item := range r.Items {
		if item.Err == nil {
			out = append(out, item.Summary)
		}
	}

	return out
}

// BatchProgress reports that done of total classes have been handled.
type BatchProgress func(done, total int, item BatchItem)
