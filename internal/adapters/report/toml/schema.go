package toml

import (
	"fmt"

	"github.com/jdecomp/jdecomp/internal/domain"
)

const currentSchemaVersion = 1

type reportSchema struct {
	Version int           `toml:"version"`
	Classes []classSchema `toml:"classes"`
}

func (s *reportSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s reportSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported report schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type classSchema struct {
	Name       string         `toml:"name"`
	SourceFile string         `toml:"source_file,omitempty"`
	Version    versionSchema  `toml:"version"`
	Access     []string       `toml:"access"`
	Super      string         `toml:"super,omitempty"`
	Interfaces []string       `toml:"interfaces,omitempty"`
	Fields     []memberSchema `toml:"fields,omitempty"`
	Methods    []memberSchema `toml:"methods,omitempty"`
}

type versionSchema struct {
	Major int `toml:"major"`
	Minor int `toml:"minor"`
}

type memberSchema struct {
	Name       string   `toml:"name"`
	Descriptor string   `toml:"descriptor"`
	Access     []string `toml:"access"`
	CodeLength int      `toml:"code_length,omitempty"`
	FirstLine  int      `toml:"first_line,omitempty"`
	LastLine   int      `toml:"last_line,omitempty"`
}

func toClassSchema(summary domain.ClassSummary) classSchema {
	return classSchema{
		Name:       summary.Name,
		SourceFile: summary.SourceFile,
		Version:    versionSchema{Major: summary.MajorVersion, Minor: summary.MinorVersion},
		Access:     nonNil(summary.Access),
		Super:      summary.Super,
		Interfaces: summary.Interfaces,
		Fields:     toMemberSchemas(summary.Fields),
		Methods:    toMemberSchemas(summary.Methods),
	}
}

func fromClassSchema(entry classSchema) domain.ClassSummary {
	return domain.ClassSummary{
		Name:         entry.Name,
		SourceFile:   entry.SourceFile,
		MajorVersion: entry.Version.Major,
		MinorVersion: entry.Version.Minor,
		Access:       entry.Access,
		Super:        entry.Super,
		Interfaces:   entry.Interfaces,
		Fields:       fromMemberSchemas(entry.Fields),
		Methods:      fromMemberSchemas(entry.Methods),
	}
}

func toMemberSchemas(members []domain.MemberSummary) []memberSchema {
	if len(members) == 0 {
		return nil
	}

	out := make([]memberSchema, len(members))
	for i, m := range members {
		out[i] = memberSchema{
			Name:       m.Name,
			Descriptor: m.Descriptor,
			Access:     nonNil(m.Access),
			CodeLength: m.CodeLength,
			FirstLine:  m.FirstLine,
			LastLine:   m.LastLine,
		}
	}

	return out
}

func fromMemberSchemas(entries []memberSchema) []domain.MemberSummary {
	if len(entries) == 0 {
		return nil
	}

	out := make([]domain.MemberSummary, len(entries))
	for i, e := range entries {
		out[i] = domain.MemberSummary{
			Name:       e.Name,
			Descriptor: e.Descriptor,
			Access:     e.Access,
			CodeLength: e.CodeLength,
			FirstLine:  e.FirstLine,
			LastLine:   e.LastLine,
		}
	}

	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}
