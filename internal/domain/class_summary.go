package domain

// ClassSummary is a javap-like overview of a class file.
type ClassSummary struct {
	Name         string
	SourceFile   string
	MajorVersion int
	MinorVersion int
	Access       []string
	Super        string
	Interfaces   []string
	Fields       []MemberSummary
	Methods      []MemberSummary
}

type MemberSummary struct {
	Name       string
	Descriptor string
	Access     []string
	// Methods only.
	CodeLength int
	FirstLine  int
	LastLine   int
}
