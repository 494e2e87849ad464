package domain

// Stage names one of the correction steps applied before writing.
type Stage string

const (
	StageNoCorrections        Stage = "no corrections"
	StageExpectedLinesLowered Stage = "expected lines lowered"
	StageHeaderLinesLowered   Stage = "header lines lowered"
)

// StageDump is the block structure and line count observed after a stage.
type StageDump struct {
	Stage     Stage
	Structure string
	LineCount int
}
