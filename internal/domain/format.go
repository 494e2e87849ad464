package domain

import "runtime"

// WriteOptions controls how source lines are laid out in the output file.
type WriteOptions struct {
	Indent             string
	LineSeparator      string
	RespectLineNumbers bool
	DumpLineNumbers    bool
}

// PlatformLineSeparator returns the native line separator of the host.
func PlatformLineSeparator() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}

	return "\n"
}

// DefaultWriteOptions matches the layout the driver has always produced.
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{
		Indent:             "    ",
		LineSeparator:      PlatformLineSeparator(),
		RespectLineNumbers: true,
		DumpLineNumbers:    true,
	}
}
