package domain

import "errors"

var (
	ErrUsage               = errors.New("usage: jdecomp <class-file-in> <java-file-out>")
	ErrClassNotFound       = errors.New("class not found")
	ErrUnsupportedLanguage = errors.New("unsupported target language")
)
