package extract

import "errors"

var (
	// ErrUnsupportedFormat is returned for a FormatKind the extractor has no decoder for.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrCorruptFile is returned when the underlying parser cannot decode the bytes.
	ErrCorruptFile = errors.New("corrupt file")
	// ErrIO is returned when the file cannot be read or written.
	ErrIO = errors.New("file i/o")
)
