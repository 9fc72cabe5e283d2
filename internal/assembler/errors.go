package assembler

import "errors"

var (
	// ErrNothingToAssemble is returned when there is neither a cover nor
	// any exported document.
	ErrNothingToAssemble = errors.New("nothing to assemble: no cover and no exported documents")

	// ErrLengthMismatch is returned when nodes and page counts differ in length.
	ErrLengthMismatch = errors.New("node and page count lists differ in length")

	// ErrInvalidPageCount is returned for documents without pages.
	ErrInvalidPageCount = errors.New("invalid page count")

	// ErrPageCountMismatch is returned when the merged document does not
	// have the expected number of pages.
	ErrPageCountMismatch = errors.New("merged document page count mismatch")

	// ErrEmptyOutputPath is returned when no output path is given.
	ErrEmptyOutputPath = errors.New("output path is empty")
)
