package table

import "errors"

var (
	// ErrConfig is returned when an engine or table definition is unusable.
	// Construction fails; there is no partially built engine.
	ErrConfig = errors.New("invalid table configuration")

	// ErrPageOutOfRange is returned when a page index is outside
	// [0, totalPages-1]. The engine state is left untouched.
	ErrPageOutOfRange = errors.New("page out of range")

	// ErrUnknownColumn is returned when sorting by a column the table
	// does not define.
	ErrUnknownColumn = errors.New("unknown column")
)
