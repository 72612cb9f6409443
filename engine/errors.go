package engine

import "errors"

// Error taxonomy. All evaluation errors wrap one of these sentinels, so
// callers can classify failures with errors.Is. Every error is reported
// synchronously and the whole call fails atomically; no partial frames
// are returned. Null values are never errors.
var (
	// ErrUnknownColumn: a named column reference matched nothing.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrInvalidExpr: a structurally invalid node, e.g. a fold with zero
	// children or an empty column name list.
	ErrInvalidExpr = errors.New("invalid expression")

	// ErrShapeMismatch: two results could not be reconciled for
	// elementwise combination.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrDuplicateName: two expressions in one call produced the same
	// output column name.
	ErrDuplicateName = errors.New("duplicate output name")

	// ErrType: an operator was applied to incompatible value types.
	ErrType = errors.New("type mismatch")
)
