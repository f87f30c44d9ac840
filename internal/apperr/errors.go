// Package apperr holds sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrAlreadyExists    = errors.New("already exists")
	ErrUnknownParamType = errors.New("unknown parameter type")
	ErrUnknownNodeType  = errors.New("unknown node type")
	ErrInvalidInput     = errors.New("invalid input")
	ErrNoEditor         = errors.New("no editor attached")
)
