package record

import "errors"

var (
	ErrEmptyIdentity     = errors.New("record identity is empty")
	ErrDuplicateIdentity = errors.New("duplicate record identity")
	ErrScoreOutOfRange   = errors.New("score out of range")
	ErrDuplicateOverall  = errors.New("more than one overall score")
	ErrEmptyDirectory    = errors.New("record directory is empty")
	ErrUnknownSource     = errors.New("unknown record source")
)
