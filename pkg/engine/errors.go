package engine

import "errors"

var (
	ErrBlockNotFound = errors.New("block not found")
	ErrBlockRemoved  = errors.New("block already removed")
	ErrNoQuestion    = errors.New("block has no question")
	ErrInvalidChoice = errors.New("selected choice out of range")
	ErrInvalidPhase  = errors.New("operation not valid in current game phase")
	ErrNoBank        = errors.New("question bank is required")
	ErrInvalidConfig = errors.New("invalid engine config")
	ErrBadSnapshot   = errors.New("snapshot does not match question bank")
)
