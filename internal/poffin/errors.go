package poffin

import "errors"

var (
	ErrCycle      = errors.New("poffin: cook cycle must be positive")
	ErrRecipeSize = errors.New("poffin: recipe must use 1 to 4 berries")
	ErrChoose     = errors.New("poffin: choose count out of range")
	ErrAxis       = errors.New("poffin: unknown flavor axis")
	ErrTopK       = errors.New("poffin: top-k size must be positive")
	ErrWeights    = errors.New("poffin: invalid weights")
	ErrMaxPoffins = errors.New("poffin: max poffins must not be negative")
	ErrParams     = errors.New("poffin: invalid cook parameters")
	ErrMode       = errors.New("poffin: unknown mode")
	ErrComboIndex = errors.New("poffin: combination index out of range")
)
