package world

import "errors"

// Failures reported by the world's action primitives.
var (
	ErrNotEnoughEnergy = errors.New("not enough energy")
	ErrOutOfBounds     = errors.New("out of bounds")
	ErrNoContent       = errors.New("no content")
	ErrNotEnoughSpace  = errors.New("not enough space")
	ErrCannotDestroy   = errors.New("cannot destroy")
	ErrNotCraftable    = errors.New("not craftable")
	ErrNoMoreDiscovery = errors.New("no more discoverable tiles")
	ErrCannotWalk      = errors.New("tile is not walkable")
)

// Failures reported while paving.
var (
	ErrCannotPlaceHere         = errors.New("cannot place content here")
	ErrNotEnoughMaterial       = errors.New("not enough material")
	ErrNoRockHere              = errors.New("no rock here")
	ErrMustDestroyContentFirst = errors.New("must destroy content first")
)
