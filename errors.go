package ragdoll

import "errors"

var (
	ErrUnknownRole = errors.New("unknown part role")
	ErrNoFigure    = errors.New("no figure in simulation")
	ErrBadTuning   = errors.New("invalid tuning")
)
