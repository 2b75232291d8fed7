package game

import "errors"

var (
	ErrNotFound      = errors.New("game not found")
	ErrUnknownTeam   = errors.New("unknown team")
	ErrSameTeams     = errors.New("home and away team must differ")
	ErrInvalidResult = errors.New("invalid game result")
)
