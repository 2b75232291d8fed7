package attendance

import "errors"

var (
	ErrNotFound          = errors.New("registered game not found")
	ErrForbidden         = errors.New("registered game belongs to another user")
	ErrAlreadyRegistered = errors.New("game already registered")
	ErrTeamNotInGame     = errors.New("cheering team does not play in this game")
	ErrUnknownUser       = errors.New("user does not exist")
)
