package apperror

import "errors"

var (
	ErrEpisodeNotStarted     = errors.New("episode is not started, call reset")
	ErrEpisodeFinished       = errors.New("the game has finished, call reset")
	ErrInvalidAction         = errors.New("invalid action")
	ErrInvalidMark           = errors.New("invalid player mark")
	ErrUnsupportedRenderMode = errors.New("unsupported render mode")
	ErrSessionNotFound       = errors.New("session not found")
	ErrNoAvailableMoves      = errors.New("no available moves")
)
