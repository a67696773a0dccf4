package study

import "errors"

var (
	ErrNoCurrentCard     = errors.New("no card left to review")
	ErrSessionActive     = errors.New("a study session is already in progress")
	ErrNotStudying       = errors.New("no study session in progress")
	ErrNoResumeCandidate = errors.New("no session to resume")
	ErrCardNotInSession  = errors.New("card is not part of the current session")
	ErrSuperseded        = errors.New("session request was superseded")
	ErrInvalidCards      = errors.New("invalid study cards")
)
