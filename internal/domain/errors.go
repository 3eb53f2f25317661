package domain

import "errors"

var (
	// ErrInvalidUser is returned when a submission carries no user identity.
	ErrInvalidUser = errors.New("invalid or missing user id")
	// ErrUpstreamFetch indicates the trivia provider was unreachable or returned malformed data.
	ErrUpstreamFetch = errors.New("question provider fetch failed")
	// ErrPersistence indicates the score ledger could not be read or written.
	ErrPersistence = errors.New("score persistence failed")
	// ErrValidation is returned when a start request is missing category or difficulty.
	ErrValidation = errors.New("missing category or difficulty")
	// ErrRoundNotActive is returned when a submission arrives outside an active round.
	ErrRoundNotActive = errors.New("no active round")
	// ErrQuestionNotFound indicates a submitted question index does not match the current question.
	ErrQuestionNotFound = errors.New("question not found in current round")
	// ErrUserExists is returned when a registration handle or email is already taken.
	ErrUserExists = errors.New("username or email already in use")
	// ErrInvalidCredentials is returned on failed login, without revealing which part was wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrRoomNotFound indicates a join request named an unknown room.
	ErrRoomNotFound = errors.New("room not found")
)
