package auth

import "errors"

var (
	ErrTokenRequired    = errors.New("Client key and service token are required")
	ErrUnknownClientKey = errors.New("Unknown client key")
	ErrIncorrectToken   = errors.New("Incorrect service token")
)
