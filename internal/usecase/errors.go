package usecase

import "errors"

var (
	ErrUnauthorized = errors.New("Unauthorized")
	ErrInvalidInput = errors.New("Invalid input")
	ErrInternal     = errors.New("Internal error")
)
