package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid input")
	ErrRemoteWrite  = errors.New("remote write failed")
	ErrRateLimited  = errors.New("too many attempts")

	// ErrAuth is the root of every auth-provider rejection.
	ErrAuth = errors.New("auth error")
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrAuth)
	ErrEmailInUse         = fmt.Errorf("%w: email already in use", ErrAuth)
	ErrWeakPassword       = fmt.Errorf("%w: password is too weak", ErrAuth)
	ErrUnknownEmail       = fmt.Errorf("%w: no account for that email", ErrAuth)
)

// Validation failures all match ErrInvalidInput.
var (
	ErrPasswordMismatch = fmt.Errorf("%w: passwords do not match", ErrInvalidInput)
	ErrInterestCap      = fmt.Errorf("%w: select up to %d interests", ErrInvalidInput, MaxInterests)
	ErrNotMember        = fmt.Errorf("%w: join the group to post updates", ErrInvalidInput)
	ErrOwnerLeave       = fmt.Errorf("%w: owners cannot leave their own group", ErrInvalidInput)
)
