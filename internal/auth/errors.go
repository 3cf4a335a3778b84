package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidToken is the single failure callers observe for any rejected token.
	ErrInvalidToken = errors.New("invalid token")

	ErrMalformedToken   = fmt.Errorf("%w: malformed", ErrInvalidToken)
	ErrInvalidSignature = fmt.Errorf("%w: signature mismatch", ErrInvalidToken)
	ErrExpiredToken     = fmt.Errorf("%w: expired", ErrInvalidToken)

	// ErrAuthenticationRequired means no usable token was presented.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrAccessDenied means the caller is authenticated but may not act on the resource.
	ErrAccessDenied = errors.New("access denied")
)
