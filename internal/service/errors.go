package service

import "errors"

var (
	// ErrReadOnly is returned for writes to another user's objectives.
	ErrReadOnly = errors.New("objectives of another user are read-only")

	ErrUnknownScope = errors.New("unknown scope")

	ErrUnsupportedResource = errors.New("unsupported resource")

	// ErrGraphTokenRejected means Microsoft Graph did not accept the token
	// offered for a new session.
	ErrGraphTokenRejected = errors.New("graph token rejected")
)
