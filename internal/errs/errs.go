package errs

import "errors"

// Domain sentinel errors, mapped to ERROR frames / HTTP codes in handlers.
var (
	ErrInvalidRequest = errors.New("missing required fields")
	ErrPartyNotFound  = errors.New("party not found")
	ErrAlreadyInParty = errors.New("already in a party")
	ErrNameTaken      = errors.New("display name already taken")
	ErrPartyFull      = errors.New("party is full")
	ErrUnknownConn    = errors.New("connection not found")
)
