package service

import "errors"

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindTooLarge
	KindUnavailable
)

// Error is a failure the caller is expected to see. Message is safe to return
// to clients as-is.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func validation(msg string) error      { return &Error{Kind: KindValidation, Message: msg} }
func conflict(msg string) error        { return &Error{Kind: KindConflict, Message: msg} }
func unauthenticated(msg string) error { return &Error{Kind: KindUnauthenticated, Message: msg} }
func forbidden(msg string) error       { return &Error{Kind: KindForbidden, Message: msg} }
func notFound(msg string) error        { return &Error{Kind: KindNotFound, Message: msg} }
func tooLarge(msg string) error        { return &Error{Kind: KindTooLarge, Message: msg} }
func unavailable(msg string) error     { return &Error{Kind: KindUnavailable, Message: msg} }

// KindOf returns the kind of err, or KindInternal for errors that did not
// originate as an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

var (
	errAuthRequired       = unauthenticated("Authentication required")
	errNotAuthenticated   = unauthenticated("Not authenticated")
	errInvalidCredentials = unauthenticated("Invalid credentials")
	errUnauthorized       = forbidden("Unauthorized")
	errInvalidItemID      = validation("Invalid item ID")
	errInvalidUserID      = validation("Invalid user ID")
	errItemNotFound       = notFound("Item not found")
	errItemUnavailable    = notFound("Item not found or not available")
	errUserNotFound       = notFound("User not found")
	errEmailTaken         = conflict("Email already registered")
)
