package domain

import "errors"

var (
	ErrNotInRoom         = errors.New("not in a room")
	ErrAlreadyJoined     = errors.New("already joined")
	ErrTooEarly          = errors.New("too early to join")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrNotCreator        = errors.New("not creator")
	ErrAlreadyStarted    = errors.New("already started")
	ErrNotStarted        = errors.New("not started")
	ErrAlreadyEnded      = errors.New("already ended")
	ErrNoValidRecipients = errors.New("no valid recipients")
	ErrMessageTooLong    = errors.New("message too long")
	ErrEmptyMessage      = errors.New("empty message")
	ErrInternal          = errors.New("internal error")

	ErrLoginRequired     = errors.New("log on required")
	ErrBadPayload        = errors.New("bad payload")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrNoAttendance      = errors.New("attendance not available yet")
	ErrRateLimited       = errors.New("rate limited")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrAccountExists     = errors.New("account already exists")
	ErrScheduleOverlap   = errors.New("lesson time overlaps an existing one")
	ErrGuestForbidden    = errors.New("guests are not allowed")
	ErrClassExists       = errors.New("class already exists")
)

var public = []error{
	ErrNotInRoom, ErrAlreadyJoined, ErrTooEarly, ErrNotFound, ErrForbidden, ErrNotCreator,
	ErrAlreadyStarted, ErrNotStarted, ErrAlreadyEnded, ErrNoValidRecipients, ErrMessageTooLong,
	ErrEmptyMessage, ErrLoginRequired, ErrBadPayload, ErrInvalidStatus, ErrNoAttendance,
	ErrRateLimited, ErrInvalidCredential, ErrAccountExists, ErrUsernameEmpty, ErrUsernameTooLong,
	ErrScheduleOverlap, ErrGuestForbidden, ErrClassExists,
}

// Reason maps an error to the text returned to a client.
// Errors outside the taxonomy are reported as ErrInternal so that
// datastore and media failures never leak through a response.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	for _, e := range public {
		if errors.Is(err, e) {
			return err.Error()
		}
	}
	return ErrInternal.Error()
}
