package model

// badInputError signals an invalid prediction payload for 400 mapping.
type badInputError struct{ msg string }

func (e badInputError) Error() string { return e.msg }

// ErrBadInput constructs a badInputError.
func ErrBadInput(msg string) error { return badInputError{msg: msg} }

// IsBadInput reports whether err indicates a client-side payload problem.
func IsBadInput(err error) bool {
	_, ok := err.(badInputError)
	return ok
}

// notReadyError signals the runtime is not serving yet (return 503).
type notReadyError struct{ msg string }

func (e notReadyError) Error() string { return e.msg }

// ErrNotReady constructs a notReadyError.
func ErrNotReady(msg string) error { return notReadyError{msg: msg} }

// IsNotReady reports whether err indicates the model runtime is unavailable.
func IsNotReady(err error) bool {
	_, ok := err.(notReadyError)
	return ok
}
