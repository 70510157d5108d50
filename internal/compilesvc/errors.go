package compilesvc

import "errors"

// Sentinel errors recognized by the HTTP layer when mapping a service
// error to a status code.
var (
	ErrBadCredentials = errors.New("the supplied API key is invalid or has been revoked")
	ErrBadArgument    = errors.New("one or more of the arguments is invalid")
	ErrBodyUnmarshal  = errors.New("malformed data in request")
)

// svcError is a message plus one or more causes, compatible with
// errors.Is against any of them.
type svcError struct {
	msg   string
	cause []error
}

func newError(msg string, causes ...error) svcError {
	return svcError{msg: msg, cause: causes}
}

func (e svcError) Error() string {
	if e.msg == "" && len(e.cause) > 0 {
		return e.cause[0].Error()
	}
	if len(e.cause) > 0 {
		return e.msg + ": " + e.cause[0].Error()
	}
	return e.msg
}

func (e svcError) Unwrap() []error {
	if len(e.cause) > 0 {
		return e.cause
	}
	return nil
}
