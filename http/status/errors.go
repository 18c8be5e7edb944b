package status

import "errors"

type HTTPError struct {
	Message string
	Code    Code
}

func NewError(code Code, message string) error {
	return HTTPError{
		Code:    code,
		Message: message,
	}
}

func (h HTTPError) Error() string {
	return h.Message
}

// CodeOf extracts the status code carried by err. Errors not produced by NewError are
// considered internal faults.
func CodeOf(err error) Code {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}

	return InternalServerError
}

var (
	ErrShutdown = errors.New("shutdown")

	ErrBadRequest           = NewError(BadRequest, "bad request")
	ErrMethodNotImplemented = NewError(BadRequest, "request method is not supported")
	ErrUnsupportedProtocol  = NewError(BadRequest, "protocol is not supported")
	ErrBadPath              = NewError(BadRequest, "request path must be absolute")
	ErrBadContentLength     = NewError(BadRequest, "malformed content length")
	ErrTooManyHeaders       = NewError(BadRequest, "too many headers")
	ErrRequestTooLarge      = NewError(BadRequest, "request does not fit into the read buffer")
	ErrIsDirectory          = NewError(BadRequest, "directories are not listable")
	ErrForbidden            = NewError(Forbidden, "forbidden")
	ErrNotFound             = NewError(NotFound, "not found")
	ErrInternalServerError  = NewError(InternalServerError, "internal server error")
)
