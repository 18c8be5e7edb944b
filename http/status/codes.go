package status

type (
	Code   uint16
	Status string
)

// The server answers with a closed set of codes only. Reason phrases are part of the
// wire format and must not be changed.
const (
	OK Code = 200 // RFC 9110, 15.3.1

	BadRequest Code = 400 // RFC 9110, 15.5.1
	Forbidden  Code = 403 // RFC 9110, 15.5.4
	NotFound   Code = 404 // RFC 9110, 15.5.5

	InternalServerError Code = 500 // RFC 9110, 15.6.1
)

// Text returns a reason phrase for the code. It returns the empty string if the
// code is unknown.
func Text(code Code) Status {
	switch code {
	case OK:
		return "OK"
	case BadRequest:
		return "Bad Request"
	case Forbidden:
		return "Forbidden"
	case NotFound:
		return "Not Found"
	case InternalServerError:
		return "Internal Error"
	default:
		return ""
	}
}
