package method

import "github.com/indigo-web/utils/strcomp"

type Method uint8

const (
	Unknown Method = iota
	GET
	HEAD
)

// Parse recognizes the method token case-insensitively.
func Parse(str string) Method {
	switch len(str) {
	case 3:
		if strcomp.EqualFold(str, "GET") {
			return GET
		}
	case 4:
		if strcomp.EqualFold(str, "HEAD") {
			return HEAD
		}
	}

	return Unknown
}

func (m Method) String() string {
	switch m {
	case GET:
		return "GET"
	case HEAD:
		return "HEAD"
	default:
		return "Unknown"
	}
}
