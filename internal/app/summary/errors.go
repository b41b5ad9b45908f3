package summary

import "errors"

// Domain errors. Transports map them to status codes and display messages
// with errors.Is instead of comparing strings.
var (
	ErrInvalidLink       = errors.New("invalid youtube link")
	ErrFetch             = errors.New("fetch summary failed")
	ErrMalformedResponse = errors.New("malformed summary response")
)

// Kind classifies why a submission failed.
type Kind string

const (
	KindNone              Kind = ""
	KindInvalidLink       Kind = "invalid_link"
	KindFetch             Kind = "fetch"
	KindMalformedResponse Kind = "malformed_response"
)

// Messages shown to the user for each failure kind.
const (
	MsgInvalidLink       = "Invalid YouTube link. Please enter a valid URL."
	MsgFetch             = "Error fetching summary. Please try again."
	MsgMalformedResponse = "Received an unexpected summary. Please try again."
)

// KindOf classifies err. Anything that is not an invalid link or a malformed
// response counts as a fetch failure.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidLink):
		return KindInvalidLink
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformedResponse
	default:
		return KindFetch
	}
}

// Message returns the display string for k.
func (k Kind) Message() string {
	switch k {
	case KindInvalidLink:
		return MsgInvalidLink
	case KindFetch:
		return MsgFetch
	case KindMalformedResponse:
		return MsgMalformedResponse
	}
	return ""
}
