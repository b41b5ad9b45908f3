package summary

import (
	"regexp"
	"strings"
)

// VideoID is the 11-character token YouTube uses to address a video.
type VideoID string

func (id VideoID) String() string {
	return string(id)
}

// linkRe recognises watch, embed, /v/ and youtu.be links. The scheme and the
// www. prefix are optional, and anything after the identifier is ignored.
// The single capture group is the video identifier.
var linkRe = regexp.MustCompile(
	`^(?:(?:https?:)?//)?(?:www\.)?(?:youtube\.com/(?:embed/|v/|watch\?v=|watch\?.+&v=)|youtu\.be/)([^"&?/\s]{11})`,
)

// ParseLink validates raw and extracts the video identifier in one pass, so a
// link can never be valid without also yielding an identifier.
//
// Surrounding whitespace is ignored. Returns ErrInvalidLink when raw does not
// match a recognised YouTube link shape.
func ParseLink(raw string) (VideoID, error) {
	m := linkRe.FindStringSubmatch(strings.TrimSpace(raw))
	if len(m) < 2 {
		return "", ErrInvalidLink
	}
	return VideoID(m[1]), nil
}

// IsValidLink reports whether raw is a recognised YouTube link.
func IsValidLink(raw string) bool {
	_, err := ParseLink(raw)
	return err == nil
}

// ExtractVideoID returns the identifier embedded in raw, if any.
func ExtractVideoID(raw string) (VideoID, bool) {
	id, err := ParseLink(raw)
	if err != nil {
		return "", false
	}
	return id, true
}
