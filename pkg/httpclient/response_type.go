package httpclient

import (
	"fmt"
	"strings"
)

// ResponseType selects the shape a decoded response is returned in.
type ResponseType int

const (
	// ResponseTypeUnset falls back to ResponseTypeArray when a response is cast.
	ResponseTypeUnset ResponseType = iota
	ResponseTypeArray
	ResponseTypeObject
	ResponseTypeCollection
	ResponseTypeRaw
)

var responseTypeNames = map[ResponseType]string{
	ResponseTypeArray:      "array",
	ResponseTypeObject:     "object",
	ResponseTypeCollection: "collection",
	ResponseTypeRaw:        "raw",
}

// ParseResponseType maps a response_type option value onto a ResponseType.
// An empty string yields ResponseTypeUnset.
func ParseResponseType(s string) (ResponseType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ResponseTypeUnset, nil
	}
	for typ, name := range responseTypeNames {
		if name == s {
			return typ, nil
		}
	}
	return ResponseTypeUnset, fmt.Errorf("%w %q", ErrUnknownResponseType, s)
}

func (t ResponseType) String() string {
	if t == ResponseTypeUnset {
		return ""
	}
	if name, ok := responseTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ResponseType(%d)", int(t))
}

// Result is the cast form of a response. Only the field matching Type is populated.
type Result struct {
	Type       ResponseType
	Array      map[string]any
	Object     any
	Collection *Collection
	Raw        *Response
}
