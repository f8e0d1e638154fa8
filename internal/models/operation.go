package models

import "strings"

// HTTP methods recognized in captures and contracts.
var SupportedMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}

// Header is a single request header. Order matters and duplicates are allowed,
// so this is a slice element rather than a map entry.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Param is a named query parameter value.
type Param struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Schema is a minimal JSON-schema-like description of a request body. Only the
// parts the sample synthesizer consumes are modeled.
type Schema struct {
	Type       string             `json:"type,omitempty"`
	Example    interface{}        `json:"example,omitempty"`
	HasExample bool               `json:"-"`
	Items      *Schema            `json:"items,omitempty"`
	Properties map[string]*Schema `json:"properties,omitempty"`
}

// RequestBody carries either a literal payload captured from traffic or a
// schema description from a contract, never both.
type RequestBody struct {
	Literal   string  `json:"literal,omitempty"`
	MediaType string  `json:"mediaType,omitempty"`
	Schema    *Schema `json:"schema,omitempty"`
}

// Operation is one HTTP call extracted from a capture or contract. Created
// once during parsing and immutable afterward.
type Operation struct {
	Name            string       `json:"name"`
	Method          string       `json:"method"`
	Path            string       `json:"path"`
	Host            string       `json:"host,omitempty"`
	RequestHeaders  []Header     `json:"requestHeaders,omitempty"`
	QueryParameters []Param      `json:"queryParameters,omitempty"`
	PathParameters  []string     `json:"pathParameters,omitempty"`
	RequestBody     *RequestBody `json:"requestBody,omitempty"`
	ExpectedStatus  []int        `json:"expectedStatusCodes,omitempty"`
	Tags            []string     `json:"tags,omitempty"`
	SequenceIndex   int          `json:"sequenceIndex"`
	LatencyMS       float64      `json:"latencyMs,omitempty"`
}

// HasLiteralBody reports whether the operation carries a non-empty captured
// payload (as opposed to a schema to synthesize from).
func (o *Operation) HasLiteralBody() bool {
	return o.RequestBody != nil && strings.TrimSpace(o.RequestBody.Literal) != ""
}

// IsBodyMethod reports whether the operation's method carries a request body
// in the generated plan.
func (o *Operation) IsBodyMethod() bool {
	switch o.Method {
	case "POST", "PUT", "PATCH":
		return true
	}
	return false
}

// FirstPathSegment returns the first non-empty /-delimited segment of the
// path, or "root" when there is none.
func (o *Operation) FirstPathSegment() string {
	for _, seg := range strings.Split(o.Path, "/") {
		if seg != "" {
			return seg
		}
	}
	return "root"
}

// OperationGroup is a named, ordered slice of operations sharing a grouping
// key. Operations retain their SequenceIndex order within the group.
type OperationGroup struct {
	Name       string      `json:"name"`
	Operations []Operation `json:"operations"`
}

// ExtractPathParameters pulls {name} tokens out of a templated path.
func ExtractPathParameters(path string) []string {
	var params []string
	rest := path
	for {
		open := strings.Index(rest, "{")
		if open < 0 {
			break
		}
		end := strings.Index(rest[open:], "}")
		if end < 0 {
			break
		}
		name := rest[open+1 : open+end]
		if name != "" {
			params = append(params, name)
		}
		rest = rest[open+end+1:]
	}
	return params
}
