package http

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedRequest reports bytes that do not form a valid HTTP/1.x
// request line and header block. The server answers 400 and closes the
// connection.
var ErrMalformedRequest = errors.New("http: malformed request")

// Request is one parsed HTTP request. Immutable once parsed.
type Request struct {
	Method  string
	Path    string // as received, still URL-encoded
	Version string
	Headers map[string]string
	Body    []byte // nil when the request carries no body
}

var headerBodySep = []byte("\r\n\r\n")

// ParseRequest parses a single HTTP message from one read's worth of raw
// bytes. Header bytes that are not valid UTF-8 are carried through as-is
// rather than rejected. Duplicate header names are last-one-wins.
func ParseRequest(data []byte) (*Request, error) {
	head := data
	var body []byte
	if i := bytes.Index(data, headerBodySep); i >= 0 {
		head = data[:i]
		if rest := data[i+len(headerBodySep):]; len(rest) > 0 {
			body = rest
		}
	}

	lines := strings.Split(string(head), "\r\n")

	tokens := strings.Split(lines[0], " ")
	if len(tokens) != 3 {
		return nil, fmt.Errorf("%w: invalid request line %q", ErrMalformedRequest, lines[0])
	}
	method, path, version := tokens[0], tokens[1], tokens[2]
	if !strings.HasPrefix(version, "HTTP/") {
		return nil, fmt.Errorf("%w: invalid protocol version %q", ErrMalformedRequest, version)
	}

	headers := make(map[string]string, len(lines)-1)
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		name, value, found := strings.Cut(line, ":")
		if !found {
			return nil, fmt.Errorf("%w: invalid header %q", ErrMalformedRequest, line)
		}
		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}

	return &Request{
		Method:  method,
		Path:    path,
		Version: version,
		Headers: headers,
		Body:    body,
	}, nil
}

// Header looks up a header value by name, case-insensitively. Names are
// stored as received.
func (req *Request) Header(name string) (string, bool) {
	for k, v := range req.Headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}
