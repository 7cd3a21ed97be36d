package http

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// HTTP-date, e.g. "Wed, 09 Jun 2021 10:18:14 GMT", always UTC.
const httpDateFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

// HeaderField is a single response header. Responses keep their headers in
// a slice so serialization preserves insertion order.
type HeaderField struct {
	Name  string
	Value string
}

// Response is an outgoing HTTP response. Build it, serialize it once with
// Bytes, then discard it.
type Response struct {
	Status  int
	Message string
	Headers []HeaderField
	Body    []byte
}

// NewResponse builds a response with the message taken from the status
// table and the default Server, Date and Connection headers set.
func NewResponse(status int) *Response {
	return NewResponseWithMessage(status, StatusText(status))
}

// NewResponseWithMessage is NewResponse with an explicit status message.
func NewResponseWithMessage(status int, message string) *Response {
	resp := &Response{
		Status:  status,
		Message: message,
	}
	resp.AddHeader("Server", ServerName)
	resp.AddHeader("Date", time.Now().UTC().Format(httpDateFormat))
	resp.AddHeader("Connection", "keep-alive")
	return resp
}

// AddHeader appends a header. It does not replace an existing one with the
// same name.
func (resp *Response) AddHeader(name, value string) {
	resp.Headers = append(resp.Headers, HeaderField{Name: name, Value: value})
}

// Header looks up a header value by name, case-insensitively.
func (resp *Response) Header(name string) (string, bool) {
	for _, h := range resp.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// Bytes serializes the response. The status line always declares HTTP/1.1,
// regardless of the request's version. A missing Content-Length is
// computed from the body; an error response with no body gets a minimal
// HTML body synthesized together with its Content-Type and Content-Length.
func (resp *Response) Bytes() []byte {
	if len(resp.Body) > 0 {
		if _, found := resp.Header("Content-Length"); !found {
			resp.AddHeader("Content-Length", strconv.Itoa(len(resp.Body)))
		}
	} else if resp.Status >= 400 {
		if _, found := resp.Header("Content-Length"); !found {
			resp.Body = []byte(fmt.Sprintf("<html><body><h1>%d %s</h1></body></html>", resp.Status, resp.Message))
			resp.AddHeader("Content-Length", strconv.Itoa(len(resp.Body)))
			resp.AddHeader("Content-Type", "text/html")
		}
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "HTTP/1.1 %d %s\r\n", resp.Status, resp.Message)
	for _, h := range resp.Headers {
		fmt.Fprintf(&buf, "%s: %s\r\n", h.Name, h.Value)
	}
	buf.WriteString("\r\n")
	buf.Write(resp.Body)

	return buf.Bytes()
}
