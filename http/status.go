package http

const (
	StatusOK                  = 200 // RFC 7231, 6.3.1
	StatusBadRequest          = 400 // RFC 7231, 6.5.1
	StatusForbidden           = 403 // RFC 7231, 6.5.3
	StatusNotFound            = 404 // RFC 7231, 6.5.4
	StatusMethodNotAllowed    = 405 // RFC 7231, 6.5.5
	StatusInternalServerError = 500 // RFC 7231, 6.6.1
)

var statusMessages = map[int]string{
	StatusOK:                  "OK",
	StatusBadRequest:          "Bad Request",
	StatusForbidden:           "Forbidden",
	StatusNotFound:            "Not Found",
	StatusMethodNotAllowed:    "Method Not Allowed",
	StatusInternalServerError: "Internal Server Error",
}

// StatusText returns the canonical message for a status code, or "Unknown"
// for codes outside the table.
func StatusText(code int) string {
	if msg, ok := statusMessages[code]; ok {
		return msg
	}
	return "Unknown"
}
