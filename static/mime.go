package static

import "strings"

var mimeTypes = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".swf":  "application/x-shockwave-flash",
	".txt":  "text/plain",
	".json": "application/json",
	".xml":  "application/xml",
	".ico":  "image/x-icon",
}

// ContentType returns the content type for a file extension (leading dot
// included), case-insensitively. Unknown extensions default to
// application/octet-stream.
func ContentType(ext string) string {
	if ct, found := mimeTypes[strings.ToLower(ext)]; found {
		return ct
	}
	return "application/octet-stream"
}
