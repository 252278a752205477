package route

import (
	"net/url"
	"strings"
)

// Split separates a request path into the operation string (the final
// segment) and the storage key (the segments before it). One leading slash
// is ignored. "/photos/cat.jpg/width=500" gives ("width=500", "photos/cat.jpg").
func Split(path string) (ops, key string) {
	path = strings.TrimPrefix(path, "/")
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return path, ""
	}
	return path[i+1:], path[:i]
}

// SplitEscaped is Split for a raw, percent-encoded path. Each part is
// unescaped after splitting so that an encoded slash stays inside its part.
func SplitEscaped(raw string) (ops, key string, err error) {
	ops, key = Split(raw)
	if ops, err = url.PathUnescape(ops); err != nil {
		return "", "", err
	}
	if key, err = url.PathUnescape(key); err != nil {
		return "", "", err
	}
	return ops, key, nil
}
