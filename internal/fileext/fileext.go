// Package fileext guesses a document's file extension from its HTTP response.
// Three methods are tried in order: the Content-Disposition filename, the
// Content-Type header, and finally the URL path. An empty string means no
// method succeeded; callers fall back to their own default.
package fileext

import (
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// contentTypeExtensions maps well-known document content types to extensions.
var contentTypeExtensions = map[string]string{
	"application/pdf":    ".pdf",
	"text/plain":         ".txt",
	"text/html":          ".html",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   ".docx",
	"application/vnd.ms-excel": ".xls",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         ".xlsx",
	"application/vnd.ms-powerpoint": ".ppt",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": ".pptx",
	"message/rfc822":            ".eml",
	"application/vnd.ms-outlook": ".msg",
	"image/jpeg":                ".jpg",
	"image/png":                 ".png",
	"application/json":          ".json",
	"application/xml":           ".xml",
	"text/xml":                  ".xml",
	"text/csv":                  ".csv",
	"application/zip":           ".zip",
}

// FromResponse determines the extension (including the leading dot) for a
// document fetched from rawURL with the given response headers.
// Returns "" when no method yields an extension.
func FromResponse(rawURL string, header http.Header) string {
	if ext := fromContentDisposition(header.Get("Content-Disposition")); ext != "" {
		return ext
	}
	if ext := fromContentType(header.Get("Content-Type")); ext != "" {
		return ext
	}
	return fromURL(rawURL)
}

func fromContentDisposition(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	if filename := params["filename"]; filename != "" {
		return path.Ext(filename)
	}
	return ""
}

func fromContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	return contentTypeExtensions[mediaType]
}

func fromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return path.Ext(parsed.Path)
}
