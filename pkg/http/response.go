package http

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
)

// maxBodySize caps how much of a response body is read into memory
const maxBodySize = 4 << 20

// ReadResponseBody reads and closes HTTP response body
func ReadResponseBody(resp *http.Response) ([]byte, error) {
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Error("Failed to close response body", "error", closeErr)
		}
	}()
	return io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
}

// GetContentType returns the content type of the response
func GetContentType(resp *http.Response) string {
	return resp.Header.Get("Content-Type")
}

// MediaType returns the lowercased media type of the response without parameters
func MediaType(resp *http.Response) string {
	mediaType, _, err := mime.ParseMediaType(GetContentType(resp))
	if err != nil {
		return ""
	}
	return mediaType
}

// IsJSON reports whether the response declares a JSON body.
// The Graph API has served both application/json and text/javascript.
func IsJSON(resp *http.Response) bool {
	switch MediaType(resp) {
	case "application/json", "text/javascript", "application/javascript":
		return true
	default:
		return false
	}
}

// IsHTML reports whether the response declares an HTML body
func IsHTML(resp *http.Response) bool {
	return MediaType(resp) == "text/html"
}

// EnsureStatusOK checks if the response status is 200 OK
func EnsureStatusOK(resp *http.Response) error {
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d %s", resp.StatusCode, resp.Status)
	}
	return nil
}
