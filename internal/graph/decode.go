package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/html"

	"github.com/lepinkainen/ticket-bot/internal/errs"
	"github.com/lepinkainen/ticket-bot/pkg/feedtypes"
	httputil "github.com/lepinkainen/ticket-bot/pkg/http"
)

// apiError is the error object the Graph API returns instead of data
type apiError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	FBTraceID string `json:"fbtrace_id"`
}

// decodeFeed validates a feed response and returns its posts
func decodeFeed(resp *http.Response) ([]feedtypes.Post, error) {
	body, err := httputil.ReadResponseBody(resp)
	if err != nil {
		return nil, &errs.TransportError{Op: "read", URL: requestURL(resp), Err: err}
	}

	if !httputil.IsJSON(resp) {
		return nil, &errs.ResponseError{
			StatusCode: resp.StatusCode,
			Message:    describeNonJSON(resp, body),
		}
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &errs.ResponseError{StatusCode: resp.StatusCode, Message: "payload is not a JSON object", Err: err}
	}

	if raw, ok := payload["error"]; ok && isSet(raw) {
		return nil, decodeAPIError(resp.StatusCode, raw)
	}

	if err := httputil.EnsureStatusOK(resp); err != nil {
		return nil, &errs.ResponseError{StatusCode: resp.StatusCode, Message: "unexpected response without error payload", Err: err}
	}

	raw, ok := payload["data"]
	if !ok {
		return nil, &errs.ResponseError{StatusCode: resp.StatusCode, Message: "payload has no data array"}
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &errs.ResponseError{StatusCode: resp.StatusCode, Message: "data is not an array"}
	}

	var posts []feedtypes.Post
	if err := json.Unmarshal(raw, &posts); err != nil {
		return nil, &errs.ResponseError{StatusCode: resp.StatusCode, Message: "data is not an array of posts", Err: err}
	}

	for i, post := range posts {
		if post.ID == "" {
			return nil, &errs.ResponseError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("post %d has no id", i)}
		}
	}

	return posts, nil
}

// isSet mirrors a truthiness check: null, false, "", {} and [] don't count as errors
func isSet(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "false", `""`, "{}", "[]", "0":
		return false
	default:
		return true
	}
}

func decodeAPIError(statusCode int, raw json.RawMessage) error {
	var apiErr apiError
	if err := json.Unmarshal(raw, &apiErr); err != nil || apiErr.Message == "" {
		return &errs.ResponseError{StatusCode: statusCode, Message: "got error response " + string(raw)}
	}

	msg := apiErr.Message
	if apiErr.Type != "" {
		msg = apiErr.Type + ": " + msg
	}
	if apiErr.FBTraceID != "" {
		msg += " (trace " + apiErr.FBTraceID + ")"
	}

	return &errs.ResponseError{StatusCode: statusCode, Code: apiErr.Code, Message: msg}
}

// describeNonJSON summarises an unexpected body for the error message
func describeNonJSON(resp *http.Response, body []byte) string {
	contentType := httputil.GetContentType(resp)
	if contentType == "" {
		contentType = "no content type"
	}

	if httputil.IsHTML(resp) {
		if title := htmlTitle(body); title != "" {
			return fmt.Sprintf("invalid response (%s): %s", contentType, title)
		}
	}

	snippet := strings.TrimSpace(string(body))
	const maxSnippet = 120
	if runes := []rune(snippet); len(runes) > maxSnippet {
		snippet = string(runes[:maxSnippet]) + "..."
	}
	if snippet == "" {
		return fmt.Sprintf("invalid response (%s): empty body", contentType)
	}
	return fmt.Sprintf("invalid response (%s): %s", contentType, snippet)
}

// htmlTitle returns the text of the first <title> element, or ""
func htmlTitle(body []byte) string {
	z := html.NewTokenizer(bytes.NewReader(body))
	inTitle := false

	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			name, _ := z.TagName()
			inTitle = string(name) == "title"
		case html.EndTagToken:
			inTitle = false
		case html.TextToken:
			if inTitle {
				return strings.Join(strings.Fields(string(z.Text())), " ")
			}
		}
	}
}

func requestURL(resp *http.Response) string {
	if resp.Request == nil || resp.Request.URL == nil {
		return ""
	}
	return resp.Request.URL.Redacted()
}
