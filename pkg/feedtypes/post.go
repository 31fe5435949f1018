// Package feedtypes provides the post types shared by the feed client, the
// classifier and the notifiers.
package feedtypes

// Action is a call-to-action attached to a post, e.g. "Message" or "Share".
type Action struct {
	Name string `json:"name"`
	Link string `json:"link"`
}

// Post is a single entry of an event feed. Posts are immutable once fetched.
type Post struct {
	ID          string   `json:"id"`
	Message     string   `json:"message,omitempty"`
	Link        string   `json:"link,omitempty"`
	Actions     []Action `json:"actions,omitempty"`
	CreatedTime string   `json:"created_time,omitempty"`
}

// FirstActionLink returns the link of the first action, or "" when the post has none.
func (p Post) FirstActionLink() string {
	if len(p.Actions) == 0 {
		return ""
	}
	return p.Actions[0].Link
}
