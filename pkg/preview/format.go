// Package preview provides an interactive view of an event feed and how each
// post classifies, using Bubble Tea TUI.
package preview

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lepinkainen/ticket-bot/internal/classifier"
	"github.com/lepinkainen/ticket-bot/internal/notify"
	"github.com/lepinkainen/ticket-bot/pkg/feedtypes"
)

// Entry is a post together with the bot's verdict on it
type Entry struct {
	Post   feedtypes.Post
	Source classifier.Source
	Link   string // resolved notification link, "" when none
	Issue  string // why a matched post could not be linked
}

// NewEntries classifies posts the way the bot would
func NewEntries(posts []feedtypes.Post, c *classifier.Classifier) []Entry {
	entries := make([]Entry, 0, len(posts))
	for _, post := range posts {
		entry := Entry{Post: post, Source: c.Classify(post.Message)}
		if entry.Source.Matched() {
			link, err := notify.ResolveLink(post, entry.Source)
			if err != nil {
				entry.Issue = err.Error()
			}
			entry.Link = link
		}
		entries = append(entries, entry)
	}
	return entries
}

// wrapText wraps text to the specified width, breaking at word boundaries when possible
func wrapText(text string, width int) string {
	if width <= 0 {
		width = 70
	}

	var result strings.Builder
	var line strings.Builder
	lineLen := 0

	words := strings.Fields(text)
	for i, word := range words {
		wordLen := len([]rune(word))

		if lineLen > 0 && lineLen+1+wordLen > width {
			result.WriteString(line.String())
			result.WriteString("\n")
			line.Reset()
			lineLen = 0
		}

		if lineLen > 0 {
			line.WriteString(" ")
			lineLen++
		}

		line.WriteString(word)
		lineLen += wordLen

		if i == len(words)-1 {
			result.WriteString(line.String())
		}
	}

	return result.String()
}

// FormatCompactListItem formats a single entry in compact list format
// Example: " 1. [ticketswap     ] 2016-04-20T10:00:00+0000  Selling 2 tickets..."
func FormatCompactListItem(index int, entry Entry) string {
	message := strings.Join(strings.Fields(entry.Post.Message), " ")
	if message == "" {
		message = "(no message)"
	}

	const maxMessageLength = 70
	if runes := []rune(message); len(runes) > maxMessageLength {
		message = string(runes[:maxMessageLength-3]) + "..."
	}

	created := entry.Post.CreatedTime
	if created == "" {
		created = entry.Post.ID
	}

	return fmt.Sprintf("%2d. [%-15s] %s  %s", index+1, entry.Source, created, message)
}

// FormatDetailedItem formats a single entry with all metadata
func FormatDetailedItem(entry Entry) string {
	var b strings.Builder

	b.WriteString("═══════════════════════════════════════════════════════════════════════\n")
	fmt.Fprintf(&b, "Post: %s\n", entry.Post.ID)

	if entry.Post.CreatedTime != "" {
		fmt.Fprintf(&b, "Posted: %s\n", entry.Post.CreatedTime)
	}

	fmt.Fprintf(&b, "Classification: %s\n", entry.Source)

	if entry.Link != "" {
		fmt.Fprintf(&b, "Notification link: %s\n", entry.Link)
	}
	if entry.Issue != "" {
		fmt.Fprintf(&b, "Cannot notify: %s\n", entry.Issue)
	}

	if entry.Post.Link != "" {
		fmt.Fprintf(&b, "Link: %s\n", entry.Post.Link)
	}
	for _, action := range entry.Post.Actions {
		fmt.Fprintf(&b, "Action: %s %s\n", action.Name, action.Link)
	}

	if message := entry.Post.Message; message != "" {
		const maxMessageLength = 1000
		if runes := []rune(message); len(runes) > maxMessageLength {
			message = string(runes[:maxMessageLength]) + "..."
		}
		fmt.Fprintf(&b, "\nMessage:\n%s\n", wrapText(message, 70))
	}

	b.WriteString("═══════════════════════════════════════════════════════════════════════\n")

	return b.String()
}

// FormatRawItem renders the post as the indented JSON the bot decoded
func FormatRawItem(entry Entry) string {
	data, err := json.MarshalIndent(entry.Post, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error encoding post: %s", err)
	}
	return string(data)
}
