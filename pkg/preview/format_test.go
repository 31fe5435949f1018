package preview

import (
	"strings"
	"testing"

	"github.com/lepinkainen/ticket-bot/internal/classifier"
	"github.com/lepinkainen/ticket-bot/pkg/feedtypes"
	"github.com/lepinkainen/ticket-bot/pkg/testutil"
)

var testKeywords = classifier.Keywords{
	Marketplace:   []string{"vend"},
	DirectMessage: []string{"j'ai"},
	Negation:      []string{"Je recherche"},
}

const sellingMessage = "Je vends 2 places pour samedi, prix coûtant. Envoyez-moi un message si vous êtes intéressés par les billets."

func sellingPost() feedtypes.Post {
	return feedtypes.Post{
		ID:          "166530800395978_1",
		Message:     sellingMessage,
		Link:        "https://www.ticketswap.fr/listing/42",
		CreatedTime: "2016-04-20T10:00:00+0000",
	}
}

func TestNewEntries(t *testing.T) {
	posts := []feedtypes.Post{
		sellingPost(),
		{ID: "2", Message: "Je recherche une place, je vends pas"},
		{ID: "3", Message: "j'ai une place", Actions: []feedtypes.Action{{Name: "Message", Link: "https://m.me/someone"}}},
		{ID: "4", Message: "j'ai deux places"},
		{ID: "5"},
	}

	entries := NewEntries(posts, classifier.New(testKeywords))

	if len(entries) != len(posts) {
		t.Fatalf("expected %d entries, got %d", len(posts), len(entries))
	}

	tests := []struct {
		source   classifier.Source
		link     string
		hasIssue bool
	}{
		{classifier.Marketplace, "https://www.ticketswap.fr/listing/42", false},
		{classifier.None, "", false},
		{classifier.DirectMessage, "https://m.me/someone", false},
		{classifier.DirectMessage, "", true},
		{classifier.None, "", false},
	}

	for i, tt := range tests {
		entry := entries[i]
		if entry.Source != tt.source {
			t.Errorf("entry %d: Source = %v, expected %v", i, entry.Source, tt.source)
		}
		if entry.Link != tt.link {
			t.Errorf("entry %d: Link = %q, expected %q", i, entry.Link, tt.link)
		}
		if (entry.Issue != "") != tt.hasIssue {
			t.Errorf("entry %d: Issue = %q, expected issue: %v", i, entry.Issue, tt.hasIssue)
		}
	}
}

func TestFormatCompactListItem(t *testing.T) {
	tests := []struct {
		name     string
		index    int
		entry    Entry
		expected string
	}{
		{
			name:     "long message is truncated",
			index:    0,
			entry:    Entry{Post: sellingPost(), Source: classifier.Marketplace},
			expected: " 1. [ticketswap     ] 2016-04-20T10:00:00+0000  Je vends 2 places pour samedi, prix coûtant. Envoyez-moi un message...",
		},
		{
			name:     "whitespace is collapsed",
			index:    9,
			entry:    Entry{Post: feedtypes.Post{ID: "7", Message: "j'ai\n\nune   place", CreatedTime: "2016-04-21T08:30:00+0000"}, Source: classifier.DirectMessage},
			expected: "10. [private_message] 2016-04-21T08:30:00+0000  j'ai une place",
		},
		{
			name:     "missing message and time",
			index:    2,
			entry:    Entry{Post: feedtypes.Post{ID: "166530800395978_9"}},
			expected: " 3. [none           ] 166530800395978_9  (no message)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatCompactListItem(tt.index, tt.entry)
			if got != tt.expected {
				t.Errorf("FormatCompactListItem() =\n%q\nexpected\n%q", got, tt.expected)
			}
		})
	}
}

func TestFormatDetailedItem(t *testing.T) {
	entries := NewEntries([]feedtypes.Post{sellingPost()}, classifier.New(testKeywords))

	testutil.CompareGolden(t, "testdata/detailed_item.golden", FormatDetailedItem(entries[0]))
}

func TestFormatDetailedItemShowsIssue(t *testing.T) {
	entry := Entry{
		Post:   feedtypes.Post{ID: "4", Message: "j'ai deux places"},
		Source: classifier.DirectMessage,
		Issue:  "post 4 has no action link",
	}

	got := FormatDetailedItem(entry)

	for _, want := range []string{"Classification: private_message", "Cannot notify: post 4 has no action link", "j'ai deux places"} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatDetailedItem() missing %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Notification link:") {
		t.Errorf("FormatDetailedItem() should not show a notification link:\n%s", got)
	}
}

func TestFormatRawItem(t *testing.T) {
	entry := Entry{Post: feedtypes.Post{
		ID:      "3",
		Message: "j'ai une place",
		Actions: []feedtypes.Action{{Name: "Message", Link: "https://m.me/someone"}},
	}}

	expected := `{
  "id": "3",
  "message": "j'ai une place",
  "actions": [
    {
      "name": "Message",
      "link": "https://m.me/someone"
    }
  ]
}`

	if got := FormatRawItem(entry); got != expected {
		t.Errorf("FormatRawItem() =\n%s\nexpected\n%s", got, expected)
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		width    int
		expected string
	}{
		{"fits", "short text", 20, "short text"},
		{"wraps at word boundary", "one two three four", 9, "one two\nthree\nfour"},
		{"zero width uses default", "a b", 0, "a b"},
		{"empty", "", 10, ""},
		{"counts runes", "éé éé éé", 5, "éé éé\néé"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wrapText(tt.text, tt.width); got != tt.expected {
				t.Errorf("wrapText(%q, %d) = %q, expected %q", tt.text, tt.width, got, tt.expected)
			}
		})
	}
}
