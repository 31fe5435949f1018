package preview

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/ticket-bot/internal/classifier"
)

// ViewMode represents the current view mode
type ViewMode int

// View modes for the preview TUI
const (
	ListViewMode ViewMode = iota
	DetailViewMode
	RawViewMode
)

// Model represents the Bubble Tea model for the preview TUI
type Model struct {
	items         []Entry
	cursor        int
	viewMode      ViewMode
	eventID       string
	matchesOnly   bool
	width         int
	height        int
	selectedIndex int // Index into items of the entry currently being viewed in detail
}

// NewModel creates a new preview model
func NewModel(items []Entry, eventID string) Model {
	return Model{
		items:         items,
		cursor:        0,
		viewMode:      ListViewMode,
		eventID:       eventID,
		selectedIndex: -1,
	}
}

// visible returns the indexes of the entries shown in the list
func (m Model) visible() []int {
	indexes := make([]int, 0, len(m.items))
	for i, item := range m.items {
		if !m.matchesOnly || item.Source.Matched() {
			indexes = append(indexes, i)
		}
	}
	return indexes
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.viewMode {
		case ListViewMode:
			return m.updateListView(msg)
		case DetailViewMode, RawViewMode:
			return m.updateDetailView(msg)
		}
	}

	return m, nil
}

// updateListView handles key presses in list view mode
func (m Model) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.visible())-1 {
			m.cursor++
		}

	case "m":
		m.matchesOnly = !m.matchesOnly
		m.cursor = 0

	case "enter":
		if visible := m.visible(); len(visible) > 0 {
			m.selectedIndex = visible[m.cursor]
			m.viewMode = DetailViewMode
		}

	case "r":
		if visible := m.visible(); len(visible) > 0 {
			m.selectedIndex = visible[m.cursor]
			m.viewMode = RawViewMode
		}
	}

	return m, nil
}

// updateDetailView handles key presses in detail/raw view modes
func (m Model) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "esc":
		m.viewMode = ListViewMode

	case "r":
		// Toggle between detail and raw views
		if m.viewMode == DetailViewMode {
			m.viewMode = RawViewMode
		} else {
			m.viewMode = DetailViewMode
		}
	}

	return m, nil
}

// View implements tea.Model
func (m Model) View() string {
	switch m.viewMode {
	case ListViewMode:
		return m.renderListView()
	case DetailViewMode:
		return m.renderDetailView()
	case RawViewMode:
		return m.renderRawView()
	}
	return ""
}

// sourceColor picks the list highlight for a classification
func sourceColor(source classifier.Source) lipgloss.Color {
	switch source {
	case classifier.Marketplace:
		return lipgloss.Color("10")
	case classifier.DirectMessage:
		return lipgloss.Color("11")
	default:
		return lipgloss.Color("7")
	}
}

// renderListView renders the list view
func (m Model) renderListView() string {
	var b strings.Builder

	// Header
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12"))

	visible := m.visible()
	header := fmt.Sprintf("Event feed %s (%d posts, %d shown)", m.eventID, len(m.items), len(visible))
	if m.matchesOnly {
		header += " - offers only"
	}
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n\n")

	if len(visible) == 0 {
		b.WriteString("  No posts match\n")
	}

	visibleStart := 0
	visibleEnd := len(visible)

	// Calculate visible range if height is set
	if m.height > 0 {
		maxVisible := m.height - 6 // Account for header, footer, and padding
		if maxVisible < len(visible) {
			// Keep cursor in the middle of the screen when possible
			visibleStart = max(m.cursor-maxVisible/2, 0)
			visibleEnd = visibleStart + maxVisible
			if visibleEnd > len(visible) {
				visibleEnd = len(visible)
				visibleStart = max(visibleEnd-maxVisible, 0)
			}
		}
	}

	for row := visibleStart; row < visibleEnd; row++ {
		index := visible[row]
		item := m.items[index]
		line := FormatCompactListItem(index, item)

		if row == m.cursor {
			// Highlight selected item
			selectedStyle := lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("12")).
				Bold(true)
			b.WriteString(selectedStyle.Render("→ " + line))
		} else {
			b.WriteString("  " + lipgloss.NewStyle().Foreground(sourceColor(item.Source)).Render(line))
		}
		b.WriteString("\n")
	}

	// Footer
	b.WriteString("\n")
	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240"))

	footer := "↑/↓ or j/k: navigate • enter: view details • r: raw view • m: toggle offers only • q: quit"
	b.WriteString(footerStyle.Render(footer))

	return b.String()
}

// renderDetailView renders the detail view
func (m Model) renderDetailView() string {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.items) {
		return "No post selected"
	}

	item := m.items[m.selectedIndex]
	content := FormatDetailedItem(item)

	var b strings.Builder
	b.WriteString(content)
	b.WriteString("\n")

	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240"))

	footer := "esc: back to list • r: toggle raw view • q: quit"
	b.WriteString(footerStyle.Render(footer))

	return b.String()
}

// renderRawView renders the post as decoded from the Graph API
func (m Model) renderRawView() string {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.items) {
		return "No post selected"
	}

	item := m.items[m.selectedIndex]
	content := FormatRawItem(item)

	var b strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12"))

	b.WriteString(headerStyle.Render("Raw Post"))
	b.WriteString("\n\n")
	b.WriteString(content)
	b.WriteString("\n\n")

	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240"))

	footer := "esc: back to list • r: toggle detail view • q: quit"
	b.WriteString(footerStyle.Render(footer))

	return b.String()
}

// Run starts the Bubble Tea program
func Run(items []Entry, eventID string) error {
	if len(items) == 0 {
		fmt.Println("No posts to preview")
		return nil
	}

	p := tea.NewProgram(NewModel(items, eventID), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
