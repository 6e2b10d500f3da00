// Package display renders fetched chat messages to the terminal with
// per-kind styling.
package display

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/onnwee/livechat-bot/monitor"
)

var (
	timeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	authorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	textStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	superChatStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	memberStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
)

// Terminal writes one styled line per chat message. Writes are serialized so
// concurrent sessions never interleave mid-line.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer
}

// NewTerminal renders to stdout.
func NewTerminal() *Terminal {
	return &Terminal{out: os.Stdout}
}

// Show implements monitor.DisplaySink.
func (t *Terminal) Show(msg monitor.ChatMessage) {
	ts := timeStyle.Render(msg.PublishedAt.Local().Format("15:04:05"))
	author := authorStyle.Render(msg.AuthorName)
	var body string
	switch msg.Type {
	case monitor.MessageSuperChat:
		body = superChatStyle.Render("[Super Chat] " + msg.Text)
	case monitor.MessageNewMember:
		body = memberStyle.Render("[New Member] " + msg.Text)
	case monitor.MessageMemberMilestone:
		body = memberStyle.Render("[Milestone] " + msg.Text)
	default:
		body = textStyle.Render(msg.Text)
	}
	t.mu.Lock()
	fmt.Fprintf(t.out, "%s %s: %s\n", ts, author, body)
	t.mu.Unlock()
}
