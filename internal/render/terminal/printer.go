package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/tripmind/assistant/internal/domain/models"
	"github.com/tripmind/assistant/internal/sdui"
	"github.com/tripmind/assistant/internal/services/conversation"
)

// Printer writes conversation state changes to a terminal as they happen:
// streamed text is printed as it grows, widgets once they are attached.
type Printer struct {
	out      io.Writer
	registry *sdui.Registry

	mu       sync.Mutex
	messages map[string]*printedMessage
	tasks    map[string]models.TaskStatus
	thinking string
	midLine  bool
}

type printedMessage struct {
	text    string
	widgets int
	closed  bool
}

// NewPrinter creates a Printer. Widgets are drawn with registry.
func NewPrinter(out io.Writer, registry *sdui.Registry) *Printer {
	p := &Printer{out: out, registry: registry}
	p.reset()
	return p
}

func (p *Printer) reset() {
	p.messages = make(map[string]*printedMessage)
	p.tasks = make(map[string]models.TaskStatus)
	p.thinking = ""
	p.midLine = false
}

// Update prints whatever changed since the previous state.
func (p *Printer) Update(s conversation.State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.updateThinking(s.Thinking)
	p.updateTasks(s.Tasks)
	for i := range s.Messages {
		p.updateMessage(&s.Messages[i])
	}
}

// Reset forgets what was printed, so the next Update prints the whole
// transcript. A non-empty heading is printed first.
func (p *Printer) Reset(heading string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.reset()
	if heading != "" {
		p.println(titleStyle.Render("── " + heading + " ──"))
	}
}

func (p *Printer) updateThinking(t *models.ThinkingState) {
	if t == nil {
		p.thinking = ""
		return
	}
	if t.Message == p.thinking {
		return
	}
	p.thinking = t.Message
	line := "… " + t.Message
	if t.Tool != "" {
		line += " [" + t.Tool + "]"
	}
	p.println(thinkingStyle.Render(line))
}

func (p *Printer) updateTasks(tasks []models.TaskItem) {
	for _, t := range tasks {
		if prev, ok := p.tasks[t.ID]; ok && prev == t.Status {
			continue
		}
		p.tasks[t.ID] = t.Status
		p.println(taskLine(t))
	}
}

func taskLine(t models.TaskItem) string {
	switch t.Status {
	case models.TaskStatusCompleted:
		return doneStyle.Render("  ✓ " + t.Label)
	case models.TaskStatusInProgress:
		return accentStyle.Render("  ▸ " + t.Label)
	default:
		return mutedStyle.Render("  ○ " + t.Label)
	}
}

func (p *Printer) updateMessage(m *models.Message) {
	pm, seen := p.messages[m.ID]
	if !seen {
		pm = &printedMessage{}
		p.messages[m.ID] = pm
		p.println(roleLabel(m.Role))
	}
	if pm.closed {
		return
	}

	switch {
	case m.Content == pm.text:
	case strings.HasPrefix(m.Content, pm.text):
		p.print(m.Content[len(pm.text):])
	default:
		// The text was rewritten, e.g. an error replaced a partial reply.
		p.println(mutedStyle.Render("(revised)"))
		p.print(m.Content)
	}
	pm.text = m.Content

	widgets := attached(m)
	for ; pm.widgets < len(widgets); pm.widgets++ {
		if out := p.registry.Render(&widgets[pm.widgets], m.UIHandled); out != "" {
			p.println(out)
		}
	}

	if !m.IsStreaming {
		pm.closed = true
		p.endLine()
	}
}

func attached(m *models.Message) []sdui.Component {
	var out []sdui.Component
	if m.UI != nil {
		out = append(out, *m.UI)
	}
	return append(out, m.UIComponents...)
}

func roleLabel(role models.MessageRole) string {
	if role == models.RoleUser {
		return userStyle.Render("you")
	}
	return assistantStyle.Render("assistant")
}

func (p *Printer) print(s string) {
	if s == "" {
		return
	}
	fmt.Fprint(p.out, s)
	p.midLine = !strings.HasSuffix(s, "\n")
}

func (p *Printer) println(s string) {
	p.endLine()
	fmt.Fprintln(p.out, s)
}

func (p *Printer) endLine() {
	if p.midLine {
		fmt.Fprintln(p.out)
		p.midLine = false
	}
}
