package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docembed/internal/embedding"
	"docembed/internal/service"
)

// EmbedPort is the TUI-facing subset of the embedding service.
type EmbedPort interface {
	Embed(ctx context.Context, req service.Request) (*service.Response, error)
}

// leading is how many vector components are shown.
const leading = 8

type entry struct {
	document  string
	module    string
	typ       string
	embedding embedding.Embedding
}

// embeddedMsg carries the outcome of an embedding command.
type embeddedMsg struct {
	document string
	resp     *service.Response
	err      error
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	service  EmbedPort
	base     service.Request
	timeout  time.Duration
	input    textinput.Model
	viewport viewport.Model
	history  []entry
	status   string
	cursor   int
	busy     bool
	ready    bool
}

// New creates a new TUI model instance. base selects the provider and
// options every document is embedded with.
func New(svc EmbedPort, base service.Request, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a document and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	if timeout <= 0 {
		timeout = time.Minute
	}
	return Model{service: svc, base: base, timeout: timeout, input: ti, viewport: vp, status: "Ready. Type to embed."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around result and query boxes
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 1                                    // header
		totalFooterLines := 1                                    // status
		reserved := totalHeaderLines + totalFooterLines + qh + 1 // 1 spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrent())
		return m, nil
	case embeddedMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else if len(msg.resp.Embeddings) != 1 {
			m.status = fmt.Sprintf("Error: expected 1 embedding, got %d", len(msg.resp.Embeddings))
		} else {
			m.history = append(m.history, entry{
				document:  msg.document,
				module:    msg.resp.Module,
				typ:       msg.resp.Type,
				embedding: msg.resp.Embeddings[0],
			})
			m.cursor = len(m.history) - 1
			m.status = fmt.Sprintf("Embedded with %s/%s", msg.resp.Module, msg.resp.Type)
			m.input.SetValue("")
		}
		m.viewport.SetContent(m.renderCurrent())
		return m, nil
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			doc := strings.TrimSpace(m.input.Value())
			if doc != "" && !m.busy {
				m.busy = true
				m.status = "Embedding..."
				return m, m.embed(doc)
			}
		case "down":
			if len(m.history) > 0 {
				m.cursor = (m.cursor + 1) % len(m.history)
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "up":
			if len(m.history) > 0 {
				m.cursor = (m.cursor - 1 + len(m.history)) % len(m.history)
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) embed(doc string) tea.Cmd {
	req := m.base
	req.Documents = []string{doc}
	svc, timeout := m.service, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		resp, err := svc.Embed(ctx, req)
		return embeddedMsg{document: doc, resp: resp, err: err}
	}
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Document Embeddings")
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrent() string {
	if len(m.history) == 0 {
		return "No embeddings yet."
	}
	e := m.history[m.cursor]
	var b strings.Builder
	fmt.Fprintf(&b, "Embedding %d/%d  %s/%s\n\n", m.cursor+1, len(m.history), e.module, e.typ)
	b.WriteString(documentStyle.Render(e.document))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "dimension  %d\n", len(e.embedding))
	fmt.Fprintf(&b, "norm       %.4f\n", norm(e.embedding))
	if m.cursor > 0 {
		prev := m.history[m.cursor-1]
		if sim, ok := cosine(prev.embedding, e.embedding); ok {
			fmt.Fprintf(&b, "similarity %.4f (to previous)\n", sim)
		}
	}
	b.WriteString("\n")
	b.WriteString(highlightStyle.Render(formatLeading(e.embedding, leading)))
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	documentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func formatLeading(v embedding.Embedding, n int) string {
	parts := make([]string, 0, n+1)
	for i, x := range v {
		if i == n {
			parts = append(parts, fmt.Sprintf("… +%d", len(v)-n))
			break
		}
		parts = append(parts, fmt.Sprintf("%.4f", x))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func norm(v embedding.Embedding) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

// cosine returns the cosine similarity of a and b; ok is false when the
// lengths differ or either vector is zero.
func cosine(a, b embedding.Embedding) (float64, bool) {
	if len(a) != len(b) {
		return 0, false
	}
	na, nb := norm(a), norm(b)
	if na == 0 || nb == 0 {
		return 0, false
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (na * nb), true
}
