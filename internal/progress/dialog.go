package progress

import (
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bluecraft-server/bcupdater/internal/update"
)

var (
	accentColor  = lipgloss.Color("#2E9BD6")
	dimColor     = lipgloss.Color("#6C7A89")
	successColor = lipgloss.Color("#4CBB6C")
	failColor    = lipgloss.Color("#E05A4F")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			MarginBottom(1)

	noticeStyle = lipgloss.NewStyle().
			Foreground(dimColor).
			Italic(true)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	countStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	hintStyle = lipgloss.NewStyle().
			Foreground(dimColor).
			Faint(true)

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(successColor)

	failStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(failColor)

	containerStyle = lipgloss.NewStyle().
			Padding(1, 2)
)

const (
	dialogTitle = "Bluecraft updater"
	barWidth    = 48
)

type stageMsg update.State

type progressMsg struct {
	done  int64
	total int64
}

type noticeMsg string

type finishMsg update.Result

// dialogModel is the bubbletea model behind Dialog.
type dialogModel struct {
	spinner spinner.Model
	bar     progress.Model

	state  update.State
	done   int64
	total  int64
	notice string

	cancelRequested bool
	finished        bool
	result          update.Result

	onCancel func()
	updates  chan tea.Msg
}

func newDialogModel(updates chan tea.Msg, onCancel func()) *dialogModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	bar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)

	return &dialogModel{
		spinner:  s,
		bar:      bar,
		total:    -1,
		onCancel: onCancel,
		updates:  updates,
	}
}

func (m *dialogModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.waitForUpdate(),
	)
}

func (m *dialogModel) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		return <-m.updates
	}
}

func (m *dialogModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w := msg.Width - 4
		if w > barWidth {
			w = barWidth
		}
		if w > 10 {
			m.bar.Width = w
		}
		return m, nil

	case stageMsg:
		m.state = update.State(msg)
		return m, m.waitForUpdate()

	case progressMsg:
		m.done, m.total = msg.done, msg.total
		return m, m.waitForUpdate()

	case noticeMsg:
		m.notice = string(msg)
		return m, m.waitForUpdate()

	case finishMsg:
		m.result = update.Result(msg)
		m.state = m.result.State
		m.finished = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.requestCancel()
		}
	}

	return m, nil
}

// requestCancel calls onCancel once. The dialog stays up until the run
// reports its final state.
func (m *dialogModel) requestCancel() {
	if m.cancelRequested || m.finished {
		return
	}
	m.cancelRequested = true
	if m.onCancel != nil {
		m.onCancel()
	}
}

func (m *dialogModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(dialogTitle))
	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n\n")
	}

	if m.finished {
		line := StatusLine(m.result)
		if m.result.State == update.StateFailed {
			b.WriteString(failStyle.Render(line))
		} else {
			b.WriteString(successStyle.Render(line))
		}
		return containerStyle.Render(b.String())
	}

	if m.state == update.StateFetching && m.total > 0 {
		// Drawn from the last position; the bar keeps no animation state.
		b.WriteString(m.bar.ViewAs(Percent(m.done, m.total)))
		b.WriteString("\n")
		b.WriteString(countStyle.Render(ByteCount(m.done, m.total)))
	} else {
		label := m.state.String()
		if m.state == update.StateFetching && m.done > 0 {
			label += " " + ByteCount(m.done, m.total)
		}
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(label)
	}
	b.WriteString("\n\n")

	if m.cancelRequested {
		b.WriteString(hintStyle.Render("cancelling..."))
	} else {
		b.WriteString(hintStyle.Render("esc to cancel"))
	}

	return containerStyle.Render(b.String())
}

// Dialog is a terminal progress dialog for one run. Run blocks on the
// caller's goroutine while the update reports into the dialog from
// another. Dialog implements update.Reporter and update.Notifier.
type Dialog struct {
	program *tea.Program
	model   *dialogModel
	updates chan tea.Msg
	done    chan struct{}

	mu     sync.Mutex
	result *update.Result
}

// NewDialog creates a dialog drawing to out and reading keys from in.
// A nil in disables keyboard input. onCancel is called once when the
// user presses ctrl+c or esc.
func NewDialog(out io.Writer, in io.Reader, onCancel func()) *Dialog {
	updates := make(chan tea.Msg, 64)
	model := newDialogModel(updates, onCancel)

	opts := []tea.ProgramOption{
		tea.WithOutput(out),
		tea.WithoutSignalHandler(),
	}
	if in == nil {
		opts = append(opts, tea.WithInput(nil))
	} else {
		opts = append(opts, tea.WithInput(in))
	}

	return &Dialog{
		program: tea.NewProgram(model, opts...),
		model:   model,
		updates: updates,
		done:    make(chan struct{}),
	}
}

// Run shows the dialog until Finish is called or the program is killed.
func (d *Dialog) Run() error {
	defer close(d.done)
	_, err := d.program.Run()
	return err
}

// Kill tears the dialog down without waiting for Finish.
func (d *Dialog) Kill() {
	d.program.Kill()
}

func (d *Dialog) Stage(s update.State) {
	d.send(stageMsg(s))
}

// Progress drops the update when the dialog is behind; a later position
// replaces it.
func (d *Dialog) Progress(done, total int64) {
	select {
	case d.updates <- progressMsg{done: done, total: total}:
	default:
	}
}

func (d *Dialog) Notify(message string) {
	select {
	case d.updates <- noticeMsg(message):
	default:
	}
}

// Finish delivers the final state. It is never dropped while the dialog runs.
func (d *Dialog) Finish(res update.Result) {
	d.mu.Lock()
	d.result = &res
	d.mu.Unlock()
	d.send(finishMsg(res))
}

// Result returns the state passed to Finish, if any.
func (d *Dialog) Result() (update.Result, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.result == nil {
		return update.Result{}, false
	}
	return *d.result, true
}

func (d *Dialog) send(msg tea.Msg) {
	select {
	case d.updates <- msg:
	case <-d.done:
	}
}
