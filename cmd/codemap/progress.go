package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// stages are the pipeline phases progressTracker cycles through. They
// mirror internal/report.Analyze's sequence, not an independent source of
// truth — SetStage only ever moves forward through this list.
var stages = []string{"walk", "metrics+deps", "structure", "clones+smells", "narrative", "done"}

var stageLabelStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#3B82F6")).
	Bold(true)

type progressTracker struct {
	program *tea.Program
	stageCh chan string
	done    chan struct{}
}

// newProgressTracker builds a live stage-progress bar writing to w. It is a
// purely cosmetic wrapper over report.Analyze's one-shot call: Start
// launches the bubbletea program, SetStage advances it, Stop tears it down.
func newProgressTracker(w io.Writer) *progressTracker {
	t := &progressTracker{
		stageCh: make(chan string, len(stages)),
		done:    make(chan struct{}),
	}
	m := progressModel{bar: progress.New(progress.WithDefaultGradient()), stages: stages}
	t.program = tea.NewProgram(m, tea.WithOutput(w))
	return t
}

// Start runs the bubbletea event loop in the background.
func (t *progressTracker) Start() {
	go func() {
		defer close(t.done)
		_, _ = t.program.Run()
	}()
	go func() {
		for stage := range t.stageCh {
			t.program.Send(stageMsg(stage))
		}
	}()
}

// SetStage advances the bar to the named stage.
func (t *progressTracker) SetStage(stage string) {
	select {
	case t.stageCh <- stage:
	default:
	}
}

// Stop quits the bubbletea program and waits for its goroutine to exit.
func (t *progressTracker) Stop() {
	close(t.stageCh)
	t.program.Quit()
	<-t.done
}

type stageMsg string

type progressModel struct {
	bar    progress.Model
	stages []string
	index  int
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stageMsg:
		for i, s := range m.stages {
			if s == string(msg) {
				m.index = i
			}
		}
		if string(msg) == "done" {
			return m, tea.Quit
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.bar.Width = msg.Width - 4
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m progressModel) View() string {
	frac := 0.0
	if n := len(m.stages) - 1; n > 0 {
		frac = float64(m.index) / float64(n)
	}
	label := ""
	if m.index < len(m.stages) {
		label = stageLabelStyle.Render(m.stages[m.index])
	}
	return fmt.Sprintf("%s %s\n", m.bar.ViewAs(frac), label)
}
