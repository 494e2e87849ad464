package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jdecomp/jdecomp/internal/application"
)

type batchProgressMsg struct {
	done  int
	total int
	class string
}

type batchDoneMsg struct {
	err error
}

type batchSpinnerModel struct {
	spinner spinner.Model
	label   string
	run     tea.Cmd
	status  string
	err     error
	done    bool
}

func newBatchSpinnerModel(label string, run tea.Cmd) batchSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return batchSpinnerModel{
		spinner: s,
		label:   label,
		run:     run,
	}
}

func (m batchSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run)
}

func (m batchSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case batchProgressMsg:
		m.status = fmt.Sprintf("%d/%d %s", msg.done, msg.total, msg.class)
		return m, nil
	case batchDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m batchSpinnerModel) View() string {
	if m.done {
		return ""
	}
	if m.status == "" {
		return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
	}

	return fmt.Sprintf("%s %s %s", m.spinner.View(), m.label, m.status)
}

func runBatchSpinner(ctx context.Context, output io.Writer, run func(context.Context, application.BatchProgress) error) error {
	var p *tea.Program

	progress := func(done, total int, item application.BatchItem) {
		p.Send(batchProgressMsg{done: done, total: total, class: item.ClassName})
	}
	runCmd := func() tea.Msg {
		return batchDoneMsg{err: run(ctx, progress)}
	}

	p = tea.NewProgram(
		newBatchSpinnerModel("Decompiling classes...", runCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(batchSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
