package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jersy/ariadne/internal/graphstore"
	"github.com/jersy/ariadne/internal/jobqueue"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect rebuild jobs",
}

var jobsWatchCmd = &cobra.Command{
	Use:   "watch <job_id>",
	Short: "Watch a rebuild job's progress live",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := graphstore.Open(activeConfig.DBPath)
		if err != nil {
			return fmt.Errorf("open graph store: %w", err)
		}
		defer store.Close()

		model := newJobWatchModel(jobqueue.New(store), args[0])
		_, err = tea.NewProgram(model).Run()
		return err
	},
}

type jobTickMsg struct{}

func jobTick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(time.Time) tea.Msg { return jobTickMsg{} })
}

// jobWatchModel polls a jobqueue.Queue for one job's status and renders a
// progress bar — the generalization of the teacher's bubbletea TUI stack
// to ariadne's single watchable long-running operation.
type jobWatchModel struct {
	queue    *jobqueue.Queue
	jobID    string
	bar      progress.Model
	job      *graphstore.Job
	err      error
	finished bool
}

func newJobWatchModel(queue *jobqueue.Queue, jobID string) jobWatchModel {
	return jobWatchModel{
		queue: queue,
		jobID: jobID,
		bar:   progress.New(progress.WithDefaultGradient()),
	}
}

func (m jobWatchModel) Init() tea.Cmd {
	return jobTick()
}

func (m jobWatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case jobTickMsg:
		job, err := m.queue.GetJob(m.jobID)
		if err != nil {
			m.err = err
			return m, tea.Quit
		}
		m.job = job
		if job.Status == "complete" || job.Status == "failed" {
			m.finished = true
			return m, tea.Quit
		}
		return m, jobTick()
	}
	return m, nil
}

func (m jobWatchModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("error watching job %s: %v\n", m.jobID, m.err)
	}
	if m.job == nil {
		return fmt.Sprintf("loading job %s...\n", m.jobID)
	}

	title := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("rebuild %s [%s]", m.job.JobID, m.job.Mode))
	bar := m.bar.ViewAs(float64(m.job.Progress) / 100)
	status := fmt.Sprintf("%s  %d/%d files", m.job.Status, m.job.ProcessedFiles, m.job.TotalFiles)
	if m.finished {
		status += "  (press q to exit)"
	}
	return fmt.Sprintf("%s\n%s\n%s\n", title, bar, status)
}
