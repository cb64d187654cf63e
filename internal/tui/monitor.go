// Package tui renders a live run monitor while the driver steps: a
// bubbletea Model/Update/View loop where a tickMsg drives each redraw,
// lipgloss styles the stat panel, and asciigraph plots the running
// mass-drift history as a sparkline.
package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

const historyCapacity = 300

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// TickReport is what the driver's run loop publishes after each tick for
// the monitor to render; the driver sends these on Reports without
// blocking on the UI, so a slow terminal never throttles the simulation.
type TickReport struct {
	Tick             int64
	ActiveSuperdrops int
	MassDriftFrac    float64
	CondensedMass    float64
	CollisionEvents  int
	Done             bool
	Err              error
}

type tickMsg TickReport

// Model is the bubbletea model for the live monitor: a stat panel and
// sparkline over the handful of scalar diagnostics driver.Result tracks.
type Model struct {
	scenario     string
	reports      <-chan TickReport
	numTicks     int64
	latest       TickReport
	driftHistory []float64
	finished     bool
	err          error
}

// NewModel returns a Model that will render updates arriving on reports
// until the channel closes or a report carries Done.
func NewModel(scenario string, numTicks int64, reports <-chan TickReport) Model {
	return Model{
		scenario:     scenario,
		reports:      reports,
		numTicks:     numTicks,
		driftHistory: make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return m.waitForReport()
}

func (m Model) waitForReport() tea.Cmd {
	return func() tea.Msg {
		report, ok := <-m.reports
		if !ok {
			return tickMsg(TickReport{Done: true})
		}
		return tickMsg(report)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case tickMsg:
		report := TickReport(msg)
		if report.Done {
			m.finished = true
			m.err = report.Err
			return m, tea.Quit
		}
		m.latest = report
		m.driftHistory = append(m.driftHistory, report.MassDriftFrac)
		if len(m.driftHistory) > historyCapacity {
			m.driftHistory = m.driftHistory[1:]
		}
		return m, m.waitForReport()
	}
	return m, nil
}

func (m Model) View() string {
	header := headerStyle.Render(fmt.Sprintf("sdm run: %s", m.scenario))

	stats := fmt.Sprintf(
		"%s%s\n%s%s\n%s%s\n%s%s\n%s%s",
		labelStyle.Render("tick"), valueStyle.Render(fmt.Sprintf("%d / %d", m.latest.Tick, m.numTicks)),
		labelStyle.Render("superdrops"), valueStyle.Render(fmt.Sprintf("%d", m.latest.ActiveSuperdrops)),
		labelStyle.Render("mass drift"), driftValue(m.latest.MassDriftFrac),
		labelStyle.Render("condensed"), valueStyle.Render(fmt.Sprintf("%.6g", m.latest.CondensedMass)),
		labelStyle.Render("collisions"), valueStyle.Render(fmt.Sprintf("%d", m.latest.CollisionEvents)),
	)

	graph := ""
	if len(m.driftHistory) > 1 {
		graph = graphStyle.Render(asciigraph.Plot(m.driftHistory,
			asciigraph.Height(8), asciigraph.Width(60), asciigraph.Caption("mass drift fraction")))
	}

	body := lipgloss.JoinVertical(lipgloss.Left, header, stats, graph, helpStyle.Render("q: quit"))

	if m.finished {
		status := "run complete"
		if m.err != nil {
			status = warnStyle.Render(fmt.Sprintf("run ended: %v", m.err))
		}
		body = lipgloss.JoinVertical(lipgloss.Left, body, status)
	}
	return body
}

func driftValue(frac float64) string {
	if frac > 0.01 {
		return warnStyle.Render(fmt.Sprintf("%.4f", frac))
	}
	return valueStyle.Render(fmt.Sprintf("%.6f", frac))
}

// Run starts the bubbletea program and blocks until the run finishes or
// the user quits, serving as the CLI's entry
// point into the live view.
func Run(scenario string, numTicks int64, reports <-chan TickReport) error {
	p := tea.NewProgram(NewModel(scenario, numTicks, reports))
	_, err := p.Run()
	return err
}

// Throttle rate-limits a send to reports: a report arriving less than
// minInterval after the last one passed on is dropped, and a Done report
// always passes. It does not make send itself non-blocking.
func Throttle(minInterval time.Duration) func(send func(TickReport), report TickReport) {
	var last time.Time
	return func(send func(TickReport), report TickReport) {
		if report.Done || time.Since(last) >= minInterval {
			last = time.Now()
			send(report)
		}
	}
}
