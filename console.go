/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Seednode/guesswho/selector"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	consoleTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f5c542"))
	consoleFrameStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#f5c542")).Padding(1, 4).Width(32).Align(lipgloss.Center)
	consoleResultStyle = consoleFrameStyle.BorderForeground(lipgloss.Color("#6ee7a8")).Bold(true)
	consoleHintStyle   = lipgloss.NewStyle().Faint(true)
)

// consoleFrameMsg is one timer firing. gen ties it to the spin that
// scheduled it, so firings left over from an earlier spin are ignored.
type consoleFrameMsg struct {
	gen int
}

// consoleScreen is the display the engine renders to in the terminal.
type consoleScreen struct {
	shown selector.Image
}

func (s *consoleScreen) Render(img selector.Image) error {
	s.shown = img
	return nil
}

type consoleModel struct {
	cfg        *Config
	engine     *selector.Engine
	screen     *consoleScreen
	generation int
	result     *selector.Image
	status     string
}

func newConsoleModel(cfg *Config, catalog *selector.Catalog) (consoleModel, error) {
	screen := &consoleScreen{shown: catalog.Image(0)}

	engine, err := selector.New(catalog, cfg.selection, screen, newRand(cfg.seed))
	if err != nil {
		return consoleModel{}, err
	}

	return consoleModel{
		cfg:    cfg,
		engine: engine,
		screen: screen,
		status: fmt.Sprintf("%d of %d can be picked (%s)", len(catalog.Selectable()), catalog.Len(), engine.Mode()),
	}, nil
}

func (m consoleModel) Init() tea.Cmd {
	return nil
}

func (m consoleModel) scheduleFrame() tea.Cmd {
	gen := m.generation
	return tea.Tick(m.cfg.interval, func(time.Time) tea.Msg {
		return consoleFrameMsg{gen: gen}
	})
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case " ", "enter":
			if m.engine.Running() {
				return m.stop(), nil
			}
			return m.start()
		case "s":
			return m.start()
		case "x":
			return m.stop(), nil
		}

	case consoleFrameMsg:
		if msg.gen != m.generation || !m.engine.Running() {
			return m, nil
		}
		_ = m.engine.Tick()
		return m, m.scheduleFrame()
	}

	return m, nil
}

func (m consoleModel) start() (tea.Model, tea.Cmd) {
	if !m.engine.Start() {
		return m, nil
	}

	m.generation++
	m.result = nil

	return m, m.scheduleFrame()
}

func (m consoleModel) stop() consoleModel {
	if stopped, _ := m.engine.Stop(); !stopped {
		return m
	}

	m.generation++

	choice, err := m.engine.CurrentChoice()
	if err != nil {
		m.status = err.Error()
		return m
	}
	m.result = &choice

	return m
}

func (m consoleModel) View() string {
	var b strings.Builder

	b.WriteString(consoleTitleStyle.Render(m.cfg.caption))
	b.WriteString("\n\n")

	if m.result != nil {
		b.WriteString(consoleResultStyle.Render(m.result.Name))
	} else {
		b.WriteString(consoleFrameStyle.Render(m.screen.shown.Name))
	}
	b.WriteString("\n\n")

	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString(consoleHintStyle.Render("space: start/stop • q: quit"))
	b.WriteString("\n")

	return b.String()
}

func runConsole(ctx context.Context, cfg *Config) error {
	catalog, err := buildCatalog(cfg, newImageStore(afero.NewOsFs(), cfg.images))
	if err != nil {
		return err
	}

	model, err := newConsoleModel(cfg, catalog)
	if err != nil {
		return err
	}

	_, err = tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen()).Run()

	return err
}

func newConsoleCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Play in the terminal instead of serving the web client.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return runConsole(cmd.Context(), cfg)
		},
	}
}
