package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/scheerer/redlight/internal/game"
	"github.com/scheerer/redlight/internal/logging"
)

var logger = logging.New("ui")

type tickMsg time.Time

type endedMsg struct{ reason game.Reason }

type teardownMsg struct{}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	lightStyle = lipgloss.NewStyle().Width(14).Height(6).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	timerStyle = lipgloss.NewStyle().Bold(true).MarginTop(1)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	overStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("0")).Padding(0, 2).MarginTop(1)

	red   = lipgloss.Color("#e02020")
	green = lipgloss.Color("#20c040")
)

type Options struct {
	TickPeriod    time.Duration
	GameOverDelay time.Duration
}

// Model is the game's event loop. It owns the tick schedule, so the signal
// and the countdown share one time base.
type Model struct {
	session    *game.Session
	controller *game.Controller
	opts       Options

	over   bool
	reason game.Reason
	width  int
	height int
}

func New(session *game.Session, controller *game.Controller, opts Options) Model {
	if opts.TickPeriod <= 0 {
		opts.TickPeriod = time.Second
	}
	return Model{
		session:    session,
		controller: controller,
		opts:       opts,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.scheduleTick(), waitForEnd(m.session))
}

func (m Model) scheduleTick() tea.Cmd {
	return tea.Tick(m.opts.TickPeriod, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func waitForEnd(s *game.Session) tea.Cmd {
	return func() tea.Msg {
		<-s.Done()
		return endedMsg{reason: s.Reason()}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.over || !m.session.Running() {
			return m, nil
		}
		m.controller.Tick()
		return m, m.scheduleTick()

	case endedMsg:
		if m.over {
			return m, nil
		}
		m.over = true
		m.reason = msg.reason
		logger.With(zap.Stringer("reason", msg.reason), zap.Stringer("delay", m.opts.GameOverDelay)).Info("Tearing down")
		return m, tea.Tick(m.opts.GameOverDelay, func(time.Time) tea.Msg { return teardownMsg{} })

	case teardownMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.session.End(game.ReasonUserQuit)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	}
	return m, nil
}

func (m Model) Over() bool {
	return m.over
}

func (m Model) View() string {
	signal := m.session.Signal()

	fill := red
	if signal == game.Go {
		fill = green
	}

	blocks := []string{
		titleStyle.Render("Red Light, Green Light"),
		lightStyle.Background(fill).Render(""),
		timerStyle.Render(fmt.Sprintf("Time: %ds", m.session.Countdown())),
		dimStyle.Render(fmt.Sprintf("%s · round %d · survived %d", signal, m.session.Rounds(), m.session.StopsSurvived())),
	}
	if m.over {
		blocks = append(blocks, overStyle.Render("Game Over!"), dimStyle.Render(reasonText(m.reason)))
	} else {
		blocks = append(blocks, "", dimStyle.Render("freeze while red · q to quit"))
	}

	content := lipgloss.JoinVertical(lipgloss.Center, blocks...)
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	return content
}

func reasonText(r game.Reason) string {
	switch r {
	case game.ReasonMotion:
		return "You moved on red."
	case game.ReasonUserQuit:
		return "You quit."
	case game.ReasonFrameReadFailure:
		return "The camera stopped sending frames."
	case game.ReasonInterrupted:
		return "Interrupted."
	default:
		return ""
	}
}
