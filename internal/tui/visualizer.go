// SPDX-License-Identifier: MIT

// Package tui renders a live terminal spectrum view of the banded analysis.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"waveviz/internal/dsp"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	lowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#25A065"))
	midStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B"))
	highStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E06C75"))
	capStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFDF5"))
)

// SpectralSource provides frequency-domain snapshots for the view.
type SpectralSource interface {
	FrequencyDomainInto(dst []float64) error
	BinCount() int
	SampleRate() float64
}

// Options configures the spectrum view.
type Options struct {
	Bands        int
	MaxFrequency float64
	Smoothing    float64
	CapFallSpeed float64
	RefreshRate  float64
}

type tickMsg time.Time

// VisualizerModel is the Bubble Tea model for the live spectrum view.
type VisualizerModel struct {
	source   SpectralSource
	opts     Options
	interval time.Duration

	bands    dsp.BandSet
	freqBuf  []float64
	smoothed []float64
	caps     []float64

	width  int
	height int
	ready  bool
	err    error
}

// NewVisualizerModel creates the spectrum view model. Band layout is computed
// once from the source's resolution.
func NewVisualizerModel(source SpectralSource, opts Options) (VisualizerModel, error) {
	bands, err := dsp.ComputeBands(source.BinCount(), opts.Bands, source.SampleRate(), opts.MaxFrequency)
	if err != nil {
		return VisualizerModel{}, err
	}

	rate := opts.RefreshRate
	if rate <= 0 {
		rate = 30
	}

	return VisualizerModel{
		source:   source,
		opts:     opts,
		interval: time.Duration(float64(time.Second) / rate),
		bands:    bands,
		freqBuf:  make([]float64, source.BinCount()),
		smoothed: make([]float64, opts.Bands),
		caps:     make([]float64, opts.Bands),
	}, nil
}

func (m VisualizerModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m VisualizerModel) Init() tea.Cmd {
	return m.tick()
}

func (m VisualizerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case tickMsg:
		if err := m.source.FrequencyDomainInto(m.freqBuf); err == nil {
			dsp.UpdateBands(m.freqBuf, m.bands, m.smoothed, m.opts.Smoothing)
			for i, v := range m.smoothed {
				fallen := m.caps[i] * m.opts.CapFallSpeed
				if v > fallen {
					m.caps[i] = v
				} else {
					m.caps[i] = fallen
				}
			}
		}
		return m, m.tick()

	case tea.KeyMsg:
		if key.Matches(msg, key.NewBinding(key.WithKeys("q", "ctrl+c"))) {
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m VisualizerModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to exit.", m.err)
	}

	title := titleStyle.Render("Spectrum")
	help := infoStyle.Render("q: Quit")

	chartHeight := m.height - 4
	if chartHeight < 3 {
		chartHeight = 3
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, m.renderBars(chartHeight), help)
}

// renderBars draws each band as a vertical column, top row first. The decayed
// peak cap is marked one row above the bar.
func (m VisualizerModel) renderBars(chartHeight int) string {
	colWidth := 2
	var sb strings.Builder

	for row := chartHeight; row >= 1; row-- {
		for i := range m.smoothed {
			barRows := int(m.smoothed[i] / 255 * float64(chartHeight))
			capRow := int(m.caps[i] / 255 * float64(chartHeight))

			cell := strings.Repeat(" ", colWidth)
			switch {
			case row <= barRows:
				frac := float64(row) / float64(chartHeight)
				block := strings.Repeat("█", colWidth)
				switch {
				case frac > 0.8:
					cell = highStyle.Render(block)
				case frac > 0.5:
					cell = midStyle.Render(block)
				default:
					cell = lowStyle.Render(block)
				}
			case row == capRow && capRow > barRows:
				cell = capStyle.Render(strings.Repeat("▔", colWidth))
			}
			sb.WriteString(cell)
			sb.WriteString(" ")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// Run launches the spectrum view and blocks until the user quits.
func Run(source SpectralSource, opts Options) error {
	model, err := NewVisualizerModel(source, opts)
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
