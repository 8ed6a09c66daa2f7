package controller

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	m "github.com/structur-io/structur/internal/model"
)

// docItemDelegate renders one completed document per line.
type docItemDelegate struct{}

func (d docItemDelegate) Height() int  { return 1 }
func (d docItemDelegate) Spacing() int { return 0 }
func (d docItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d docItemDelegate) Render(w io.Writer, lm list.Model, index int, item list.Item) {
	doc, ok := item.(docItem)
	if !ok {
		return
	}

	statusColor := lipgloss.Color("2")
	if doc.status == "failed" {
		statusColor = lipgloss.Color("1")
	}

	statusStyle := lipgloss.NewStyle().Foreground(statusColor).Bold(true).Width(8)
	idStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	detailStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	if index == lm.Index() {
		idStyle = idStyle.Bold(true)
	}

	line := fmt.Sprintf("%s  %s  %s",
		statusStyle.Render(doc.status),
		idStyle.Render(truncateLabel(doc.id, 32)),
		detailStyle.Render(doc.detail),
	)
	_, _ = fmt.Fprint(w, line)
}

// runModel handles the TUI display during a processing run.
type runModel struct {
	width       int
	height      int
	progressBar progress.Model

	totalDocs      int
	completedCount int
	failedCount    int
	currentDoc     string

	finished bool
	stats    m.RunStats

	docList list.Model
}

func newRunModel() runModel {
	prog := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
	)

	docList := list.New([]list.Item{}, docItemDelegate{}, 80, 20)
	docList.SetShowPagination(false)
	docList.SetShowFilter(false)
	docList.SetShowHelp(false)
	docList.SetShowTitle(false)
	docList.SetShowStatusBar(false)

	return runModel{
		progressBar: prog,
		docList:     docList,
	}
}

func (rm runModel) Init() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (rm runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		rm.width = msg.Width
		rm.height = msg.Height

		rm.progressBar.Width = rm.width - 8
		if rm.progressBar.Width < 20 {
			rm.progressBar.Width = 20
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return rm, tea.Quit
		default:
			if rm.finished {
				rm.docList, cmd = rm.docList.Update(msg)
			}
		}

	case tickMsg:
		return rm, tea.Tick(time.Millisecond*150, func(t time.Time) tea.Msg {
			return tickMsg(t)
		})

	case runStartMsg:
		rm.totalDocs = msg.total
		rm.completedCount = 0

	case startDocMsg:
		rm.currentDoc = msg.id

	case completedDocMsg:
		rm = rm.handleCompletedDoc(msg)

	case summaryMsg:
		rm.finished = true
		rm.stats = msg.stats
	}

	return rm, cmd
}

func (rm runModel) handleCompletedDoc(msg completedDocMsg) runModel {
	rm.completedCount++

	status := "done"
	detail := fmt.Sprintf("%d coded, %d duplicate, %d already coded, %d malformed",
		msg.coded, msg.dups, msg.seen, msg.broken)

	if msg.state == m.StateFailed {
		status = "failed"
		detail = msg.reason
		rm.failedCount++
	}

	items := append(rm.docList.Items(), docItem{
		id:     msg.id,
		status: status,
		detail: detail,
	})
	rm.docList.SetItems(items)

	return rm
}

func (rm runModel) View() string {
	if rm.finished {
		return rm.viewSummary()
	}

	return rm.viewProgress()
}

func (rm runModel) viewProgress() string {
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true).
		Padding(1, 0, 0, 2)

	summaryStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")).
		Padding(0, 0, 1, 2)

	title := titleStyle.Render("structur")

	summary := summaryStyle.Render(fmt.Sprintf(
		"Documents: %s / %s  •  Failed: %s",
		accentStyle.Render(fmt.Sprintf("%d", rm.completedCount)),
		accentStyle.Render(fmt.Sprintf("%d", rm.totalDocs)),
		accentStyle.Render(fmt.Sprintf("%d", rm.failedCount)),
	))

	percent := 0.0
	if rm.totalDocs > 0 {
		percent = float64(rm.completedCount) / float64(rm.totalDocs)
	}

	progressView := lipgloss.NewStyle().Padding(0, 2).Render(rm.progressBar.ViewAs(percent))

	current := ""
	if rm.currentDoc != "" {
		current = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14")).
			Padding(1, 0, 0, 2).
			Render(truncateLabel(rm.currentDoc, rm.width-4))
	}

	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Padding(1, 0, 0, 2).
		Render("Press q to quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		summary,
		progressView,
		current,
		footer,
	) + "\n"
}

func (rm runModel) viewSummary() string {
	accentColor := lipgloss.Color("6")
	accentStyle := lipgloss.NewStyle().Foreground(accentColor)

	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true).
		Padding(1, 0, 0, 2)

	summaryStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")).
		Padding(0, 0, 1, 2)

	title := titleStyle.Render("structur: run complete")

	summary := summaryStyle.Render(fmt.Sprintf(
		"Processed: %s  •  Failed: %s  •  Coded spans: %s  •  Duplicates: %s  •  Malformed: %s",
		accentStyle.Render(fmt.Sprintf("%d", rm.stats.Processed)),
		accentStyle.Render(fmt.Sprintf("%d", rm.stats.Failed)),
		accentStyle.Render(fmt.Sprintf("%d", rm.stats.CodedSpans)),
		accentStyle.Render(fmt.Sprintf("%d", rm.stats.Duplicates)),
		accentStyle.Render(fmt.Sprintf("%d", rm.stats.MalformedSpans)),
	))

	words := summaryStyle.Render(fmt.Sprintf(
		"Words: original %s  •  coded %.1f%%  •  uncoded %.1f%%  •  duplicate %.1f%%  •  malformed %.1f%%",
		accentStyle.Render(fmt.Sprintf("%d", rm.stats.Words.Original)),
		rm.stats.Percent(rm.stats.Words.Coded),
		rm.stats.Percent(rm.stats.Words.Uncoded),
		rm.stats.Percent(rm.stats.Words.Duplicate),
		rm.stats.Percent(rm.stats.Words.Malformed),
	))

	listHeight := rm.height - 10
	if listHeight < 5 {
		listHeight = 5
	}

	rm.docList.SetHeight(listHeight)
	rm.docList.SetWidth(rm.width - 4)

	docsBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Margin(0, 1, 0, 0).
		Padding(0, 1).
		Render(rm.docList.View())

	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Render("  ↑/k up • ↓/j down • q quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		summary,
		words,
		docsBox,
		footer,
	) + "\n"
}

func truncateLabel(text string, width int) string {
	if width <= 0 {
		return ""
	}

	if lipgloss.Width(text) <= width {
		return text
	}

	if width <= 1 {
		return "…"
	}

	var b strings.Builder

	currentWidth := 0

	for _, r := range text {
		rWidth := lipgloss.Width(string(r))
		if currentWidth+rWidth > width-1 {
			break
		}

		b.WriteRune(r)

		currentWidth += rWidth
	}

	return b.String() + "…"
}
