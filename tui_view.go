package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/llehouerou/waveshelf/internal/library"
	"github.com/llehouerou/waveshelf/internal/playback"
	"github.com/llehouerou/waveshelf/internal/player"
)

const (
	headerHeight    = 2 // tabs + view title
	statusHeight    = 1
	playerBarHeight = 3 // top border + content + bottom border
)

var (
	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245"))
	activeTabStyle = tabStyle.Bold(true).Foreground(lipgloss.Color("231"))
	titleStyle     = lipgloss.NewStyle().Faint(true)
	cursorStyle    = lipgloss.NewStyle().Bold(true).Reverse(true)
	playingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	playerBarStyle = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder())
)

func (m tuiModel) listHeight() int {
	return m.height - headerHeight - statusHeight - playerBarHeight
}

func (m tuiModel) View() string {
	if m.width == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(titleStyle.Render(m.viewTitle()))
	b.WriteString("\n")
	b.WriteString(m.renderList())
	b.WriteString(statusStyle.Render(runewidth.Truncate(m.status, m.width, "…")))
	b.WriteString("\n")
	b.WriteString(m.renderPlayerBar())
	return b.String()
}

func (m tuiModel) renderTabs() string {
	parts := make([]string, len(tabNames))
	for i, name := range tabNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if tab(i) == m.tab {
			parts[i] = activeTabStyle.Render(label)
		} else {
			parts[i] = tabStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m tuiModel) viewTitle() string {
	switch {
	case m.tab == tabRadio:
		return "Radio stations"
	case m.view == nil:
		return "Loading…"
	default:
		return m.view.Title
	}
}

func (m tuiModel) renderList() string {
	visible := max(m.listHeight(), 0)
	lines := make([]string, 0, visible)

	if m.tab != tabRadio && m.view != nil && m.view.Outcome != library.OutcomeItems {
		lines = append(lines, m.view.Message)
	} else {
		for i := m.offset; i < m.rows() && len(lines) < visible; i++ {
			lines = append(lines, m.renderRow(i))
		}
	}

	for len(lines) < visible {
		lines = append(lines, "")
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m tuiModel) renderRow(i int) string {
	var text string
	playing := false
	switch {
	case m.tab == tabRadio:
		st := m.stations[i]
		text = st.Title + "  " + st.Artist
		playing = m.snap.Kind == playback.KindRadio && m.snap.StationID == st.ID
	case m.view.ListsSongs():
		s := m.view.Songs[i]
		text = columns(m.width-2, s.Title, s.Artist, s.Album)
		playing = m.snap.Kind == playback.KindLocal && m.snap.TrackID == s.ID
	default:
		g := m.view.Groups[i]
		text = columns(m.width-2, g.Name, g.Artist, fmt.Sprintf("%d track(s)", g.Tracks))
	}

	marker := "  "
	if playing {
		marker = playingStyle.Render("♪ ")
	}
	text = runewidth.FillRight(runewidth.Truncate(text, m.width-2, "…"), m.width-2)
	if i == m.cursor {
		text = cursorStyle.Render(text)
	}
	return marker + text
}

// columns lays cells out in equal-width columns.
func columns(width int, cells ...string) string {
	if width <= 0 || len(cells) == 0 {
		return ""
	}
	col := width / len(cells)
	var b strings.Builder
	for i, c := range cells {
		if i == len(cells)-1 {
			b.WriteString(runewidth.Truncate(c, width-col*i, "…"))
			break
		}
		b.WriteString(runewidth.FillRight(runewidth.Truncate(c, col-1, "…"), col))
	}
	return b.String()
}

// renderPlayerBar draws "status  artist - album  title ... 0:42 / 3:10",
// dropping the album, then the artist, when the width runs out.
func (m tuiModel) renderPlayerBar() string {
	innerWidth := max(m.width-2, 0)
	style := playerBarStyle.BorderForeground(lipgloss.Color(m.accent)).Width(innerWidth)

	snap := m.snap
	if snap.Kind == playback.KindNone {
		return style.Render(titleStyle.Render(" Nothing playing"))
	}

	status := "▶"
	switch snap.Phase {
	case playback.PhasePaused:
		status = "⏸"
	case playback.PhaseLoading, playback.PhaseRadioConnecting:
		status = "…"
	case playback.PhaseEnded, playback.PhaseFailed, playback.PhaseRadioFailed:
		status = "■"
	}

	right := " "
	if snap.Kind == playback.KindLocal {
		right = fmt.Sprintf("%s / %s ", player.FormatTime(snap.Position), player.FormatTime(snap.Duration))
	} else if snap.Phase == playback.PhasePlaying {
		right = "LIVE "
	}
	rightLen := lipgloss.Width(right)

	const minGap = 2
	statusPart := " " + status + "  "
	available := innerWidth - lipgloss.Width(statusPart) - rightLen - minGap

	title := snap.Title
	artistAlbum := snap.Artist
	if snap.Artist != "" && snap.Album != "" {
		artistAlbum = snap.Artist + " - " + snap.Album
	}

	var artistPart string
	switch {
	case artistAlbum != "" && lipgloss.Width(artistAlbum)+minGap+lipgloss.Width(title) <= available:
		artistPart = artistAlbum
	case snap.Artist != "" && lipgloss.Width(snap.Artist)+minGap+lipgloss.Width(title) <= available:
		artistPart = snap.Artist
	}

	left := statusPart
	if artistPart != "" {
		left += artistPart + strings.Repeat(" ", minGap)
	}
	left += runewidth.Truncate(title, max(available, 1), "…")

	padding := max(innerWidth-lipgloss.Width(left)-rightLen, 0)
	return style.Render(left + strings.Repeat(" ", padding) + right)
}
