package main

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/llehouerou/waveshelf/internal/artwork"
	"github.com/llehouerou/waveshelf/internal/errmsg"
	"github.com/llehouerou/waveshelf/internal/library"
	"github.com/llehouerou/waveshelf/internal/playback"
	"github.com/llehouerou/waveshelf/internal/radio"
)

// seekStep is how far the arrow keys move within a local track.
const seekStep = 10 * time.Second

type tab int

const (
	tabSongs tab = iota
	tabArtists
	tabAlbums
	tabRadio
)

var tabNames = []string{"Songs", "Artists", "Albums", "Radio"}

func (t tab) mode() library.Mode {
	switch t {
	case tabArtists:
		return library.ModeArtists
	case tabAlbums:
		return library.ModeAlbums
	default:
		return library.ModeSongs
	}
}

type (
	tickMsg       time.Time
	viewMsg       struct{ view *library.View }
	snapshotMsg   struct{ snap playback.Snapshot }
	errorMsg      struct{ text string }
	eventErrorMsg struct{ text string }
	colorMsg      struct{ color string }
	playbackDone  struct{}
	commandFailed struct {
		op  errmsg.Op
		err error
	}
)

type tuiModel struct {
	ctx      context.Context
	browser  *library.Browser
	pb       playback.Service
	sub      *playback.Subscription
	stations []radio.Station
	covers   coverSource
	logger   *zap.Logger

	tab     tab
	view    *library.View
	drilled bool // showing the songs of one artist or album
	cursor  int
	offset  int

	snap   playback.Snapshot
	accent string
	status string

	width  int
	height int
}

// coverSource reads the cover of the playing track for the accent colour.
type coverSource interface {
	pictureOf(ctx context.Context, id int64) []byte
}

func newTUIModel(ctx context.Context, a *app, pb playback.Service) tuiModel {
	return tuiModel{
		ctx:      ctx,
		browser:  a.browser,
		pb:       pb,
		sub:      pb.Subscribe(),
		stations: a.stations.All(),
		covers:   storeLookup{a},
		logger:   a.logger.Named("tui"),
		accent:   artwork.DefaultBackground,
		snap:     pb.Snapshot(),
	}
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(m.load(tabSongs.mode(), nil), m.waitEvent(), tickCmd())
}

// load renders a library view. Every tab switch and drill-down goes
// through LoadGrouped, so image handles of the previous view are revoked.
func (m tuiModel) load(mode library.Mode, sub *library.SubFilter) tea.Cmd {
	return func() tea.Msg {
		v, err := m.browser.LoadGrouped(m.ctx, mode, sub)
		if err != nil {
			return errorMsg{errmsg.Format(errmsg.OpLibraryLoad, err)}
		}
		return viewMsg{v}
	}
}

// waitEvent blocks until the playback service publishes something.
func (m tuiModel) waitEvent() tea.Cmd {
	sub, pb := m.sub, m.pb
	return func() tea.Msg {
		select {
		case <-sub.StateChanged:
		case <-sub.TrackChanged:
		case <-sub.QueueChanged:
		case <-sub.PositionChanged:
		case e := <-sub.Error:
			return eventErrorMsg{e.Message}
		case <-sub.Done:
			return playbackDone{}
		}
		return snapshotMsg{pb.Snapshot()}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) accentCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		if data := m.covers.pictureOf(m.ctx, id); data != nil {
			return colorMsg{artwork.DominantColor(data)}
		}
		return colorMsg{artwork.DefaultBackground}
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampCursor()
		return m, nil

	case viewMsg:
		m.view = msg.view
		m.cursor, m.offset = 0, 0
		m.pb.SetQueue(m.view.Queue)
		return m, nil

	case snapshotMsg:
		prev := m.snap
		m.snap = msg.snap
		cmds := []tea.Cmd{m.waitEvent()}
		if m.snap.Kind == playback.KindLocal && m.snap.TrackID != prev.TrackID {
			cmds = append(cmds, m.accentCmd(m.snap.TrackID))
		} else if m.snap.Kind != playback.KindLocal {
			m.accent = artwork.DefaultBackground
		}
		return m, tea.Batch(cmds...)

	case errorMsg:
		m.status = msg.text
		return m, nil

	case eventErrorMsg:
		m.status = msg.text
		return m, m.waitEvent()

	case commandFailed:
		m.logger.Debug("command failed", zap.String("op", string(msg.op)), zap.Error(msg.err))
		m.status = failureText(msg.op, msg.err)
		m.snap = m.pb.Snapshot()
		return m, nil

	case colorMsg:
		m.accent = msg.color
		return m, nil

	case playbackDone:
		return m, nil

	case tickMsg:
		m.snap = m.pb.Snapshot()
		return m, tickCmd()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.pb.Unsubscribe(m.sub)
		return m, tea.Quit
	case "1", "2", "3", "4":
		return m.switchTab(tab(msg.String()[0] - '1'))
	case "tab":
		return m.switchTab((m.tab + 1) % tab(len(tabNames)))
	case "up", "k":
		m.cursor--
		m.clampCursor()
	case "down", "j":
		m.cursor++
		m.clampCursor()
	case "home", "g":
		m.cursor = 0
		m.clampCursor()
	case "end", "G":
		m.cursor = m.rows() - 1
		m.clampCursor()
	case "enter":
		return m.activate()
	case "backspace", "esc":
		if m.drilled {
			m.drilled = false
			return m, m.load(m.tab.mode(), nil)
		}
	case " ":
		m.pb.TogglePlayPause()
		m.snap = m.pb.Snapshot()
	case "n":
		return m, m.run(errmsg.OpPlaybackNext, m.pb.Next)
	case "p":
		return m, m.run(errmsg.OpPlaybackPrev, m.pb.Previous)
	case "right", "l":
		m.seekBy(seekStep)
	case "left", "h":
		m.seekBy(-seekStep)
	}
	return m, nil
}

func (m tuiModel) switchTab(t tab) (tea.Model, tea.Cmd) {
	m.tab = t
	m.drilled = false
	m.cursor, m.offset = 0, 0
	if t == tabRadio {
		return m, nil
	}
	return m, m.load(t.mode(), nil)
}

func (m tuiModel) activate() (tea.Model, tea.Cmd) {
	if m.rows() == 0 {
		return m, nil
	}
	if m.tab == tabRadio {
		id := m.stations[m.cursor].ID
		return m, m.run(errmsg.OpRadioConnect, func(ctx context.Context) error {
			return m.pb.SelectStation(ctx, id)
		})
	}
	if m.view.ListsSongs() {
		id := m.view.Songs[m.cursor].ID
		return m, m.run(errmsg.OpPlaybackStart, func(ctx context.Context) error {
			return m.pb.SelectTrack(ctx, id)
		})
	}

	g := m.view.Groups[m.cursor]
	sub := library.ArtistFilter(g.Name)
	if m.view.Mode == library.ModeAlbums {
		sub = library.AlbumFilter(g.Name)
	}
	m.drilled = true
	return m, m.load(library.ModeSongs, sub)
}

// run performs a playback command off the UI goroutine.
func (m tuiModel) run(op errmsg.Op, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		if err := fn(ctx); err != nil {
			return commandFailed{op: op, err: err}
		}
		return nil
	}
}

// failureText prefers the message a playback failure carries.
func failureText(op errmsg.Op, err error) string {
	var pf *playback.Failure
	if errors.As(err, &pf) {
		return pf.Message
	}
	if errors.Is(err, radio.ErrOffline) {
		return errmsg.RadioOffline
	}
	return errmsg.Format(op, err)
}

func (m *tuiModel) seekBy(d time.Duration) {
	if !m.snap.CanSeek || m.snap.Duration <= 0 {
		return
	}
	f := float64(m.snap.Position+d) / float64(m.snap.Duration)
	if err := m.pb.Seek(f); err != nil {
		m.status = errmsg.Format(errmsg.OpPlaybackSeek, err)
	}
}

func (m tuiModel) rows() int {
	switch {
	case m.tab == tabRadio:
		return len(m.stations)
	case m.view == nil:
		return 0
	case m.view.ListsSongs():
		return len(m.view.Songs)
	default:
		return len(m.view.Groups)
	}
}

func (m *tuiModel) clampCursor() {
	n := m.rows()
	m.cursor = max(0, min(m.cursor, n-1))
	visible := m.listHeight()
	if visible <= 0 {
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

type storeLookup struct{ a *app }

func (s storeLookup) pictureOf(ctx context.Context, id int64) []byte {
	t, err := s.a.store.Get(ctx, id)
	if err != nil || !t.HasPicture() {
		return nil
	}
	return t.Picture.Data
}
