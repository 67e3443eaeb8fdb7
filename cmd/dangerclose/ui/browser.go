package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"dangerclose/internal/logging"
	"dangerclose/internal/munitions"
)

// DataChangedMsg reports that a catalog document changed on disk.
type DataChangedMsg struct {
	Path string
}

const searchLimit = 20

// BrowserModel is the interactive catalog browser. It drives one navigator
// from the bubbletea event loop; nothing else may touch the navigator while
// the program runs.
type BrowserModel struct {
	nav    *munitions.Navigator
	target string

	styles Styles
	keys   keyMap
	help   help.Model

	rows      []*munitions.Node
	frozenIDs []int // rows shown while removing favorites
	cursor    int
	offset    int

	searching bool
	search    textinput.Model
	results   []munitions.Match
	resultIdx int

	status    string
	statusErr bool

	width  int
	height int
}

// NewBrowser creates a browser over nav. target is shown in the header.
func NewBrowser(nav *munitions.Navigator, target string) BrowserModel {
	ti := textinput.New()
	ti.Placeholder = "weapon name"
	ti.Prompt = "/ "
	ti.CharLimit = 64

	m := BrowserModel{
		nav:    nav,
		target: target,
		styles: DefaultStyles(),
		keys:   defaultKeyMap(),
		help:   help.New(),
		search: ti,
	}
	m.refresh()
	return m
}

// Init initializes the model.
func (m BrowserModel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.clampCursor()
		return m, nil

	case DataChangedMsg:
		m.nav.Reload()
		m.refresh()
		m.setStatus(fmt.Sprintf("reloaded %s", filepath.Base(msg.Path)), false)
		logging.UI("reloaded after change to %s", msg.Path)
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m BrowserModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		m.clampCursor()

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
		m.clampCursor()

	case key.Matches(msg, m.keys.Select):
		m.selectRow()

	case key.Matches(msg, m.keys.Back):
		m.exitMode()
		m.nav.Ascend()
		m.moved()

	case key.Matches(msg, m.keys.Root):
		m.exitMode()
		m.nav.AscendToRoot()
		m.moved()

	case key.Matches(msg, m.keys.Favorites):
		m.exitMode()
		m.nav.JumpToFavorites()
		m.moved()

	case key.Matches(msg, m.keys.Customs):
		m.exitMode()
		m.nav.JumpToCustoms()
		m.moved()

	case key.Matches(msg, m.keys.AddFavs):
		m.toggleAddFavorites()

	case key.Matches(msg, m.keys.RemoveMode):
		m.toggleRemoveMode()

	case key.Matches(msg, m.keys.Confirm):
		m.confirmCustomRemoval()

	case key.Matches(msg, m.keys.ClearAll):
		n := m.nav.DeactivateAll()
		m.refresh()
		m.setStatus(fmt.Sprintf("deactivated %d weapons", n), false)

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.SetValue("")
		m.results = nil
		m.resultIdx = 0
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m BrowserModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		m.results = nil
		return m, nil
	case tea.KeyUp:
		if m.resultIdx > 0 {
			m.resultIdx--
		}
		return m, nil
	case tea.KeyDown:
		if m.resultIdx < len(m.results)-1 {
			m.resultIdx++
		}
		return m, nil
	case tea.KeyEnter:
		if m.resultIdx < len(m.results) {
			m.toggleActive(m.results[m.resultIdx].Weapon)
			m.refresh()
		}
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.results = m.nav.Search(m.search.Value(), searchLimit)
	if m.resultIdx >= len(m.results) {
		m.resultIdx = 0
	}
	return m, cmd
}

// =============================================================================
// ROW ACTIONS
// =============================================================================

func (m *BrowserModel) selectRow() {
	if len(m.rows) == 0 {
		return
	}
	row := m.rows[m.cursor]
	if !row.IsWeapon() {
		if m.frozenIDs == nil && m.nav.Descend(m.cursor) {
			m.moved()
		}
		return
	}

	switch m.nav.Mode() {
	case munitions.ModeAddFavorites:
		switch {
		case m.nav.IsFavorite(row.ID):
			m.nav.RemoveFavorite(row.ID)
			m.setStatus(fmt.Sprintf("%s removed from favorites", munitions.DisplayName(row.Name)), false)
		case m.nav.AddFavorite(row.ID):
			m.setStatus(fmt.Sprintf("%s added to favorites", munitions.DisplayName(row.Name)), false)
		default:
			m.setStatus("flight weapons cannot be favorites", true)
		}

	case munitions.ModeRemoveFavorites:
		m.nav.MarkFavoriteForRemoval(row.ID, !m.nav.IsMarkedForRemoval(row.ID))

	case munitions.ModeRemoveCustoms:
		m.nav.StageCustomRemoval(row.ID, !m.isStaged(row.ID))

	default:
		m.toggleActive(row)
	}
	m.refresh()
}

func (m *BrowserModel) toggleActive(w *munitions.Node) {
	if w.Active {
		m.nav.Deactivate(w.ID)
		m.setStatus(fmt.Sprintf("%s off", munitions.DisplayName(w.Name)), false)
		return
	}
	m.nav.Activate(w.ID)
	m.setStatus(fmt.Sprintf("%s on (%dm / %dm)", munitions.DisplayName(w.Name), w.InnerRange(), w.OuterRange()), false)
}

func (m *BrowserModel) isStaged(id int) bool {
	for _, s := range m.nav.StagedCustoms() {
		if s == id {
			return true
		}
	}
	return false
}

// =============================================================================
// MODES
// =============================================================================

func (m *BrowserModel) toggleAddFavorites() {
	if m.nav.Current().Kind == munitions.KindFavorites {
		m.setStatus("already in Favorites", true)
		return
	}
	if m.nav.Mode() == munitions.ModeAddFavorites {
		m.nav.SetMode(munitions.ModeDefault)
		m.setStatus("", false)
		return
	}
	m.exitMode()
	m.nav.SetMode(munitions.ModeAddFavorites)
	m.setStatus("select weapons to add to favorites", false)
}

func (m *BrowserModel) toggleRemoveMode() {
	switch m.nav.Current().Kind {
	case munitions.KindFavorites:
		if m.nav.Mode() == munitions.ModeRemoveFavorites {
			m.exitMode()
			return
		}
		m.exitMode()
		for _, w := range m.nav.Entries() {
			m.frozenIDs = append(m.frozenIDs, w.ID)
		}
		if m.frozenIDs == nil {
			m.frozenIDs = []int{}
		}
		m.nav.SetMode(munitions.ModeRemoveFavorites)
		m.setStatus("select favorites to remove, r when done", false)

	case munitions.KindCustoms:
		if m.nav.Mode() == munitions.ModeRemoveCustoms {
			m.exitMode()
			return
		}
		m.exitMode()
		m.nav.SetMode(munitions.ModeRemoveCustoms)
		m.setStatus("select customs to delete, x to confirm", false)

	default:
		m.setStatus("remove mode works in Favorites and Custom Threat Rings", true)
	}
	m.refresh()
}

func (m *BrowserModel) confirmCustomRemoval() {
	if m.nav.Mode() != munitions.ModeRemoveCustoms {
		return
	}
	removed := m.nav.RemoveCustoms()
	m.nav.SetMode(munitions.ModeDefault)
	m.refresh()
	m.setStatus(fmt.Sprintf("deleted %d custom threat rings", len(removed)), false)
}

// exitMode returns to the default mode and drops any frozen rows.
func (m *BrowserModel) exitMode() {
	if m.nav.Mode() == munitions.ModeDefault {
		return
	}
	m.nav.SetMode(munitions.ModeDefault)
	m.frozenIDs = nil
	m.setStatus("", false)
	m.refresh()
}

// =============================================================================
// ROWS
// =============================================================================

// refresh rebuilds the rows from the navigator, or from the frozen ids while
// removing favorites.
func (m *BrowserModel) refresh() {
	if m.frozenIDs != nil {
		m.rows = m.rows[:0]
		for _, id := range m.frozenIDs {
			if w := m.nav.Lookup(id); w != nil {
				m.rows = append(m.rows, w)
			}
		}
	} else {
		m.rows = m.nav.Entries()
	}
	m.clampCursor()
}

func (m *BrowserModel) moved() {
	m.cursor = 0
	m.offset = 0
	m.refresh()
}

func (m *BrowserModel) clampCursor() {
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	visible := m.visibleRows()
	if visible <= 0 {
		m.offset = 0
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

// visibleRows is how many rows fit, or 0 before the first resize.
func (m *BrowserModel) visibleRows() int {
	if m.height == 0 {
		return 0
	}
	n := m.height - 7
	if n < 3 {
		n = 3
	}
	return n
}

func (m *BrowserModel) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the browser.
func (m BrowserModel) View() string {
	var sb strings.Builder
	sb.WriteString(m.renderHeader())
	sb.WriteString("\n")

	title := m.styles.Title.Render(m.nav.Title())
	active := m.nav.ActiveCountUnder(m.nav.Current())
	if active > 0 {
		title += m.styles.Subtitle.Render(fmt.Sprintf("  %d active", active))
	}
	sb.WriteString(title + "\n")

	if m.searching {
		sb.WriteString(m.renderSearch())
	} else {
		sb.WriteString(m.renderRows())
	}

	if m.status != "" {
		style := m.styles.Info
		if m.statusErr {
			style = m.styles.Error
		}
		sb.WriteString("\n" + style.Render(m.status))
	}
	sb.WriteString("\n" + m.styles.Footer.Render(m.help.View(m.keys)))
	return sb.String()
}

func (m BrowserModel) renderHeader() string {
	parts := []string{m.styles.Header.Render("DANGER CLOSE")}
	if m.target != "" {
		parts = append(parts, m.styles.Muted.Render("target "+m.target))
	}
	if mode := m.nav.Mode(); mode != munitions.ModeDefault {
		parts = append(parts, m.styles.Mode.Render(mode.String()))
	}
	return strings.Join(parts, " ")
}

func (m BrowserModel) renderRows() string {
	if len(m.rows) == 0 {
		return m.styles.Muted.Render("  (empty)") + "\n"
	}

	start, end := 0, len(m.rows)
	if v := m.visibleRows(); v > 0 {
		start = m.offset
		if start+v < end {
			end = start + v
		}
	}

	var sb strings.Builder
	for i := start; i < end; i++ {
		line := m.renderRow(m.rows[i])
		if i == m.cursor {
			sb.WriteString(m.styles.Selected.Render(line))
		} else {
			sb.WriteString(m.styles.Row.Render(line))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m BrowserModel) renderRow(n *munitions.Node) string {
	if !n.IsWeapon() {
		line := m.styles.Category.Render(munitions.TitleOf(n) + " ›")
		if c := m.nav.ActiveCountUnder(n); c > 0 {
			line += m.styles.Active.Render(fmt.Sprintf("  %d active", c))
		}
		return line
	}

	title, sub := munitions.SplitDisplayName(n.Name)
	if m.nav.IsMarkedForRemoval(n.ID) || m.isStaged(n.ID) {
		title = m.styles.Marked.Render(title)
	}
	line := title
	if sub != "" {
		line += " " + m.styles.Subtitle.Render(sub)
	}

	badge := m.styles.RED.Render(munitions.StyleRED.String())
	if n.Style() == munitions.StyleMSD {
		badge = m.styles.MSD.Render(munitions.StyleMSD.String())
	}
	line = badge + " " + line + m.styles.Muted.Render(fmt.Sprintf("  %dm", n.OuterRange()))

	if n.Active {
		line += m.styles.Active.Render("  ● on")
	}
	if m.nav.IsFavorite(n.ID) {
		line += m.styles.Favorite.Render("  ★")
	}
	return line
}

func (m BrowserModel) renderSearch() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Prompt.Render(m.search.View()) + "\n")
	if m.search.Value() != "" && len(m.results) == 0 {
		sb.WriteString(m.styles.Muted.Render("  no matches") + "\n")
	}
	for i, r := range m.results {
		line := m.renderRow(r.Weapon) + m.styles.Muted.Render("  "+munitions.DisplayName(r.Category))
		if i == m.resultIdx {
			sb.WriteString(m.styles.Selected.Render(line))
		} else {
			sb.WriteString(m.styles.Row.Render(line))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
