package ui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/cinesync/internal/events"
	"github.com/desertthunder/cinesync/internal/models"
	"github.com/desertthunder/cinesync/internal/settings"
	"github.com/desertthunder/cinesync/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CategoryView ViewState = iota
	ItemView
	EditView
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusErr
)

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	session *settings.Session
	bus     *events.Bus
	events  <-chan events.Event

	view   ViewState
	width  int
	height int

	groups     []settings.Group
	category   string
	categories list.Model
	items      list.Model

	editing  models.ConfigItem
	options  []string
	input    textinput.Model
	revealed bool

	banner     *models.BannerResult
	cfgStatus  *models.ConfigStatus
	status     string
	statusKind statusKind
	loaded     bool
	saving     bool
	err        error

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model editing session. bus may be nil.
func NewModel(ctx context.Context, session *settings.Session, bus *events.Bus) *Model {
	categories := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	categories.Title = "CineSync Settings"
	categories.DisableQuitKeybindings()

	items := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	items.DisableQuitKeybindings()

	input := textinput.New()
	input.EchoCharacter = '•'

	return &Model{
		ctx:        ctx,
		session:    session,
		bus:        bus,
		events:     bus.Subscribe(events.TypeConfigChanged, events.TypeBannerChanged),
		view:       CategoryView,
		categories: categories,
		items:      items,
		input:      input,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Close drops the model's bus subscription. Call it once the program has exited.
func (m *Model) Close() {
	if m.events == nil {
		return
	}
	m.bus.Unsubscribe(m.events)
	m.events = nil
}

// Init loads the configuration and starts listening for bus events.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.fetchStatus(), m.waitForEvent())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.categories.SetSize(msg.Width-4, msg.Height-8)
		m.items.SetSize(msg.Width-4, msg.Height-8)
		m.input.Width = max(msg.Width-10, 20)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case CategoryView:
			return m.handleCategoryKeys(msg)
		case ItemView:
			return m.handleItemKeys(msg)
		case EditView:
			return m.handleEditKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgConfigLoaded:
		err, _ := msg.data.(error)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.loaded = true
		m.rebuild()
		m.setStatus(statusInfo, fmt.Sprintf("Loaded %d settings", len(m.session.Items())))

	case MsgStatusLoaded:
		res := msg.data.(statusResult)
		if res.err == nil {
			m.cfgStatus = res.status
		}

	case MsgConfigSaved:
		m.saving = false
		res := msg.data.(saveResult)
		m.rebuild()
		switch {
		case res.err == nil:
			m.setStatus(statusOK, fmt.Sprintf("Saved %d change(s)", res.changes))
			return m, m.fetchStatus()
		case errors.Is(res.err, shared.ErrNothingToSave):
			m.setStatus(statusWarn, "No changes to save")
		case errors.Is(res.err, shared.ErrReloadFailed):
			m.setStatus(statusWarn, fmt.Sprintf("Saved %d change(s), but %v", res.changes, res.err))
		default:
			m.setStatus(statusErr, fmt.Sprintf("Save failed: %v", res.err))
		}

	case MsgEvent:
		ev, _ := msg.data.(events.Event)
		if ev == nil {
			m.events = nil
			return m, nil
		}
		switch ev := ev.(type) {
		case events.ConfigChanged:
			m.rebuild()
		case events.BannerChanged:
			banner := ev.Banner
			m.banner = &banner
		}
		return m, m.waitForEvent()
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress r to retry, q to quit", m.err))
	}
	if !m.loaded {
		return styles.help.Render("Loading configuration...")
	}

	var body string
	switch m.view {
	case CategoryView:
		body = m.categories.View()
	case ItemView:
		body = m.items.View()
	case EditView:
		body = m.renderEdit()
	}

	return strings.Join(slices.DeleteFunc([]string{m.renderHeader(), body, m.renderStatus(), m.renderHelp()}, func(s string) bool {
		return s == ""
	}), "\n\n")
}

func (m *Model) handleCategoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.categories.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.categories, cmd = m.categories.Update(msg)
		return m, cmd
	}

	if cmd, handled := m.handleCommonKeys(msg); handled {
		return m, cmd
	}

	if key.Matches(msg, m.keys.enter) {
		if selected, ok := m.categories.SelectedItem().(categoryItem); ok {
			m.category = selected.info.Category
			m.view = ItemView
			m.rebuild()
			m.items.Select(0)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.categories, cmd = m.categories.Update(msg)
	return m, cmd
}

func (m *Model) handleItemKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.items.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.items, cmd = m.items.Update(msg)
		return m, cmd
	}

	if cmd, handled := m.handleCommonKeys(msg); handled {
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.back):
		m.view = CategoryView
		m.category = ""
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if selected, ok := m.items.SelectedItem().(settingItem); ok {
			return m, m.startEdit(selected.item)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.items, cmd = m.items.Update(msg)
	return m, cmd
}

// handleCommonKeys covers the bindings shared by the list views.
func (m *Model) handleCommonKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return tea.Quit, true
	case key.Matches(msg, m.keys.save):
		return m.save(), true
	case key.Matches(msg, m.keys.discard):
		if !m.session.HasChanges() {
			m.setStatus(statusWarn, "No changes to discard")
			return nil, true
		}
		n := m.session.ChangeCount()
		m.session.Discard()
		m.rebuild()
		m.setStatus(statusInfo, fmt.Sprintf("Discarded %d change(s)", n))
		return nil, true
	case key.Matches(msg, m.keys.reload):
		m.setStatus(statusInfo, "Reloading...")
		return tea.Batch(m.load(), m.fetchStatus()), true
	}
	return nil, false
}

func (m *Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ItemView
		m.input.Blur()
		m.setStatus(statusInfo, "Edit cancelled")
		return m, nil
	case key.Matches(msg, m.keys.enter):
		m.commitEdit()
		return m, nil
	case key.Matches(msg, m.keys.reveal) && settings.FieldKind(m.editing) == settings.KindPassword:
		m.revealed = !m.revealed
		m.applyEcho()
		return m, nil
	case m.options != nil && key.Matches(msg, m.keys.next):
		m.cycleOption(1)
		return m, nil
	case m.options != nil && key.Matches(msg, m.keys.prev):
		m.cycleOption(-1)
		return m, nil
	case m.options != nil:
		// enumerated fields only change by cycling
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) startEdit(item models.ConfigItem) tea.Cmd {
	if err := settings.StateOf(item).Err(item.Key); err != nil {
		m.setStatus(statusErr, err.Error())
		return nil
	}

	m.editing = item
	m.options = settings.FieldOptions(item)
	m.revealed = false
	m.input.SetValue(m.session.Value(item.Key))
	m.input.CursorEnd()
	m.applyEcho()
	m.view = EditView
	m.setStatus(statusInfo, "")
	return m.input.Focus()
}

func (m *Model) applyEcho() {
	if settings.FieldKind(m.editing) == settings.KindPassword && !m.revealed {
		m.input.EchoMode = textinput.EchoPassword
		return
	}
	m.input.EchoMode = textinput.EchoNormal
}

func (m *Model) cycleOption(step int) {
	i := slices.Index(m.options, m.input.Value())
	switch {
	case i < 0 && step > 0:
		i = 0
	case i < 0:
		i = len(m.options) - 1
	default:
		i = (i + step + len(m.options)) % len(m.options)
	}
	m.input.SetValue(m.options[i])
}

func (m *Model) commitEdit() {
	name := m.editing.Key
	m.session.SetFieldValue(name, m.input.Value())
	m.input.Blur()
	m.view = ItemView
	m.rebuild()

	if m.session.IsModified(name) {
		m.setStatus(statusInfo, fmt.Sprintf("%s changed, %d unsaved change(s)", name, m.session.ChangeCount()))
	} else {
		m.setStatus(statusInfo, fmt.Sprintf("%s unchanged", name))
	}
}

// rebuild refreshes both lists from the session, keeping the cursor positions.
func (m *Model) rebuild() {
	m.groups = m.session.Groups()

	catIdx := m.categories.Index()
	cats := make([]list.Item, len(m.groups))
	for i, g := range m.groups {
		cats[i] = categoryItem{info: g.Info}
	}
	m.categories.SetItems(cats)
	if catIdx < len(cats) {
		m.categories.Select(catIdx)
	}

	if m.category == "" {
		return
	}

	i := slices.IndexFunc(m.groups, func(g settings.Group) bool { return g.Info.Category == m.category })
	if i < 0 {
		m.view = CategoryView
		m.category = ""
		return
	}

	group := m.groups[i]
	itemIdx := m.items.Index()
	items := make([]list.Item, len(group.Items))
	for j, item := range group.Items {
		items[j] = settingItem{
			item:     item,
			value:    m.session.Value(item.Key),
			modified: m.session.IsModified(item.Key),
		}
	}
	m.items.Title = group.Info.Name
	m.items.SetItems(items)
	if itemIdx < len(items) {
		m.items.Select(itemIdx)
	}
}

func (m *Model) setStatus(kind statusKind, text string) {
	m.statusKind = kind
	m.status = text
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case CategoryView:
		m.categories, cmd = m.categories.Update(msg)
	case ItemView:
		m.items, cmd = m.items.Update(msg)
	case EditView:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m *Model) load() tea.Cmd {
	return func() tea.Msg {
		return configLoadedMsg(m.session.Load(m.ctx))
	}
}

func (m *Model) fetchStatus() tea.Cmd {
	return func() tea.Msg {
		status, err := m.session.RefreshStatus(m.ctx)
		return statusLoadedMsg(status, err)
	}
}

func (m *Model) save() tea.Cmd {
	if m.saving {
		return nil
	}
	if !m.session.HasChanges() {
		m.setStatus(statusWarn, "No changes to save")
		return nil
	}

	m.saving = true
	m.setStatus(statusInfo, "Saving...")
	n := m.session.ChangeCount()
	return func() tea.Msg {
		return configSavedMsg(n, m.session.Save(m.ctx))
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	ch := m.events
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventMsg(nil)
		}
		return eventMsg(ev)
	}
}

func (m *Model) renderHeader() string {
	var parts []string
	if m.banner != nil {
		parts = append(parts, styles.help.Render(fmt.Sprintf("Now showing: %s (%s)", m.banner.Title, m.banner.Type)))
	}
	if m.cfgStatus != nil && m.cfgStatus.NeedsConfiguration {
		parts = append(parts, styles.warn.Render("Configuration required: set a destination directory before processing media"))
	}
	if n := m.session.ChangeCount(); n > 0 {
		parts = append(parts, styles.modified.Render(fmt.Sprintf("%d unsaved change(s)", n)))
	}
	return strings.Join(parts, "\n")
}

func (m *Model) renderEdit() string {
	item := m.editing
	title := styles.title.Render(settings.FieldLabel(item.Key))

	lines := []string{title, styles.help.Render(item.Key)}
	if item.Description != "" {
		lines = append(lines, item.Description)
	}
	if item.Required {
		lines = append(lines, styles.warn.Render("Required"))
	}
	if item.Beta {
		lines = append(lines, styles.warn.Render("Beta"))
	}

	lines = append(lines, "", m.input.View())

	if m.options != nil {
		opts := make([]string, len(m.options))
		for i, o := range m.options {
			if o == m.input.Value() {
				opts[i] = styles.On(o, lipgloss.Color("#7D56F4"))
			} else {
				opts[i] = " " + o + " "
			}
		}
		lines = append(lines, "", strings.Join(opts, " "))
	}

	return strings.Join(lines, "\n")
}

func (m *Model) renderStatus() string {
	if m.status == "" {
		return ""
	}
	switch m.statusKind {
	case statusOK:
		return styles.ok.Render("✓ " + m.status)
	case statusWarn:
		return styles.warn.Render(m.status)
	case statusErr:
		return styles.err.Render("✗ " + m.status)
	}
	return styles.help.Render(m.status)
}

func (m *Model) renderHelp() string {
	var keys []key.Binding
	switch m.view {
	case CategoryView:
		keys = []key.Binding{m.keys.enter, m.keys.save, m.keys.discard, m.keys.reload, m.keys.quit}
	case ItemView:
		edit := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit"))
		keys = []key.Binding{edit, m.keys.back, m.keys.save, m.keys.discard, m.keys.quit}
	case EditView:
		apply := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply"))
		keys = []key.Binding{apply, m.keys.back}
		if m.options != nil {
			keys = append(keys, m.keys.next, m.keys.prev)
		}
		if settings.FieldKind(m.editing) == settings.KindPassword {
			keys = append(keys, m.keys.reveal)
		}
	}
	return m.help.ShortHelpView(keys)
}
