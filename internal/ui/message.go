package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/cinesync/internal/events"
	"github.com/desertthunder/cinesync/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgConfigLoaded MsgKind = iota
	MsgStatusLoaded
	MsgConfigSaved
	MsgEvent
)

type saveResult struct {
	changes int
	err     error
}

type statusResult struct {
	status *models.ConfigStatus
	err    error
}

// configLoadedMsg is the constructor for [MsgConfigLoaded]
func configLoadedMsg(err error) Msg {
	return Msg{kind: MsgConfigLoaded, data: err}
}

// statusLoadedMsg is the constructor for [MsgStatusLoaded]
func statusLoadedMsg(status *models.ConfigStatus, err error) Msg {
	return Msg{kind: MsgStatusLoaded, data: statusResult{status, err}}
}

// configSavedMsg is the constructor for [MsgConfigSaved]
func configSavedMsg(changes int, err error) Msg {
	return Msg{kind: MsgConfigSaved, data: saveResult{changes, err}}
}

// eventMsg is the constructor for [MsgEvent]; a nil event means the bus closed.
func eventMsg(ev events.Event) Msg {
	return Msg{kind: MsgEvent, data: ev}
}
