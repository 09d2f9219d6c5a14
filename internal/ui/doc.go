// Package ui implements the interactive settings editor using bubbletea's Elm architecture.
//
// The TUI walks three views over a [settings.Session]:
//  1. [CategoryView] : categories in display order with item, required and modified counts
//  2. [ItemView] : the visible settings of one category, modified values marked
//  3. [EditView] : a single field; sensitive keys are echoed as bullets and enumerated fields cycle through their options
//
// Edits stay local until the user presses s, which submits the whole pending batch; d discards it.
// The (view) [Model] also listens on the event bus, refreshing after config.changed and showing the latest banner from banner.changed.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
