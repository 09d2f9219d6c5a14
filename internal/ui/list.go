package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/cinesync/internal/models"
	"github.com/desertthunder/cinesync/internal/settings"
)

var (
	_ list.Item = categoryItem{}
	_ list.Item = settingItem{}
)

// categoryItem wraps [models.CategoryInfo] to implement [list.Item].
type categoryItem struct {
	info models.CategoryInfo
}

func (i categoryItem) FilterValue() string { return i.info.Name }
func (i categoryItem) Title() string {
	if i.info.ModifiedCount > 0 {
		return fmt.Sprintf("%s (%d modified)", i.info.Name, i.info.ModifiedCount)
	}
	return i.info.Name
}
func (i categoryItem) Description() string {
	desc := fmt.Sprintf("%d settings", i.info.ItemCount)
	if i.info.RequiredCount > 0 {
		desc = fmt.Sprintf("%s, %d required", desc, i.info.RequiredCount)
	}
	if i.info.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.info.Description)
	}
	return desc
}

// settingItem wraps [models.ConfigItem] with its effective value to implement [list.Item].
type settingItem struct {
	item     models.ConfigItem
	value    string
	modified bool
}

func (i settingItem) FilterValue() string { return i.item.Key }
func (i settingItem) Title() string {
	title := settings.FieldLabel(i.item.Key)
	if i.modified {
		title = "* " + title
	}
	if i.item.Required {
		title += " (required)"
	}

	state := settings.StateOf(i.item)
	switch {
	case state.Locked:
		title += " [locked]"
	case state.Disabled:
		title += " [disabled]"
	case state.Beta:
		title += " [beta]"
	}
	return title
}
func (i settingItem) Description() string {
	value := settings.MaskValue(i.item, i.value)
	if value == "" {
		value = "(empty)"
	}
	return fmt.Sprintf("%s = %s", i.item.Key, value)
}
