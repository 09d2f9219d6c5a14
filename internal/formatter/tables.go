package formatter

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/cinesync/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#c084fc")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
)

const timeLayout = "2006-01-02 15:04"

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// BannerTable renders stored banners newest first.
func BannerTable(banners []*models.PersistedBanner) string {
	t := newTable("#", "Kind", "ID", "Title", "Type", "Updated", "URL")
	for _, b := range banners {
		t.Row(
			strconv.Itoa(b.Sequence),
			b.Kind.String(),
			b.MediaID,
			b.Banner.Title,
			b.Banner.Type,
			b.Updated.Local().Format(timeLayout),
			b.Banner.URL,
		)
	}
	return t.String()
}

// SaveTable renders the config save log.
func SaveTable(saves []*models.ConfigSave) string {
	t := newTable("Saved", "Changes", "Keys")
	for _, s := range saves {
		t.Row(s.Created.Local().Format(timeLayout), strconv.Itoa(s.ChangeCount), strings.Join(s.Keys, ", "))
	}
	return t.String()
}

// CategoryTable renders category summaries with item, required and modified counts.
func CategoryTable(infos []models.CategoryInfo) string {
	t := newTable("Category", "Items", "Required", "Modified")
	for _, info := range infos {
		t.Row(info.Name, strconv.Itoa(info.ItemCount), strconv.Itoa(info.RequiredCount), strconv.Itoa(info.ModifiedCount))
	}
	return t.String()
}

// StatusLines formats a backend config status report.
func StatusLines(status *models.ConfigStatus, checked time.Time) []string {
	yesNo := func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	}
	return []string{
		"Placeholder:          " + yesNo(status.IsPlaceholder),
		"Needs configuration:  " + yesNo(status.NeedsConfiguration),
		"Destination dir:      " + status.DestinationDir,
		"Effective root dir:   " + status.EffectiveRootDir,
		"Checked:              " + checked.Local().Format(timeLayout),
	}
}
