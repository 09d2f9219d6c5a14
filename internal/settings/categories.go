package settings

import (
	"cmp"
	"slices"

	"github.com/desertthunder/cinesync/internal/models"
)

// CategoryOrder is the display order of configuration categories.
var CategoryOrder = []string{
	"Directory Paths",
	"CineSync Configuration",
	"Media Folders Configuration",
	"Resolution Folder Mappings Configuration",
	"TMDb/IMDB Configuration",
	"Renaming Structure Configuration",
	"File Handling Configuration",
	"Plex Integration Configuration",
	"Database Configuration",
	"Real-Time Monitoring Configuration",
	"Rclone Mount Configuration",
	"Logging Configuration",
	"System Configuration",
}

// CategoryMeta is the static presentation data for a category.
type CategoryMeta struct {
	Name        string
	Description string
	Icon        string
	Color       string
}

// DefaultCategoryMeta describes categories missing from the lookup table. Name is filled with the category itself.
var DefaultCategoryMeta = CategoryMeta{Description: "Configuration settings", Icon: "tune", Color: "#6b7280"}

var categoryMeta = map[string]CategoryMeta{
	"Directory Paths":                          {"General", "Source & destination paths", "home", "#3b82f6"},
	"Media Folders Configuration":              {"Media Folders", "Custom folder organization", "create_new_folder", "#8b5cf6"},
	"Resolution Folder Mappings Configuration": {"Resolution Mappings", "Quality-based folder structure", "account_tree", "#06b6d4"},
	"TMDb/IMDB Configuration":                  {"TMDB Configuration", "Movie & TV metadata, collections", "video_library", "#f59e0b"},
	"Renaming Structure Configuration":         {"Renaming Structure", "File renaming & metadata parsing", "drive_file_rename", "#10b981"},
	"Movie Collection Settings":                {"Movie Collections", "Movie collection organization", "video_library", "#f59e0b"},
	"MediaHub Service Configuration":           {"MediaHub Service", "Service startup & control settings", "settings_applications", "#10b981"},
	"Plex Integration Configuration":           {"Plex Integration", "Plex server & library settings", "live_tv", "#e97e00"},
	"Database Configuration":                   {"Database", "Database settings & performance", "storage", "#10b981"},
	"Real-Time Monitoring Configuration":       {"Monitoring", "Real-time file monitoring", "network_check", "#06b6d4"},
	"Rclone Mount Configuration":               {"Rclone Mount", "Mount verification & monitoring", "storage", "#8b5cf6"},
	"CineSync Configuration":                   {"CineSync", "Server settings & authentication", "api", "#3b82f6"},
	"System Configuration":                     {"Advanced", "Advanced system settings", "settings_applications", "#6b7280"},
	"File Handling Configuration":              {"File Handling", "File processing & filtering settings", "filter_list", "#ef4444"},
	"Logging Configuration":                    {"Logging", "Log level & output settings", "build", "#f59e0b"},
	"Services":                                 {"Services", "Service management & control", "build", "#8b5cf6"},
}

// keyPriority pins keys to the top of their category, in this order.
var keyPriority = map[string][]string{
	"Directory Paths":                          {"SOURCE_DIR", "DESTINATION_DIR"},
	"CineSync Configuration":                   {"CINESYNC_IP", "CINESYNC_API_PORT", "CINESYNC_UI_PORT", "CINESYNC_AUTH_ENABLED", "CINESYNC_USERNAME", "CINESYNC_PASSWORD"},
	"Media Folders Configuration":              {"CINESYNC_LAYOUT", "4K_SEPARATION", "ANIME_SEPARATION", "KIDS_SEPARATION"},
	"Resolution Folder Mappings Configuration": {"MOVIE_RESOLUTION_STRUCTURE", "SHOW_RESOLUTION_STRUCTURE"},
}

// MetaFor returns the lookup table entry for category, or [DefaultCategoryMeta] named after it.
func MetaFor(category string) CategoryMeta {
	if meta, ok := categoryMeta[category]; ok {
		return meta
	}
	meta := DefaultCategoryMeta
	meta.Name = category
	return meta
}

// DescribeCategory computes the aggregate view of items under pending.
func DescribeCategory(category string, items []models.ConfigItem, pending models.PendingChanges) models.CategoryInfo {
	meta := MetaFor(category)
	info := models.CategoryInfo{
		Category:    category,
		Name:        meta.Name,
		Description: meta.Description,
		Icon:        meta.Icon,
		Color:       meta.Color,
		ItemCount:   len(items),
	}

	for _, item := range items {
		if item.Required {
			info.RequiredCount++
		}
		if _, ok := pending[item.Key]; ok {
			info.ModifiedCount++
		}
	}
	return info
}

// OrderCategories sorts names by [CategoryOrder], appending unlisted categories alphabetically.
func OrderCategories(names []string) []string {
	rank := func(name string) int {
		if i := slices.Index(CategoryOrder, name); i >= 0 {
			return i
		}
		return len(CategoryOrder)
	}

	out := slices.Clone(names)
	slices.SortStableFunc(out, func(a, b string) int {
		if c := cmp.Compare(rank(a), rank(b)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return out
}

// SortItems orders items of one category: pinned keys first, then required before optional, then by key.
func SortItems(category string, items []models.ConfigItem) {
	pinned := keyPriority[category]

	slices.SortStableFunc(items, func(a, b models.ConfigItem) int {
		ai, bi := slices.Index(pinned, a.Key), slices.Index(pinned, b.Key)
		switch {
		case ai >= 0 && bi >= 0:
			return cmp.Compare(ai, bi)
		case ai >= 0:
			return -1
		case bi >= 0:
			return 1
		}

		if a.Required != b.Required {
			if a.Required {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.Key, b.Key)
	})
}
