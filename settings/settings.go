// Package settings stores per-user editor preferences: UI theme and
// language, the preferred export format, the web fonts the overlay needs,
// and when each notice was last shown. Handlers receive a Store; nothing
// here is global.
package settings

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"
)

var (
	ErrInvalidSetting = errors.New("invalid setting")
	ErrInvalidValue   = errors.New("invalid setting value")
)

// UserSettings represents user settings
type UserSettings struct {
	UserID        string               `json:"userId" bson:"_id"`
	Theme         string               `json:"theme" bson:"theme"`
	Language      string               `json:"language" bson:"language"`
	TimeZone      string               `json:"time_zone" bson:"time_zone"`
	DefaultExport string               `json:"default_export" bson:"default_export"`
	Fonts         []string             `json:"fonts" bson:"fonts"`
	NoticesSeen   map[string]time.Time `json:"notices_seen" bson:"notices_seen"`
	UpdatedAt     time.Time            `json:"updated_at" bson:"updated_at"`
}

// Default settings if user settings don't exist
func Defaults(userID string) UserSettings {
	return UserSettings{
		UserID:        userID,
		Theme:         "light",
		Language:      "fr",
		TimeZone:      "Europe/Paris",
		DefaultExport: "pdf",
		Fonts:         []string{},
		NoticesSeen:   map[string]time.Time{},
	}
}

// Store persists settings. Update applies one named setting.
type Store interface {
	Get(ctx context.Context, userID string) (UserSettings, error)
	Update(ctx context.Context, userID, setting string, value any) (UserSettings, error)
	AddFont(ctx context.Context, userID, font string) error
	MarkSeen(ctx context.Context, userID, notice string, at time.Time) error
}

// Descriptions of the settings a client may change, in display order.
var descriptions = []struct{ Type, Description string }{
	{"theme", "Choose theme mode"},
	{"language", "Select language"},
	{"time_zone", "Select time zone"},
	{"default_export", "Default export format"},
}

// validate checks value for setting and returns its normalised form.
func validate(setting string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidValue, setting)
	}
	s = strings.TrimSpace(s)
	switch setting {
	case "theme":
		if s != "light" && s != "dark" {
			return "", fmt.Errorf("%w: theme %q", ErrInvalidValue, s)
		}
	case "language":
		if len(s) < 2 || len(s) > 5 {
			return "", fmt.Errorf("%w: language %q", ErrInvalidValue, s)
		}
	case "time_zone":
		if _, err := time.LoadLocation(s); err != nil {
			return "", fmt.Errorf("%w: time zone %q", ErrInvalidValue, s)
		}
	case "default_export":
		if s != "html" && s != "pdf" {
			return "", fmt.Errorf("%w: export format %q", ErrInvalidValue, s)
		}
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidSetting, setting)
	}
	return s, nil
}

func apply(us *UserSettings, setting, value string) {
	switch setting {
	case "theme":
		us.Theme = value
	case "language":
		us.Language = value
	case "time_zone":
		us.TimeZone = value
	case "default_export":
		us.DefaultExport = value
	}
}

// fontName keeps the first family of a CSS font list, unquoted.
func fontName(font string) string {
	first, _, _ := strings.Cut(font, ",")
	return strings.Trim(strings.TrimSpace(first), `"'`)
}

func addFont(fonts []string, font string) ([]string, bool) {
	name := fontName(font)
	if name == "" || slices.Contains(fonts, name) {
		return fonts, false
	}
	return append(fonts, name), true
}

var noticeRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

func checkNotice(notice string) error {
	if !noticeRe.MatchString(notice) {
		return fmt.Errorf("%w: notice %q", ErrInvalidValue, notice)
	}
	return nil
}
