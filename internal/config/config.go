package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/example/mathboard/internal/theme"
)

// DefaultAPIURL is where the recognition backend is expected when nothing
// else is configured.
const DefaultAPIURL = "http://localhost:8900"

// Canvas holds board settings. Zero sizes mean "fit the window".
type Canvas struct {
	Width       int
	Height      int
	TopOffset   int
	StrokeWidth float64
	Color       string
}

// Session holds submission behaviour.
type Session struct {
	DisplayDelay   time.Duration
	RequestTimeout time.Duration
	AllowEmpty     bool
}

// Notify selects which events raise desktop notifications.
type Notify struct {
	Result bool
	Error  bool
	Copy   bool
	Save   bool
}

// Config holds the application configuration.
type Config struct {
	APIURL   string
	Theme    string
	LogLevel string
	Canvas   Canvas
	Session  Session
	Notify   Notify
	Themes   map[string]*theme.Theme
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		APIURL: DefaultAPIURL,
		Theme:  "", // empty falls back to env, then the built-in theme
		Canvas: Canvas{
			TopOffset:   48,
			StrokeWidth: 3,
		},
		Session: Session{
			DisplayDelay:   time.Second,
			RequestTimeout: 30 * time.Second,
		},
		Notify: Notify{Error: true},
		Themes: make(map[string]*theme.Theme),
	}
}

// ApplyEnv overrides settings from MATHBOARD_* environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv("MATHBOARD_API_URL")); v != "" {
		c.APIURL = v
	}
	if v := strings.TrimSpace(getenv("MATHBOARD_THEME")); v != "" {
		c.Theme = v
	}
	if v := strings.TrimSpace(getenv("MATHBOARD_LOG_LEVEL")); v != "" {
		c.LogLevel = v
	}
}

// ThemeLoader returns a theme loader that also knows the inline themes.
func (c *Config) ThemeLoader() *theme.Loader {
	l := theme.NewLoader()
	l.Custom = c.Themes
	return l
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	if err := os.WriteFile(path, []byte(c.String()), 0o644); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	if c.APIURL != "" {
		fmt.Fprintf(&sb, "api_url = %s\n", c.APIURL)
	}
	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.LogLevel != "" {
		fmt.Fprintf(&sb, "log_level = %s\n", c.LogLevel)
	}
	sb.WriteString("\n")

	sb.WriteString("[canvas]\n")
	fmt.Fprintf(&sb, "width = %d\n", c.Canvas.Width)
	fmt.Fprintf(&sb, "height = %d\n", c.Canvas.Height)
	fmt.Fprintf(&sb, "top_offset = %d\n", c.Canvas.TopOffset)
	fmt.Fprintf(&sb, "stroke_width = %g\n", c.Canvas.StrokeWidth)
	if c.Canvas.Color != "" {
		fmt.Fprintf(&sb, "color = %s\n", c.Canvas.Color)
	}
	sb.WriteString("\n")

	sb.WriteString("[session]\n")
	fmt.Fprintf(&sb, "display_delay = %s\n", c.Session.DisplayDelay)
	fmt.Fprintf(&sb, "request_timeout = %s\n", c.Session.RequestTimeout)
	fmt.Fprintf(&sb, "allow_empty = %v\n", c.Session.AllowEmpty)
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "result = %v\n", c.Notify.Result)
	fmt.Fprintf(&sb, "error = %v\n", c.Notify.Error)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	sb.WriteString("\n")

	names := make([]string, 0, len(c.Themes))
	for name := range c.Themes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		for _, kv := range t.Fields() {
			fmt.Fprintf(&sb, "%s: %s\n", kv[0], kv[1])
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
