// Package notify raises desktop notifications for board events.
package notify

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"

	"github.com/example/mathboard/internal/platform"
)

// Event identifies a notification trigger.
type Event string

const (
	// EventResult fires when a recognition batch arrives.
	EventResult Event = "result"
	// EventError fires when a recognition call fails.
	EventError Event = "error"
	// EventCopy fires when a result or the board is copied.
	EventCopy Event = "copy"
	// EventSave fires when the board is written to disk.
	EventSave Event = "save"
)

// EventPreference describes formatting for a notification event.
type EventPreference struct {
	Template string
}

// Preferences describes notification behaviour.
type Preferences struct {
	Title  string
	Events map[Event]EventPreference
}

// DefaultPreferences returns the default notification settings.
func DefaultPreferences() Preferences {
	return Preferences{
		Title: platform.AppName,
		Events: map[Event]EventPreference{
			EventResult: {Template: "%s"},
			EventError:  {Template: "Recognition failed: %s"},
			EventCopy:   {Template: "Copied %s to clipboard"},
			EventSave:   {Template: "Saved %s"},
		},
	}
}

// LoadPreferences applies MATHBOARD_NOTIFY_* environment overrides to the
// defaults.
func LoadPreferences(getenv func(string) string) Preferences {
	prefs := DefaultPreferences()
	if v := strings.TrimSpace(getenv("MATHBOARD_NOTIFY_TITLE")); v != "" {
		prefs.Title = v
	}
	for _, ev := range []Event{EventResult, EventError, EventCopy, EventSave} {
		key := "MATHBOARD_NOTIFY_" + strings.ToUpper(string(ev)) + "_TEXT"
		if v := strings.TrimSpace(getenv(key)); v != "" {
			prefs.Events[ev] = EventPreference{Template: v}
		}
	}
	return prefs
}

// SendFunc delivers one notification.
type SendFunc func(title, body string, opts platform.Options) error

// Notifier sends OS-level notifications for enabled events.
type Notifier struct {
	prefs   Preferences
	enabled map[Event]bool
	send    SendFunc
	logger  *slog.Logger
}

// New creates a Notifier using the provided preferences. Every event starts
// disabled.
func New(prefs Preferences) *Notifier {
	cloned := Preferences{Title: prefs.Title, Events: make(map[Event]EventPreference, len(prefs.Events))}
	for k, v := range prefs.Events {
		cloned.Events[k] = v
	}
	return &Notifier{
		prefs:   cloned,
		enabled: make(map[Event]bool),
		send:    platform.Notify,
		logger:  slog.Default(),
	}
}

// SetSender replaces the platform delivery function.
func (n *Notifier) SetSender(fn SendFunc) {
	if n != nil && fn != nil {
		n.send = fn
	}
}

// SetLogger sets the logger used for delivery failures.
func (n *Notifier) SetLogger(l *slog.Logger) {
	if n != nil && l != nil {
		n.logger = l
	}
}

// Enable toggles the notifier for the provided event.
func (n *Notifier) Enable(event Event, enabled bool) {
	if n == nil {
		return
	}
	n.enabled[event] = enabled
}

// Result announces recognised results.
func (n *Notifier) Result(text string) {
	n.dispatch(EventResult, text, platform.Options{})
}

// Error announces a failed recognition.
func (n *Notifier) Error(err error) {
	if err == nil {
		return
	}
	n.dispatch(EventError, err.Error(), platform.Options{Urgent: true})
}

// Copy announces a clipboard copy. An optional preview is shown as the icon.
func (n *Notifier) Copy(detail string, preview image.Image) {
	if !n.enabledFor(EventCopy) {
		return
	}
	if strings.TrimSpace(detail) == "" {
		detail = "board"
	}
	opts := platform.Options{}
	if preview != nil {
		path, cleanup, err := writePreview(preview)
		if err != nil {
			n.logger.Warn("notification preview", "error", err)
		} else {
			defer cleanup()
			opts.IconPath = path
		}
	}
	n.dispatch(EventCopy, detail, opts)
}

// Save announces a written file, using it as the icon when it exists.
func (n *Notifier) Save(path string) {
	if !n.enabledFor(EventSave) {
		return
	}
	detail := strings.TrimSpace(path)
	opts := platform.Options{}
	if abs, err := filepath.Abs(path); err == nil {
		detail = abs
		if _, err := os.Stat(abs); err == nil {
			opts.IconPath = abs
		}
	}
	n.dispatch(EventSave, detail, opts)
}

func (n *Notifier) enabledFor(event Event) bool {
	return n != nil && n.enabled[event]
}

func (n *Notifier) dispatch(event Event, detail string, opts platform.Options) {
	if !n.enabledFor(event) {
		return
	}
	tmpl := strings.TrimSpace(n.prefs.Events[event].Template)
	if tmpl == "" {
		return
	}
	body := strings.TrimSpace(fmt.Sprintf(tmpl, strings.TrimSpace(detail)))
	if body == "" {
		return
	}
	if err := n.send(n.prefs.Title, body, opts); err != nil {
		n.logger.Warn("notification failed", "event", string(event), "error", err)
	}
}

// previewSize bounds the longest edge of a notification icon.
const previewSize = 128

// thumbnail shrinks img to fit previewSize, keeping its aspect ratio.
func thumbnail(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= previewSize && h <= previewSize {
		return img
	}
	if w >= h {
		h = max(1, h*previewSize/w)
		w = previewSize
	} else {
		w = max(1, w*previewSize/h)
		h = previewSize
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

func writePreview(img image.Image) (string, func(), error) {
	img = thumbnail(img)
	f, err := os.CreateTemp("", "mathboard-preview-*.png")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", nil, err
	}
	return path, func() { _ = os.Remove(path) }, nil
}
