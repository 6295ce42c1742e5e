package platform

// AppName is the application name shown by notification centres.
const AppName = "Mathboard"

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// IconPath, when non-empty, points to an image file the notification
	// centre should show with the notification if supported.
	IconPath string
	// Urgent marks failures so they stay visible longer where supported.
	Urgent bool
}
