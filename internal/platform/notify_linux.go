//go:build linux

package platform

import (
	"github.com/godbus/dbus/v5"
)

const (
	notifyDest  = "org.freedesktop.Notifications"
	notifyPath  = "/org/freedesktop/Notifications"
	notifyCall  = "org.freedesktop.Notifications.Notify"
	expireMs    = int32(5000)
	urgentMs    = int32(10000)
	urgencyCrit = byte(2)
)

// Notify sends a desktop notification using the Freedesktop.org notification interface.
func Notify(title, body string, opts Options) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return err
	}
	defer conn.Close()

	hints := map[string]dbus.Variant{}
	expire := expireMs
	if opts.Urgent {
		hints["urgency"] = dbus.MakeVariant(urgencyCrit)
		expire = urgentMs
	}
	obj := conn.Object(notifyDest, dbus.ObjectPath(notifyPath))
	call := obj.Call(notifyCall, 0,
		AppName, uint32(0), opts.IconPath, title, body, []string{}, hints, expire)
	return call.Err
}
