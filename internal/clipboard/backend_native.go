//go:build ((linux || freebsd || openbsd || netbsd || dragonfly) && cgo) || darwin || windows

package clipboard

import (
	"runtime"

	"golang.design/x/clipboard"
)

// nativeBackend uses golang.design/x/clipboard.
type nativeBackend struct{}

func newBackend() backend { return nativeBackend{} }

func (nativeBackend) init() error {
	if runtime.GOOS != "darwin" && runtime.GOOS != "windows" && !hasDisplay() {
		return errNoDisplay
	}
	return clipboard.Init()
}

func (nativeBackend) read(f format) ([]byte, error) {
	return clipboard.Read(nativeFormat(f)), nil
}

func (nativeBackend) write(f format, data []byte) error {
	clipboard.Write(nativeFormat(f), data)
	return nil
}

func nativeFormat(f format) clipboard.Format {
	if f == formatPNG {
		return clipboard.FmtImage
	}
	return clipboard.FmtText
}
