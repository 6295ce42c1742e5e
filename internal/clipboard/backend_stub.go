//go:build !(linux || freebsd || openbsd || netbsd || dragonfly || darwin || windows)

package clipboard

type unsupportedBackend struct{}

func newBackend() backend { return unsupportedBackend{} }

func (unsupportedBackend) init() error                 { return ErrUnsupported }
func (unsupportedBackend) read(format) ([]byte, error) { return nil, ErrUnsupported }
func (unsupportedBackend) write(format, []byte) error  { return ErrUnsupported }
