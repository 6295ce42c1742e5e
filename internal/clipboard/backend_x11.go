//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && !cgo

package clipboard

import (
	"fmt"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// x11Backend speaks the X11 selection protocol directly so the clipboard
// works in builds without cgo. It owns CLIPBOARD while it holds data and
// answers SelectionRequest events from a background loop.
type x11Backend struct {
	conn   *xgb.Conn
	window xproto.Window
	atoms  x11Atoms

	mu    sync.RWMutex
	owned map[format][]byte
}

type x11Atoms struct {
	clipboard xproto.Atom
	targets   xproto.Atom
	utf8      xproto.Atom
	textPlain xproto.Atom
	png       xproto.Atom
	transfer  xproto.Atom
}

func newBackend() backend { return &x11Backend{} }

func (b *x11Backend) init() error {
	if !hasDisplay() {
		return errNoDisplay
	}
	conn, err := xgb.NewConn()
	if err != nil {
		return fmt.Errorf("x11 connect: %w", err)
	}
	screen := xproto.Setup(conn).DefaultScreen(conn)
	win, err := xproto.NewWindowId(conn)
	if err != nil {
		conn.Close()
		return err
	}
	mask := uint32(xproto.EventMaskPropertyChange | xproto.EventMaskStructureNotify)
	if err := xproto.CreateWindowChecked(conn, screen.RootDepth, win, screen.Root,
		0, 0, 1, 1, 0, xproto.WindowClassInputOutput, screen.RootVisual,
		xproto.CwEventMask, []uint32{mask}).Check(); err != nil {
		conn.Close()
		return err
	}
	atoms, err := internX11Atoms(conn)
	if err != nil {
		xproto.DestroyWindow(conn, win)
		conn.Close()
		return err
	}
	b.conn, b.window, b.atoms = conn, win, atoms
	b.owned = make(map[format][]byte)
	go b.serve()
	return nil
}

func internX11Atoms(conn *xgb.Conn) (x11Atoms, error) {
	names := []string{"CLIPBOARD", "TARGETS", "UTF8_STRING", "text/plain;charset=utf-8", "image/png", "MATHBOARD_CLIPBOARD"}
	got := make([]xproto.Atom, len(names))
	for i, name := range names {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			return x11Atoms{}, fmt.Errorf("intern %s: %w", name, err)
		}
		got[i] = reply.Atom
	}
	return x11Atoms{
		clipboard: got[0],
		targets:   got[1],
		utf8:      got[2],
		textPlain: got[3],
		png:       got[4],
		transfer:  got[5],
	}, nil
}

func (b *x11Backend) write(f format, data []byte) error {
	b.mu.Lock()
	clear(b.owned)
	b.owned[f] = append([]byte(nil), data...)
	b.mu.Unlock()
	return xproto.SetSelectionOwnerChecked(b.conn, b.window, b.atoms.clipboard, xproto.TimeCurrentTime).Check()
}

func (b *x11Backend) read(f format) ([]byte, error) {
	if f == formatPNG {
		return b.convert(b.atoms.png)
	}
	data, err := b.convert(b.atoms.utf8)
	if err != nil {
		return b.convert(xproto.AtomString)
	}
	return data, nil
}

// serve answers requests for the data this process owns.
func (b *x11Backend) serve() {
	for {
		ev, err := b.conn.WaitForEvent()
		if err != nil {
			return
		}
		switch e := ev.(type) {
		case xproto.SelectionRequestEvent:
			b.answer(e)
		case xproto.SelectionClearEvent:
			b.mu.Lock()
			clear(b.owned)
			b.mu.Unlock()
		}
	}
}

func (b *x11Backend) answer(e xproto.SelectionRequestEvent) {
	prop := e.Property
	if prop == xproto.AtomNone {
		prop = e.Target
	}

	b.mu.RLock()
	text, img := b.owned[formatText], b.owned[formatPNG]
	b.mu.RUnlock()

	switch {
	case e.Target == b.atoms.targets:
		list := []xproto.Atom{b.atoms.targets}
		if len(text) > 0 {
			list = append(list, b.atoms.utf8, xproto.AtomString, b.atoms.textPlain)
		}
		if len(img) > 0 {
			list = append(list, b.atoms.png)
		}
		buf := make([]byte, 4*len(list))
		for i, a := range list {
			xgb.Put32(buf[4*i:], uint32(a))
		}
		xproto.ChangeProperty(b.conn, xproto.PropModeReplace, e.Requestor, prop, xproto.AtomAtom, 32, uint32(len(list)), buf)
	case len(text) > 0 && (e.Target == b.atoms.utf8 || e.Target == xproto.AtomString || e.Target == b.atoms.textPlain):
		xproto.ChangeProperty(b.conn, xproto.PropModeReplace, e.Requestor, prop, b.atoms.utf8, 8, uint32(len(text)), text)
	case len(img) > 0 && e.Target == b.atoms.png:
		xproto.ChangeProperty(b.conn, xproto.PropModeReplace, e.Requestor, prop, b.atoms.png, 8, uint32(len(img)), img)
	default:
		prop = xproto.AtomNone
	}

	ev := xproto.SelectionNotifyEvent{
		Time:      e.Time,
		Requestor: e.Requestor,
		Selection: e.Selection,
		Target:    e.Target,
		Property:  prop,
	}
	xproto.SendEvent(b.conn, false, e.Requestor, 0, string(ev.Bytes()))
}

// convert asks the current owner for target and waits for the reply on a
// private connection, so it does not race with serve.
func (b *x11Backend) convert(target xproto.Atom) ([]byte, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	screen := xproto.Setup(conn).DefaultScreen(conn)
	win, err := xproto.NewWindowId(conn)
	if err != nil {
		return nil, err
	}
	if err := xproto.CreateWindowChecked(conn, 0, win, screen.Root, 0, 0, 1, 1, 0,
		xproto.WindowClassInputOnly, 0, xproto.CwEventMask,
		[]uint32{xproto.EventMaskPropertyChange}).Check(); err != nil {
		return nil, err
	}
	defer xproto.DestroyWindow(conn, win)

	if err := xproto.ConvertSelectionChecked(conn, win, b.atoms.clipboard, target, b.atoms.transfer, xproto.TimeCurrentTime).Check(); err != nil {
		return nil, err
	}
	for {
		ev, err := conn.WaitForEvent()
		if err != nil {
			return nil, err
		}
		n, ok := ev.(xproto.SelectionNotifyEvent)
		if !ok {
			continue
		}
		if n.Property == xproto.AtomNone {
			return nil, ErrEmpty
		}
		reply, perr := xproto.GetProperty(conn, true, win, n.Property, xproto.GetPropertyTypeAny, 0, (1<<31)-1).Reply()
		if perr != nil {
			return nil, perr
		}
		return append([]byte(nil), reply.Value...), nil
	}
}
