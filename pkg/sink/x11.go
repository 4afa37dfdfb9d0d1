package sink

import (
	"fmt"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// X11 sets WM_NAME on the root window of the default screen.
type X11 struct {
	conn *xgb.Conn
	root xproto.Window
}

// NewX11 connects to the display named by $DISPLAY.
func NewX11() (*X11, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("open display: %w", err)
	}
	screen := xproto.Setup(conn).DefaultScreen(conn)
	return &X11{conn: conn, root: screen.Root}, nil
}

// Write replaces the root window name with line. The request is checked
// so a lost connection surfaces as an error.
func (x *X11) Write(line []byte) error {
	err := xproto.ChangePropertyChecked(x.conn, xproto.PropModeReplace, x.root,
		xproto.AtomWmName, xproto.AtomString, 8, uint32(len(line)), line).Check()
	if err != nil {
		return fmt.Errorf("set root window name: %w", err)
	}
	return nil
}

// Close disconnects from the display.
func (x *X11) Close() error {
	x.conn.Close()
	return nil
}
