package waker

import (
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/joywake/joywake/internal/logger"
)

const (
	screenSaverDest   = "org.freedesktop.ScreenSaver"
	screenSaverPath   = dbus.ObjectPath("/org/freedesktop/ScreenSaver")
	screenSaverMethod = "org.freedesktop.ScreenSaver.SimulateUserActivity"
)

// ScreenSaverWaker pokes the freedesktop screensaver service on the session
// bus. KDE and most standalone screensaver daemons implement it.
type ScreenSaverWaker struct {
	failureLatch
	connOnce sync.Once
	conn     *dbus.Conn
}

// NewScreenSaverWaker creates a D-Bus screensaver waker. The bus connection
// is established lazily on the first wake.
func NewScreenSaverWaker() *ScreenSaverWaker {
	return &ScreenSaverWaker{}
}

// Name returns the waker's display name
func (w *ScreenSaverWaker) Name() string {
	return "dbus-screensaver"
}

// Wake asynchronously calls SimulateUserActivity on the session bus
func (w *ScreenSaverWaker) Wake() {
	if w.Failed() {
		return
	}

	go func() {
		w.connOnce.Do(func() {
			conn, err := dbus.SessionBus()
			if err != nil {
				// No session bus, no screensaver service to poke.
				w.fail(w.Name(), err.Error())
				return
			}
			w.conn = conn
		})
		if w.conn == nil {
			return
		}

		call := w.conn.Object(screenSaverDest, screenSaverPath).Call(screenSaverMethod, 0)
		if call.Err != nil {
			w.softFail(w.Name(), call.Err.Error())
			return
		}
		w.succeed()
		logger.Debug("screensaver activity simulated", "waker", w.Name())
	}()
}
