package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/joywake/joywake/internal/hotplug"
	"github.com/joywake/joywake/internal/logger"
	"github.com/joywake/joywake/internal/waker"
)

// readChunkSize bounds how much is drained per readiness wakeup. Analog
// sticks produce bursts of small events; the content is discarded anyway.
const readChunkSize = 4096

var (
	// ErrNoWakers means the monitor was started with nothing to wake
	ErrNoWakers = errors.New("no wake actions configured")

	// ErrAllWakersFailed means every configured wake action has
	// permanently failed
	ErrAllWakersFailed = errors.New("all wake actions have failed")
)

// Options configures a Monitor
type Options struct {
	// Source delivers device presence and hotplug events
	Source hotplug.Source

	// Wakers is the broadcast list; must not be empty
	Wakers []waker.Waker

	// Interval is the minimum time between wake broadcasts
	Interval time.Duration

	// Prefer selects the interface style to watch when a joystick
	// exposes both
	Prefer hotplug.InterfaceStyle
}

// Monitor watches joystick devices for activity and broadcasts rate-limited
// wakes. All state lives on the single Run loop goroutine; per-device
// readers only post notifications into channels.
type Monitor struct {
	source   hotplug.Source
	wakers   []waker.Waker
	interval time.Duration
	registry *Registry

	activity chan *WatchedDevice
	gone     chan *WatchedDevice

	// now is swapped in tests
	now      func() time.Time
	lastWake time.Time

	ctx context.Context
}

// New creates a Monitor from options
func New(opts Options) *Monitor {
	m := &Monitor{
		source:   opts.Source,
		wakers:   opts.Wakers,
		interval: opts.Interval,
		// Activity only needs to wake, not to be counted: a full
		// channel means a wake is already pending.
		activity: make(chan *WatchedDevice, 1),
		gone:     make(chan *WatchedDevice, 16),
		now:      time.Now,
	}
	m.registry = NewRegistry(opts.Prefer, m.watch)
	return m
}

// Run executes the monitor loop until ctx is cancelled or a fatal condition
// occurs. It returns ErrNoWakers or ErrAllWakersFailed for the two fatal
// conditions; nil on clean shutdown.
func (m *Monitor) Run(ctx context.Context) error {
	if len(m.wakers) == 0 {
		return ErrNoWakers
	}
	m.ctx = ctx
	defer m.registry.CloseAll()

	// Pick up devices that are already plugged in, then subscribe, in
	// that order.
	descriptors, err := m.source.Enumerate()
	if err != nil {
		return fmt.Errorf("enumerating input devices: %w", err)
	}
	for _, d := range descriptors {
		if err := m.registry.Consider(d); err != nil {
			return err
		}
	}

	events, err := m.source.Listen(ctx)
	if err != nil {
		return fmt.Errorf("subscribing to hotplug events: %w", err)
	}

	logger.Info("monitoring for joystick activity", "devices", m.registry.Len(), "wakers", len(m.wakers))

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev.Action {
			case hotplug.DeviceAdded:
				err = m.registry.Consider(ev.Descriptor)
			case hotplug.DeviceRemoved:
				err = m.registry.Forget(ev.Descriptor)
			}
			if err != nil {
				return err
			}

		case <-m.activity:
			if err := m.triggerWake(); err != nil {
				return err
			}

		case w := <-m.gone:
			if err := m.registry.Drop(w); err != nil {
				return err
			}
		}
	}
}

// watch starts the reader goroutine for a freshly opened device handle. The
// goroutine exits when the handle is closed (superseded or removed) or the
// device reports it is gone.
func (m *Monitor) watch(w *WatchedDevice) {
	ctx := m.ctx
	go func() {
		buf := make([]byte, readChunkSize)
		for {
			_, err := w.file.Read(buf)
			if err == nil {
				// Only the presence of data matters; coalesce.
				select {
				case m.activity <- w:
				default:
				}
				continue
			}

			switch {
			case errors.Is(err, os.ErrClosed):
				// Handle was closed by the registry.
				return
			case errors.Is(err, unix.ENODEV), errors.Is(err, io.EOF):
				// Device unplugged; mirror the removal path.
				select {
				case m.gone <- w:
				case <-ctx.Done():
				}
				return
			default:
				// Anything else is an OS-level surprise we must
				// not mask.
				logger.Fatal("unexpected device read error", "name", w.name, "error", err)
			}
		}
	}()
}

// triggerWake broadcasts to all live wakers, at most once per interval.
// Returns ErrAllWakersFailed when no usable waker remains.
func (m *Monitor) triggerWake() error {
	now := m.now()
	if now.Sub(m.lastWake) < m.interval {
		return nil
	}
	m.lastWake = now

	live := make([]waker.Waker, 0, len(m.wakers))
	for _, w := range m.wakers {
		if w.Failed() {
			continue
		}
		live = append(live, w)
	}
	// The monitor owns list membership; failed wakers never come back.
	m.wakers = live
	if len(live) == 0 {
		return ErrAllWakersFailed
	}

	logger.Info("joystick activity, waking screen", "wakers", len(live))
	for _, w := range live {
		w.Wake()
	}
	return nil
}
