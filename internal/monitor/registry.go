// Package monitor contains the activity-monitoring core: a registry of
// watched joystick device handles and the event loop that turns device I/O
// into rate-limited wake broadcasts.
package monitor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"

	"github.com/joywake/joywake/internal/hotplug"
	"github.com/joywake/joywake/internal/logger"
)

// WatchedDevice is one open, non-blocking device handle being watched for
// activity. It is owned by the registry entry for its parent identity.
type WatchedDevice struct {
	parent string
	name   string
	style  hotplug.InterfaceStyle
	file   *os.File
}

// Name returns the kernel device name of the watched interface
func (w *WatchedDevice) Name() string {
	return w.name
}

// Registry maps a physical device's parent identity to the single handle
// currently watched for it. It is mutated only from the monitor loop, so it
// needs no locking.
type Registry struct {
	prefer  hotplug.InterfaceStyle
	entries map[string]*WatchedDevice

	// open and attach are swapped in tests
	open   func(node string) (*os.File, error)
	attach func(*WatchedDevice)
}

// NewRegistry creates a registry preferring the given interface style when a
// device exposes more than one. attach is called once for every handle that
// starts being watched.
func NewRegistry(prefer hotplug.InterfaceStyle, attach func(*WatchedDevice)) *Registry {
	return &Registry{
		prefer:  prefer,
		entries: make(map[string]*WatchedDevice),
		open:    openDeviceNode,
		attach:  attach,
	}
}

// Consider decides whether to watch a newly announced device interface.
// Non-joystick and nodeless descriptors are ignored; an existing entry for
// the same parent is kept unless the new interface is strictly preferred.
// Unexpected open errors are returned; permission problems and races with
// device removal are logged and skipped.
func (r *Registry) Consider(d hotplug.Descriptor) error {
	if !d.Joystick || d.Node == "" {
		return nil
	}

	existing := r.entries[d.Parent]
	if existing != nil {
		// Replace only when the newcomer matches the preference and
		// the current entry does not; anything else would flap between
		// sibling interfaces of the same joystick.
		if d.Style != r.prefer || existing.style == r.prefer {
			logger.Debug("keeping current interface", "device", d.Label(), "watched", existing.name, "ignored", d.Name)
			return nil
		}
	}

	file, err := r.open(d.Node)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrPermission):
			logger.Warn("no permission to read device, skipping", "node", d.Node, "device", d.Label())
			return nil
		case errors.Is(err, fs.ErrNotExist), errors.Is(err, unix.ENODEV):
			// Unplugged between the hotplug event and the open.
			logger.Debug("device vanished before open", "node", d.Node)
			return nil
		default:
			return fmt.Errorf("open %s: %w", d.Node, err)
		}
	}

	// Close the superseded handle only now that the new one is open, so a
	// failed open never leaves the device uncovered.
	if existing != nil {
		logger.Debug("superseding interface", "device", d.Label(), "old", existing.name, "new", d.Name)
		if err := closeDevice(existing); err != nil {
			return err
		}
	}

	watched := &WatchedDevice{
		parent: d.Parent,
		name:   d.Name,
		style:  d.Style,
		file:   file,
	}
	r.entries[d.Parent] = watched
	r.attach(watched)
	logger.Info("watching joystick", "device", d.Label(), "node", d.Node)
	return nil
}

// Forget handles a device-removal notification. The name check guards
// against dropping the entry when a sibling interface of the same physical
// device is removed.
func (r *Registry) Forget(d hotplug.Descriptor) error {
	existing := r.entries[d.Parent]
	if existing == nil || existing.name != d.Name {
		return nil
	}
	delete(r.entries, d.Parent)
	logger.Info("joystick removed", "device", d.Label())
	return closeDevice(existing)
}

// Drop removes a watched device whose handle reported that the device is
// gone. Safe to call after the entry was already superseded or forgotten.
func (r *Registry) Drop(w *WatchedDevice) error {
	if r.entries[w.parent] != w {
		return nil
	}
	delete(r.entries, w.parent)
	logger.Info("joystick disappeared", "name", w.name)
	return closeDevice(w)
}

// Len returns the number of watched devices
func (r *Registry) Len() int {
	return len(r.entries)
}

// CloseAll releases every watched handle. Best-effort shutdown cleanup.
func (r *Registry) CloseAll() {
	for parent, w := range r.entries {
		delete(r.entries, parent)
		if err := closeDevice(w); err != nil {
			logger.Warn("closing device handle", "name", w.name, "error", err)
		}
	}
}

func openDeviceNode(node string) (*os.File, error) {
	return os.OpenFile(node, os.O_RDONLY|unix.O_NONBLOCK, 0)
}

// closeDevice closes a watched handle. A device that already vanished from
// the filesystem reports ENODEV on close; that narrow case is expected
// during removal and not an error. Anything else is surfaced so resource
// leaks stay visible.
func closeDevice(w *WatchedDevice) error {
	err := w.file.Close()
	if err == nil || errors.Is(err, os.ErrClosed) || errors.Is(err, unix.ENODEV) {
		return nil
	}
	return fmt.Errorf("close %s: %w", w.name, err)
}
