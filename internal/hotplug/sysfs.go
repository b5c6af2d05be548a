package hotplug

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	evdev "github.com/holoplot/go-evdev"

	"github.com/joywake/joywake/internal/logger"
)

// settleDelay gives the kernel time to finish setting up a freshly created
// device node before we probe it
const settleDelay = 100 * time.Millisecond

// SysfsSource is the fallback hotplug source for systems without a usable
// udev: it scans /dev/input directly, derives the parent identity from the
// sysfs device link, and watches the directory with fsnotify. Removed nodes
// leave no sysfs trace, so descriptors are cached while present.
type SysfsSource struct {
	devDir string
	sysDir string

	// probe reports whether an event node is joystick-capable; swapped in
	// tests
	probe func(node string) bool

	mu    sync.Mutex
	known map[string]Descriptor
}

// NewSysfsSource creates a sysfs/fsnotify-backed hotplug source
func NewSysfsSource() *SysfsSource {
	return &SysfsSource{
		devDir: "/dev/input",
		sysDir: "/sys/class/input",
		probe:  isJoystickNode,
		known:  make(map[string]Descriptor),
	}
}

// Enumerate scans the input device directory for js* and event* nodes
func (s *SysfsSource) Enumerate() ([]Descriptor, error) {
	entries, err := os.ReadDir(s.devDir)
	if err != nil {
		return nil, err
	}

	var descriptors []Descriptor
	for _, entry := range entries {
		if entry.IsDir() || styleFromSysname(entry.Name()) == StyleUnknown {
			continue
		}
		desc := s.describe(entry.Name())
		s.remember(desc)
		descriptors = append(descriptors, desc)
	}
	return descriptors, nil
}

// Listen watches the input device directory for created and removed nodes
func (s *SysfsSource) Listen(ctx context.Context) (<-chan Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(s.devDir); err != nil {
		watcher.Close()
		return nil, err
	}

	events := make(chan Event, 16)
	go func() {
		defer close(events)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				name := filepath.Base(ev.Name)
				if styleFromSysname(name) == StyleUnknown {
					continue
				}

				switch {
				case ev.Op.Has(fsnotify.Create):
					time.Sleep(settleDelay)
					desc := s.describe(name)
					s.remember(desc)
					events <- Event{Action: DeviceAdded, Descriptor: desc}
				case ev.Op.Has(fsnotify.Remove):
					desc, ok := s.forget(name)
					if !ok {
						desc = Descriptor{Name: name, Style: styleFromSysname(name)}
					}
					events <- Event{Action: DeviceRemoved, Descriptor: desc}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("device directory watch error", "error", err)
			}
		}
	}()

	logger.Debug("sysfs hotplug source listening", "dir", s.devDir)
	return events, nil
}

// describe builds a descriptor for a device name from /dev and sysfs
func (s *SysfsSource) describe(name string) Descriptor {
	desc := Descriptor{
		Name:  name,
		Node:  filepath.Join(s.devDir, name),
		Style: styleFromSysname(name),
	}

	// The device symlink points into the physical device's sysfs tree,
	// which all sibling interfaces share.
	if parent, err := filepath.EvalSymlinks(filepath.Join(s.sysDir, name, "device")); err == nil {
		desc.Parent = parent
	}

	deviceDir := filepath.Join(s.sysDir, name, "device")
	if data, err := os.ReadFile(filepath.Join(deviceDir, "name")); err == nil {
		desc.Model = strings.TrimSpace(string(data))
	}
	if data, err := os.ReadFile(filepath.Join(deviceDir, "id", "vendor")); err == nil {
		desc.Vendor = strings.TrimSpace(string(data))
	}

	// js nodes are joysticks by construction; event nodes need a
	// capability probe.
	switch desc.Style {
	case StyleJoystick:
		desc.Joystick = true
	case StyleEvent:
		desc.Joystick = s.probe(desc.Node)
	}
	return desc
}

func (s *SysfsSource) remember(d Descriptor) {
	s.mu.Lock()
	s.known[d.Name] = d
	s.mu.Unlock()
}

func (s *SysfsSource) forget(name string) (Descriptor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.known[name]
	if ok {
		delete(s.known, name)
	}
	return d, ok
}

// isJoystickNode opens an event node and checks for absolute axes plus at
// least one joystick or gamepad button
func isJoystickNode(node string) bool {
	dev, err := evdev.Open(node)
	if err != nil {
		logger.Debug("cannot probe device", "node", node, "error", err)
		return false
	}
	defer dev.Close()

	hasAbs := false
	for _, t := range dev.CapableTypes() {
		if t == evdev.EV_ABS {
			hasAbs = true
			break
		}
	}
	if !hasAbs {
		return false
	}

	for _, code := range dev.CapableEvents(evdev.EV_KEY) {
		if code >= evdev.BTN_JOYSTICK && code < evdev.BTN_DIGI {
			return true
		}
	}
	return false
}
