// Package hotplug delivers add/remove notifications for joystick-capable
// input devices, either from udev (preferred) or from a sysfs/fsnotify
// fallback when udev is unavailable.
package hotplug

import (
	"context"
	"strings"
)

// Action represents the kind of a hotplug event
type Action int

const (
	DeviceAdded Action = iota
	DeviceRemoved
)

func (a Action) String() string {
	switch a {
	case DeviceAdded:
		return "add"
	case DeviceRemoved:
		return "remove"
	default:
		return "unknown"
	}
}

// InterfaceStyle identifies which device-node family a descriptor belongs to
type InterfaceStyle int

const (
	StyleUnknown InterfaceStyle = iota
	// StyleJoystick is the classic /dev/input/js* interface
	StyleJoystick
	// StyleEvent is the generic /dev/input/event* interface
	StyleEvent
)

func (s InterfaceStyle) String() string {
	switch s {
	case StyleJoystick:
		return "js"
	case StyleEvent:
		return "event"
	default:
		return "unknown"
	}
}

// StyleFromString parses a configured interface preference ("js" or "event")
func StyleFromString(s string) InterfaceStyle {
	switch s {
	case "js":
		return StyleJoystick
	case "event":
		return StyleEvent
	default:
		return StyleUnknown
	}
}

// styleFromSysname derives the interface style from a kernel device name
// such as "js0" or "event17"
func styleFromSysname(name string) InterfaceStyle {
	switch {
	case strings.HasPrefix(name, "js"):
		return StyleJoystick
	case strings.HasPrefix(name, "event"):
		return StyleEvent
	default:
		return StyleUnknown
	}
}

// Descriptor describes one logical input interface as seen by the hotplug
// source. A physical joystick usually produces two of these (a js node and
// an event node) sharing the same Parent.
type Descriptor struct {
	// Parent is the stable identity of the physical device, shared by all
	// of its logical interfaces
	Parent string

	// Name is the kernel device name, e.g. "js0" or "event17"
	Name string

	// Node is the device node path, empty when the interface has none
	Node string

	// Style is the device-node family parsed from Name
	Style InterfaceStyle

	// Joystick reports whether the device is flagged joystick-capable
	Joystick bool

	// Vendor and Model are optional descriptive strings
	Vendor string
	Model  string
}

// Label returns a human-readable identifier for logging
func (d Descriptor) Label() string {
	if d.Vendor != "" || d.Model != "" {
		return strings.TrimSpace(d.Vendor + " " + d.Model)
	}
	return d.Name
}

// Event is one hotplug notification
type Event struct {
	Action Action
	Descriptor
}

// Source delivers the current device set and subsequent hotplug events
type Source interface {
	// Enumerate returns descriptors for all currently-present input devices
	Enumerate() ([]Descriptor, error)

	// Listen starts delivering hotplug events until ctx is cancelled. The
	// returned channel is closed when the source stops.
	Listen(ctx context.Context) (<-chan Event, error)
}
