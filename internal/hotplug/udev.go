package hotplug

import (
	"context"
	"fmt"

	"github.com/jochenvg/go-udev"

	"github.com/joywake/joywake/internal/logger"
)

// UdevSource delivers input-subsystem hotplug events from the udev netlink
// socket. This is the primary source; it knows the parent device topology
// and the ID_INPUT_JOYSTICK classification that the kernel alone does not
// expose.
type UdevSource struct {
	u *udev.Udev
}

// NewUdevSource creates a udev-backed hotplug source
func NewUdevSource() *UdevSource {
	return &UdevSource{u: &udev.Udev{}}
}

// Enumerate returns descriptors for all input devices currently present
func (s *UdevSource) Enumerate() ([]Descriptor, error) {
	e := s.u.NewEnumerate()
	if err := e.AddMatchSubsystem("input"); err != nil {
		return nil, fmt.Errorf("udev enumerate filter: %w", err)
	}

	devices, err := e.Devices()
	if err != nil {
		return nil, fmt.Errorf("udev enumerate: %w", err)
	}

	descriptors := make([]Descriptor, 0, len(devices))
	for _, d := range devices {
		descriptors = append(descriptors, descriptorFromUdev(d))
	}
	return descriptors, nil
}

// Listen subscribes to udev "input" events until ctx is cancelled
func (s *UdevSource) Listen(ctx context.Context) (<-chan Event, error) {
	m := s.u.NewMonitorFromNetlink("udev")
	if err := m.FilterAddMatchSubsystem("input"); err != nil {
		return nil, fmt.Errorf("udev monitor filter: %w", err)
	}

	devices, err := m.DeviceChan(ctx)
	if err != nil {
		return nil, fmt.Errorf("udev monitor: %w", err)
	}

	events := make(chan Event, 16)
	go func() {
		defer close(events)
		for d := range devices {
			var action Action
			switch d.Action() {
			case "add":
				action = DeviceAdded
			case "remove":
				action = DeviceRemoved
			default:
				// change/bind/unbind events are irrelevant here
				continue
			}
			ev := Event{Action: action, Descriptor: descriptorFromUdev(d)}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	logger.Debug("udev hotplug source listening", "subsystem", "input")
	return events, nil
}

func descriptorFromUdev(d *udev.Device) Descriptor {
	desc := Descriptor{
		Name:     d.Sysname(),
		Node:     d.Devnode(),
		Style:    styleFromSysname(d.Sysname()),
		Joystick: d.PropertyValue("ID_INPUT_JOYSTICK") == "1",
		Vendor:   d.PropertyValue("ID_VENDOR"),
		Model:    d.PropertyValue("ID_MODEL"),
	}
	if p := d.Parent(); p != nil {
		desc.Parent = p.Syspath()
	}
	return desc
}
