package monitor

import (
	"errors"
	"io/fs"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joywake/joywake/internal/hotplug"
)

func testDescriptor(parent, name, node string) hotplug.Descriptor {
	d := hotplug.Descriptor{
		Parent:   parent,
		Name:     name,
		Node:     node,
		Joystick: true,
	}
	switch {
	case len(name) > 1 && name[:2] == "js":
		d.Style = hotplug.StyleJoystick
	default:
		d.Style = hotplug.StyleEvent
	}
	return d
}

// newTestRegistry opens /dev/null instead of real device nodes and records
// every attached handle
func newTestRegistry(t *testing.T, prefer hotplug.InterfaceStyle) (*Registry, *[]*WatchedDevice) {
	t.Helper()
	var attached []*WatchedDevice
	r := NewRegistry(prefer, func(w *WatchedDevice) {
		attached = append(attached, w)
	})
	r.open = func(node string) (*os.File, error) {
		return os.Open(os.DevNull)
	}
	return r, &attached
}

func isClosed(f *os.File) bool {
	_, err := f.Read(make([]byte, 1))
	return errors.Is(err, os.ErrClosed)
}

func TestConsiderIgnoresUnusableDescriptors(t *testing.T) {
	r, _ := newTestRegistry(t, hotplug.StyleJoystick)

	notJoystick := testDescriptor("pad0", "event3", "/dev/input/event3")
	notJoystick.Joystick = false
	require.NoError(t, r.Consider(notJoystick))

	noNode := testDescriptor("pad0", "js0", "")
	require.NoError(t, r.Consider(noNode))

	require.Equal(t, 0, r.Len())
}

func TestConsiderConvergesOnPreferredInterface(t *testing.T) {
	tests := []struct {
		name   string
		prefer hotplug.InterfaceStyle
		order  []string
		want   string
	}{
		{"prefer js, event first", hotplug.StyleJoystick, []string{"event3", "js0"}, "js0"},
		{"prefer js, js first", hotplug.StyleJoystick, []string{"js0", "event3"}, "js0"},
		{"prefer event, js first", hotplug.StyleEvent, []string{"js0", "event3"}, "event3"},
		{"prefer event, event first", hotplug.StyleEvent, []string{"event3", "js0"}, "event3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRegistry(t, tt.prefer)
			for _, name := range tt.order {
				d := testDescriptor("pad0", name, "/dev/input/"+name)
				require.NoError(t, r.Consider(d))
			}
			require.Equal(t, 1, r.Len())
			require.Equal(t, tt.want, r.entries["pad0"].name)
		})
	}
}

func TestConsiderClosesSupersededHandle(t *testing.T) {
	r, attached := newTestRegistry(t, hotplug.StyleJoystick)

	require.NoError(t, r.Consider(testDescriptor("pad0", "event3", "/dev/input/event3")))
	require.NoError(t, r.Consider(testDescriptor("pad0", "js0", "/dev/input/js0")))

	require.Len(t, *attached, 2)
	require.True(t, isClosed((*attached)[0].file), "superseded handle should be closed")
	require.False(t, isClosed((*attached)[1].file), "current handle should stay open")
}

func TestForgetGuardsAgainstSiblingInterface(t *testing.T) {
	r, _ := newTestRegistry(t, hotplug.StyleJoystick)
	require.NoError(t, r.Consider(testDescriptor("pad0", "js0", "/dev/input/js0")))

	// Removing the sibling event interface must not drop the js entry.
	require.NoError(t, r.Forget(testDescriptor("pad0", "event3", "/dev/input/event3")))
	require.Equal(t, 1, r.Len())

	require.NoError(t, r.Forget(testDescriptor("pad0", "js0", "/dev/input/js0")))
	require.Equal(t, 0, r.Len())
}

func TestDropIsIdempotent(t *testing.T) {
	r, attached := newTestRegistry(t, hotplug.StyleJoystick)
	require.NoError(t, r.Consider(testDescriptor("pad0", "js0", "/dev/input/js0")))

	w := (*attached)[0]
	require.NoError(t, r.Drop(w))
	require.Equal(t, 0, r.Len())

	// A later explicit remove notification for the same identity is a no-op.
	require.NoError(t, r.Drop(w))
	require.NoError(t, r.Forget(testDescriptor("pad0", "js0", "/dev/input/js0")))
	require.Equal(t, 0, r.Len())
}

func TestDropIgnoresSupersededHandle(t *testing.T) {
	r, attached := newTestRegistry(t, hotplug.StyleJoystick)
	require.NoError(t, r.Consider(testDescriptor("pad0", "event3", "/dev/input/event3")))
	require.NoError(t, r.Consider(testDescriptor("pad0", "js0", "/dev/input/js0")))

	// The old reader may still report "gone" after its handle was
	// superseded; that must not evict the successor.
	require.NoError(t, r.Drop((*attached)[0]))
	require.Equal(t, 1, r.Len())
	require.Equal(t, "js0", r.entries["pad0"].name)
}

func TestConsiderPermissionDeniedIsSkipped(t *testing.T) {
	r, _ := newTestRegistry(t, hotplug.StyleJoystick)
	r.open = func(node string) (*os.File, error) {
		return nil, &fs.PathError{Op: "open", Path: node, Err: fs.ErrPermission}
	}

	require.NoError(t, r.Consider(testDescriptor("pad0", "js0", "/dev/input/js0")))
	require.Equal(t, 0, r.Len())
}

func TestConsiderKeepsOldEntryWhenOpenFails(t *testing.T) {
	r, attached := newTestRegistry(t, hotplug.StyleJoystick)
	require.NoError(t, r.Consider(testDescriptor("pad0", "event3", "/dev/input/event3")))

	r.open = func(node string) (*os.File, error) {
		return nil, &fs.PathError{Op: "open", Path: node, Err: fs.ErrPermission}
	}
	require.NoError(t, r.Consider(testDescriptor("pad0", "js0", "/dev/input/js0")))

	// The preferred interface could not be opened; the event handle must
	// remain watched so coverage never drops to zero.
	require.Equal(t, 1, r.Len())
	require.Equal(t, "event3", r.entries["pad0"].name)
	require.False(t, isClosed((*attached)[0].file))
}

func TestConsiderPropagatesUnexpectedOpenErrors(t *testing.T) {
	r, _ := newTestRegistry(t, hotplug.StyleJoystick)
	boom := errors.New("boom")
	r.open = func(node string) (*os.File, error) {
		return nil, boom
	}

	err := r.Consider(testDescriptor("pad0", "js0", "/dev/input/js0"))
	require.ErrorIs(t, err, boom)
}
