package hotplug

import "github.com/joywake/joywake/internal/logger"

// Detect returns the best available hotplug source: udev when it works,
// otherwise the sysfs/fsnotify fallback.
func Detect() Source {
	udevSrc := NewUdevSource()
	_, err := udevSrc.Enumerate()
	if err == nil {
		return udevSrc
	}
	logger.Warn("udev unavailable, falling back to sysfs scanning", "error", err)
	return NewSysfsSource()
}
