package waker

import "fmt"

// builtin commands cover the common screensaver/DPMS tools. Missing tools
// latch their waker on the first wake attempt and drop out of broadcasts;
// the rest keep working.
var builtin = []ProcessOptions{
	{Name: "xscreensaver", Argv: []string{"xscreensaver-command", "-deactivate"}},
	{Name: "xset", Argv: []string{"xset", "s", "reset"}},
	{Name: "xdg-screensaver", Argv: []string{"xdg-screensaver", "reset"}},
}

// Builtin returns the default waker set plus an extra process waker for
// customCommand when it is non-empty.
func Builtin(customCommand string, verbose bool) ([]Waker, error) {
	var wakers []Waker

	for _, opts := range builtin {
		opts.Verbose = verbose
		w, err := NewProcessWaker(opts)
		if err != nil {
			return nil, fmt.Errorf("builtin waker %s: %w", opts.Name, err)
		}
		wakers = append(wakers, w)
	}

	wakers = append(wakers, NewScreenSaverWaker())

	if customCommand != "" {
		w, err := NewProcessWaker(ProcessOptions{
			Name:    "custom",
			Command: customCommand,
			Verbose: verbose,
		})
		if err != nil {
			return nil, err
		}
		wakers = append(wakers, w)
	}

	return wakers, nil
}
