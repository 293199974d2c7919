// Package plugin resolves observer names to factories: TALVOS_PLUGINS
// names a ';'-separated list of observers to attach to a Device, and
// each name resolves through this package's registry rather than a
// shared-library path. Built-in observer packages register themselves
// from an init function, the same shape database/sql drivers use.
package plugin

import "github.com/gogpu/talvos/device"

// Factory constructs a fresh device.Observer instance for one
// registered plugin name.
type Factory func() device.Observer

var registry = map[string]Factory{}

// Register adds name to the registry. Calling Register twice with the
// same name replaces the earlier factory; intended to be called from
// init, mirroring sql.Register.
func Register(name string, factory Factory) {
	registry[name] = factory
}

// Lookup resolves name to its registered Factory.
func Lookup(name string) (Factory, bool) {
	f, ok := registry[name]
	return f, ok
}

// Names returns every currently registered plugin name.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

func init() {
	Register("trace", func() device.Observer { return &device.TraceObserver{} })
	Register("counting", func() device.Observer { return &device.CountingObserver{} })
}
