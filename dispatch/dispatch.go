// Package dispatch decodes an on-disk YAML dispatch description into
// an exec.Description, and allocates/initializes the buffers it
// declares in a Device's global memory. The description names an entry
// point, a group-count extent, buffer declarations with optional fill
// or series initializers, descriptor bindings, and specialization
// constant overrides.
package dispatch

import (
	"encoding/binary"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/talvos/device"
	"github.com/gogpu/talvos/exec"
	"github.com/gogpu/talvos/ir"
)

// Series describes an arithmetic-progression buffer initializer:
// element i is Start+i*Step, written Width bytes at a time (default 4,
// i.e. one uint32 per element).
type Series struct {
	Start int64 `yaml:"start"`
	Step  int64 `yaml:"step"`
	Width int   `yaml:"width,omitempty"`
}

// Init is a buffer's initial-contents directive: exactly one of Fill
// or Series should be set.
type Init struct {
	Fill   *uint8  `yaml:"fill,omitempty"`
	Series *Series `yaml:"series,omitempty"`
}

// BufferDecl declares one named, sized buffer to allocate in the
// Device's global memory before the dispatch runs.
type BufferDecl struct {
	Name string `yaml:"name"`
	Size uint64 `yaml:"size"`
	Init *Init  `yaml:"init,omitempty"`
}

// BindingDecl binds a previously declared buffer to a descriptor set
// and binding number.
type BindingDecl struct {
	Set     uint32 `yaml:"set"`
	Binding uint32 `yaml:"binding"`
	Buffer  string `yaml:"buffer"`
}

// Description is the on-disk shape of a dispatch: the same fields as
// exec.Description, plus the buffer declarations Executor never
// allocates itself. Resolve turns this into a ready exec.Description
// bound against a live Device.
type Description struct {
	Entry      string            `yaml:"entry"`
	Groups     [3]uint32         `yaml:"groups"`
	Buffers    []BufferDecl      `yaml:"buffers"`
	Bindings   []BindingDecl     `yaml:"bindings"`
	Specialize map[uint32]uint64 `yaml:"specialize,omitempty"`
}

// Load reads and decodes a YAML dispatch description from path.
func Load(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dispatch: reading %s: %w", path, err)
	}
	var d Description
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("dispatch: decoding %s: %w", path, err)
	}
	return &d, nil
}

// Resolve allocates every declared buffer in dev's global memory,
// applies its initializer, binds it to the descriptor set/binding
// pairs that reference it, and resolves specialization overrides
// against module's declared spec constant types, producing a ready
// exec.Description.
func (d *Description) Resolve(dev *device.Device, module *ir.Module) (exec.Description, error) {
	addrs := make(map[string]uint64, len(d.Buffers))
	for _, b := range d.Buffers {
		addr := dev.GlobalMemory.Allocate(b.Size)
		addrs[b.Name] = addr
		if b.Init != nil {
			if err := applyInit(dev, addr, b.Size, b.Init); err != nil {
				return exec.Description{}, fmt.Errorf("dispatch: buffer %q: %w", b.Name, err)
			}
		}
	}

	bindings := make([]exec.BufferBinding, 0, len(d.Bindings))
	for _, bd := range d.Bindings {
		addr, ok := addrs[bd.Buffer]
		if !ok {
			return exec.Description{}, fmt.Errorf("dispatch: binding (set=%d, binding=%d) references undeclared buffer %q", bd.Set, bd.Binding, bd.Buffer)
		}
		bindings = append(bindings, exec.BufferBinding{Set: bd.Set, Binding: bd.Binding, Address: addr})
	}

	specialize := make(map[uint32]ir.Object, len(d.Specialize))
	for specID, val := range d.Specialize {
		resultID, ok := module.SpecConstants[specID]
		if !ok {
			continue
		}
		ty := module.Objects[resultID].Type
		obj := ir.Zero(ty)
		if _, isFloat := ty.Kind.(*ir.FloatType); isFloat {
			obj.SetFloat64(0, float64(int64(val)))
		} else {
			obj.SetUint64(0, val)
		}
		specialize[specID] = obj
	}

	return exec.Description{
		EntryPoint: d.Entry,
		NumGroups:  ir.Dim3{X: d.Groups[0], Y: d.Groups[1], Z: d.Groups[2]},
		Bindings:   bindings,
		Specialize: specialize,
	}, nil
}

func applyInit(dev *device.Device, addr, size uint64, init *Init) error {
	data := dev.GlobalMemory.Map(addr, size)
	if data == nil {
		return fmt.Errorf("allocation of %d bytes could not be mapped for initialization", size)
	}
	defer dev.GlobalMemory.Unmap(addr)

	switch {
	case init.Fill != nil:
		for i := range data {
			data[i] = *init.Fill
		}
	case init.Series != nil:
		width := init.Series.Width
		if width == 0 {
			width = 4
		}
		v := init.Series.Start
		for off := 0; off+width <= len(data); off += width {
			putWidth(data[off:off+width], uint64(v))
			v += init.Series.Step
		}
	}
	return nil
}

func putWidth(dst []byte, v uint64) {
	switch len(dst) {
	case 1:
		dst[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(dst, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(dst, uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(dst, v)
	}
}
