package exec

import "fmt"

// DescriptorError is the missing-descriptor value-level error: a
// buffer variable's (set, binding) has no matching entry in the
// dispatch's bindings. The affected pointer falls back to a null
// (buffer id 0) address, which later becomes an *memory.AccessError
// the first time the shader actually loads or stores through it.
type DescriptorError struct {
	Set     uint32
	Binding uint32
}

func (e *DescriptorError) Error() string {
	return fmt.Sprintf("no buffer bound for descriptor set=%d binding=%d", e.Set, e.Binding)
}
