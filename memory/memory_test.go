package memory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/talvos/memory"
)

type recordingReporter struct {
	accesses []memory.AccessKind
	errs     []error
}

func (r *recordingReporter) MemoryAccess(_ memory.Scope, kind memory.AccessKind, _ uint64, _ uint64, err error) {
	r.accesses = append(r.accesses, kind)
	r.errs = append(r.errs, err)
}

func TestAllocateStoreLoadRoundtrip(t *testing.T) {
	rep := &recordingReporter{}
	m := memory.New(memory.ScopeDevice, rep)

	addr := m.Allocate(16)
	require.NotZero(t, addr)

	in := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	m.Store(addr, in)

	out := make([]byte, 8)
	m.Load(out, addr)
	assert.Equal(t, in, out)

	assert.Len(t, rep.accesses, 2)
	assert.Nil(t, rep.errs[0])
	assert.Nil(t, rep.errs[1])
}

func TestLoadOutOfBoundsZeroFillsAndReports(t *testing.T) {
	rep := &recordingReporter{}
	m := memory.New(memory.ScopeDevice, rep)
	addr := m.Allocate(4)

	out := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	m.Load(out, addr+100)

	assert.Equal(t, []byte{0, 0, 0, 0}, out)
	require.Len(t, rep.errs, 1)
	require.Error(t, rep.errs[0])
	var accessErr *memory.AccessError
	require.ErrorAs(t, rep.errs[0], &accessErr)
}

func TestStoreOutOfBoundsIsSilentNoOp(t *testing.T) {
	rep := &recordingReporter{}
	m := memory.New(memory.ScopeDevice, rep)
	addr := m.Allocate(4)

	assert.NotPanics(t, func() {
		m.Store(addr+1000, []byte{1, 2, 3, 4})
	})
	require.Len(t, rep.errs, 1)
	require.Error(t, rep.errs[0])
}

func TestAccessAfterReleaseIsInvalid(t *testing.T) {
	rep := &recordingReporter{}
	m := memory.New(memory.ScopeDevice, rep)
	addr := m.Allocate(8)
	m.Release(addr)

	out := make([]byte, 8)
	m.Load(out, addr)
	require.Error(t, rep.errs[0])
}

func TestReleasedBufferIDIsReused(t *testing.T) {
	m := memory.New(memory.ScopeDevice, nil)
	a := m.Allocate(8)
	m.Release(a)
	b := m.Allocate(8)
	assert.Equal(t, a, b)
}

func TestCopyAcrossMemories(t *testing.T) {
	src := memory.New(memory.ScopeDevice, nil)
	dst := memory.New(memory.ScopeWorkgroup, nil)

	srcAddr := src.Allocate(4)
	dstAddr := dst.Allocate(4)
	src.Store(srcAddr, []byte{9, 8, 7, 6})

	memory.Copy(dst, dstAddr, src, srcAddr, 4)

	out := make([]byte, 4)
	dst.Load(out, dstAddr)
	assert.Equal(t, []byte{9, 8, 7, 6}, out)
}

func TestMapReturnsDirectSlice(t *testing.T) {
	m := memory.New(memory.ScopeDevice, nil)
	addr := m.Allocate(8)

	buf := m.Map(addr, 8)
	require.NotNil(t, buf)
	buf[0] = 0x42
	m.Unmap(addr)

	out := make([]byte, 1)
	m.Load(out, addr)
	assert.Equal(t, byte(0x42), out[0])
}

func TestMapOutOfBoundsReturnsNil(t *testing.T) {
	m := memory.New(memory.ScopeDevice, nil)
	addr := m.Allocate(4)
	assert.Nil(t, m.Map(addr, 100))
}

func TestAllocationCountTracksLiveBuffers(t *testing.T) {
	m := memory.New(memory.ScopeInvocation, nil)
	assert.Equal(t, 0, m.AllocationCount())

	a := m.Allocate(8)
	b := m.Allocate(8)
	assert.Equal(t, 2, m.AllocationCount())

	m.Release(a)
	assert.Equal(t, 1, m.AllocationCount())
	m.Release(b)
	assert.Equal(t, 0, m.AllocationCount())

	// Reusing a released id counts the buffer as live again.
	m.Allocate(4)
	assert.Equal(t, 1, m.AllocationCount())
}
