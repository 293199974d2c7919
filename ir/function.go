package ir

// Function is a SPIR-V function: its type, parameter ids, and blocks
// keyed by label id. Owned by a Module.
type Function struct {
	ID           uint32
	Type         *Type
	Params       []uint32
	FirstBlockID uint32
	Blocks       map[uint32]*Block

	// BlockOrder lists block ids in the order OpLabel declared them,
	// since Blocks is a map and disassembly needs the original layout.
	BlockOrder []uint32
}

// Block returns the block with the given label id.
func (f *Function) Block(id uint32) *Block { return f.Blocks[id] }

// FirstBlock returns the function's entry block.
func (f *Function) FirstBlock() *Block { return f.Blocks[f.FirstBlockID] }

// OrderedBlocks returns every block in declaration order, for
// disassembly and other whole-function listings.
func (f *Function) OrderedBlocks() []*Block {
	out := make([]*Block, len(f.BlockOrder))
	for i, id := range f.BlockOrder {
		out[i] = f.Blocks[id]
	}
	return out
}
