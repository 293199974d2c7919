package exec

import "github.com/gogpu/talvos/ir"

// The helpers and handlers in this file cover the composite,
// vector-shuffle, and linear-algebra opcodes.

func copyLane(dst ir.Object, dstLane int, src ir.Object, srcLane int) {
	sz := int(dst.Type.ScalarType().Size)
	doff := dstLane * sz
	soff := srcLane * int(src.Type.ScalarType().Size)
	copy(dst.Data[doff:doff+sz], src.Data[soff:soff+sz])
}

func getMatElem(m ir.Object, col, row int) float64 {
	return m.Extract([]uint32{uint32(col), uint32(row)}).GetFloat64(0)
}

func setMatElem(m ir.Object, col, row int, v float64) {
	elemType := m.Type.ElementType(uint64(col)).ElementType(uint64(row))
	elem := ir.Zero(elemType)
	elem.SetFloat64(0, v)
	m.Insert([]uint32{uint32(col), uint32(row)}, elem)
}

func matrixRows(m *ir.Type) int {
	mt := m.Kind.(*ir.MatrixType)
	return int(mt.Column.Kind.(*ir.VectorType).Count)
}

func matrixCols(m *ir.Type) int {
	return int(m.Kind.(*ir.MatrixType).Columns)
}

// executeCompositeConstruct implements OpCompositeConstruct. A vector
// result flattens its constituents (each either a scalar matching the
// element type or a smaller vector) lane by lane; every other
// composite result stores each constituent at the matching top-level
// index.
func (inv *Invocation) executeCompositeConstruct(inst *ir.Instruction) bool {
	out := ir.Zero(inst.ResultType)
	if _, isVec := inst.ResultType.Kind.(*ir.VectorType); isVec {
		lane := 0
		for _, opID := range inst.Operands {
			src := inv.objects[opID]
			if srcVec, ok := src.Type.Kind.(*ir.VectorType); ok {
				for l := 0; l < int(srcVec.Count); l++ {
					copyLane(out, lane, src, l)
					lane++
				}
			} else {
				copyLane(out, lane, src, 0)
				lane++
			}
		}
	} else {
		for i, opID := range inst.Operands {
			out.Insert([]uint32{uint32(i)}, inv.objects[opID])
		}
	}
	inv.objects[inst.ResultID] = out
	return false
}

// executeCompositeExtract implements OpCompositeExtract.
func (inv *Invocation) executeCompositeExtract(inst *ir.Instruction) bool {
	src := inv.objects[inst.Operand(0)]
	indices := make([]uint32, inst.NumOperands()-1)
	for i := range indices {
		indices[i] = inst.Operand(1 + i)
	}
	inv.objects[inst.ResultID] = src.Extract(indices)
	return false
}

// executeCompositeInsert implements OpCompositeInsert.
func (inv *Invocation) executeCompositeInsert(inst *ir.Instruction) bool {
	obj := inv.objects[inst.Operand(0)]
	composite := inv.objects[inst.Operand(1)].Clone()
	indices := make([]uint32, inst.NumOperands()-2)
	for i := range indices {
		indices[i] = inst.Operand(2 + i)
	}
	composite.Insert(indices, obj)
	inv.objects[inst.ResultID] = composite
	return false
}

// executeVectorShuffle implements OpVectorShuffle: each result lane
// names a source component index into the logical concatenation of the
// two input vectors. An index of 0xFFFFFFFF denotes an undefined lane
// and is left zeroed, matching the SPIR-V spec's Undef component rule.
func (inv *Invocation) executeVectorShuffle(inst *ir.Instruction) bool {
	v1 := inv.objects[inst.Operand(0)]
	v2 := inv.objects[inst.Operand(1)]
	n1 := laneCount(v1.Type)

	out := ir.Zero(inst.ResultType)
	for i := 2; i < inst.NumOperands(); i++ {
		comp := inst.Operand(i)
		if comp == 0xFFFFFFFF {
			continue
		}
		if int(comp) < n1 {
			copyLane(out, i-2, v1, int(comp))
		} else {
			copyLane(out, i-2, v2, int(comp)-n1)
		}
	}
	inv.objects[inst.ResultID] = out
	return false
}

// executeVectorExtractDynamic implements OpVectorExtractDynamic.
func (inv *Invocation) executeVectorExtractDynamic(inst *ir.Instruction) bool {
	v := inv.objects[inst.Operand(0)]
	idx := int(inv.objects[inst.Operand(1)].GetUint64(0))
	out := ir.Zero(inst.ResultType)
	copyLane(out, 0, v, idx)
	inv.objects[inst.ResultID] = out
	return false
}

// executeVectorInsertDynamic implements OpVectorInsertDynamic.
func (inv *Invocation) executeVectorInsertDynamic(inst *ir.Instruction) bool {
	v := inv.objects[inst.Operand(0)].Clone()
	comp := inv.objects[inst.Operand(1)]
	idx := int(inv.objects[inst.Operand(2)].GetUint64(0))
	copyLane(v, idx, comp, 0)
	inv.objects[inst.ResultID] = v
	return false
}

// executeTranspose implements OpTranspose.
func (inv *Invocation) executeTranspose(inst *ir.Instruction) bool {
	src := inv.objects[inst.Operand(0)]
	out := ir.Zero(inst.ResultType)
	cols, rows := matrixCols(src.Type), matrixRows(src.Type)
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			setMatElem(out, r, c, getMatElem(src, c, r))
		}
	}
	inv.objects[inst.ResultID] = out
	return false
}

// executeDot implements OpDot.
func (inv *Invocation) executeDot(inst *ir.Instruction) bool {
	a, b := inv.objects[inst.Operand(0)], inv.objects[inst.Operand(1)]
	sum := 0.0
	for lane := 0; lane < laneCount(a.Type); lane++ {
		sum += a.GetFloat64(lane) * b.GetFloat64(lane)
	}
	out := ir.Zero(inst.ResultType)
	out.SetFloat64(0, sum)
	inv.objects[inst.ResultID] = out
	return false
}

// executeVectorTimesScalar implements OpVectorTimesScalar.
func (inv *Invocation) executeVectorTimesScalar(inst *ir.Instruction) bool {
	v := inv.objects[inst.Operand(0)]
	s := inv.objects[inst.Operand(1)].GetFloat64(0)
	out := ir.Zero(inst.ResultType)
	for lane := 0; lane < laneCount(out.Type); lane++ {
		out.SetFloat64(lane, v.GetFloat64(lane)*s)
	}
	inv.objects[inst.ResultID] = out
	return false
}

// executeMatrixTimesScalar implements OpMatrixTimesScalar.
func (inv *Invocation) executeMatrixTimesScalar(inst *ir.Instruction) bool {
	m := inv.objects[inst.Operand(0)]
	s := inv.objects[inst.Operand(1)].GetFloat64(0)
	out := ir.Zero(inst.ResultType)
	cols, rows := matrixCols(out.Type), matrixRows(out.Type)
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			setMatElem(out, c, r, getMatElem(m, c, r)*s)
		}
	}
	inv.objects[inst.ResultID] = out
	return false
}

// executeVectorTimesMatrix implements OpVectorTimesMatrix: a row vector
// times a matrix, producing one dot product per column.
func (inv *Invocation) executeVectorTimesMatrix(inst *ir.Instruction) bool {
	v := inv.objects[inst.Operand(0)]
	m := inv.objects[inst.Operand(1)]
	out := ir.Zero(inst.ResultType)
	cols, rows := matrixCols(m.Type), matrixRows(m.Type)
	for c := 0; c < cols; c++ {
		sum := 0.0
		for r := 0; r < rows; r++ {
			sum += v.GetFloat64(r) * getMatElem(m, c, r)
		}
		out.SetFloat64(c, sum)
	}
	inv.objects[inst.ResultID] = out
	return false
}

// executeMatrixTimesVector implements OpMatrixTimesVector: a matrix
// times a column vector, producing one dot product per row.
func (inv *Invocation) executeMatrixTimesVector(inst *ir.Instruction) bool {
	m := inv.objects[inst.Operand(0)]
	v := inv.objects[inst.Operand(1)]
	out := ir.Zero(inst.ResultType)
	cols, rows := matrixCols(m.Type), matrixRows(m.Type)
	for r := 0; r < rows; r++ {
		sum := 0.0
		for c := 0; c < cols; c++ {
			sum += getMatElem(m, c, r) * v.GetFloat64(c)
		}
		out.SetFloat64(r, sum)
	}
	inv.objects[inst.ResultID] = out
	return false
}

// executeMatrixTimesMatrix implements OpMatrixTimesMatrix: LeftMatrix
// (K columns, M rows) times RightMatrix (N columns, K rows) produces an
// M-row, N-column result.
func (inv *Invocation) executeMatrixTimesMatrix(inst *ir.Instruction) bool {
	a := inv.objects[inst.Operand(0)]
	b := inv.objects[inst.Operand(1)]
	out := ir.Zero(inst.ResultType)
	k := matrixCols(a.Type)
	rows := matrixRows(a.Type)
	n := matrixCols(b.Type)
	for col := 0; col < n; col++ {
		for row := 0; row < rows; row++ {
			sum := 0.0
			for kk := 0; kk < k; kk++ {
				sum += getMatElem(a, kk, row) * getMatElem(b, col, kk)
			}
			setMatElem(out, col, row, sum)
		}
	}
	inv.objects[inst.ResultID] = out
	return false
}

// executeOuterProduct implements OpOuterProduct: column vector a (M)
// times row vector b (N) produces an M-row, N-column matrix.
func (inv *Invocation) executeOuterProduct(inst *ir.Instruction) bool {
	a := inv.objects[inst.Operand(0)]
	b := inv.objects[inst.Operand(1)]
	out := ir.Zero(inst.ResultType)
	cols, rows := matrixCols(out.Type), matrixRows(out.Type)
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			setMatElem(out, c, r, a.GetFloat64(r)*b.GetFloat64(c))
		}
	}
	inv.objects[inst.ResultID] = out
	return false
}
