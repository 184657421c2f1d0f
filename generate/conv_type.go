package generate

import (
	"fmt"
	"strings"

	"requitec/common"
	"requitec/depm"
	"requitec/report"
	"requitec/types"

	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
)

// convType converts a Requite type into its LLVM type.
func (b *Builder) convType(t types.Type) (lltypes.Type, error) {
	t, err := b.r.Concrete(t)
	if err != nil {
		return nil, err
	}

	var llType lltypes.Type
	switch root := t.Root.(type) {
	case types.Integer:
		llType = lltypes.NewInt(uint64(root.BitDepth))
	case types.FixedPoint:
		llType = lltypes.NewInt(uint64(root.BitDepth()))
	case types.Codeunit:
		llType = lltypes.NewInt(uint64(root.Encoding.BitDepth()))
	case types.FloatingPoint:
		llType, err = convFloat(root.Kind)
		if err != nil {
			return nil, err
		}
	case types.Special:
		switch root {
		case types.Bool:
			llType = lltypes.I1
		case types.Byte:
			llType = lltypes.I8
		case types.Void:
			// LLVM has no void pointers
			if len(t.Subtypes) > 0 {
				llType = lltypes.I8
			} else {
				llType = lltypes.Void
			}
		case types.Null:
			llType = lltypes.I8Ptr
		case types.VariadicArgs:
			llType = lltypes.NewArray(uint64(root.BitDepth()/8), lltypes.I8)
		}
	case types.ObjectRoot:
		llType = b.useStruct(root.ID)
	default:
		return nil, report.Raise(report.Unsupported, nil, "type `%s` has no representation", t.Repr())
	}

	// subtypes wrap the root innermost first
	for _, st := range t.Subtypes {
		if st.IsPointer() {
			llType = lltypes.NewPointer(llType)
		} else {
			llType = lltypes.NewArray(uint64(st.ArraySize), llType)
		}
	}

	return llType, nil
}

// convFloat converts a floating point format into its LLVM type.
func convFloat(kind types.FloatKind) (lltypes.Type, error) {
	switch kind {
	case types.FloatBinaryHalf:
		return lltypes.Half, nil
	case types.FloatBinarySingle:
		return lltypes.Float, nil
	case types.FloatBinaryDouble:
		return lltypes.Double, nil
	case types.FloatBinaryQuad:
		return lltypes.FP128, nil
	case types.FloatPCCDoubleDouble:
		return lltypes.PPC_FP128, nil
	case types.FloatX87DoubleExtended:
		return lltypes.X86_FP80, nil
	}

	return nil, report.Raise(report.Unsupported, nil, "float format `%s` is not supported by the backend", kind)
}

// -----------------------------------------------------------------------------

// declareStructs creates the struct type of every object.  All struct types
// are named before any is filled in so that objects may point to each other.
func (b *Builder) declareStructs() error {
	var ids []types.ObjectID
	for _, m := range b.bin.OrderedModules() {
		for _, oid := range m.Objects {
			o := b.bin.Object(oid)

			st := &lltypes.StructType{Packed: o.Packed}
			st.SetName(b.structName(o))
			b.structs[oid] = st
			ids = append(ids, oid)
		}
	}

	for _, oid := range ids {
		o := b.bin.Object(oid)
		st := b.structs[oid]

		st.Fields = make([]lltypes.Type, len(o.Properties))
		for i, pid := range o.Properties {
			field, err := b.convType(b.bin.Property(pid).Type)
			if err != nil {
				return report.InModule(report.InSpan(err, b.bin.Property(pid).Decl.Span()), b.bin.Module(o.Module).Path)
			}

			st.Fields[i] = field
		}
	}

	return nil
}

// structName returns the name of the struct type of an object.
func (b *Builder) structName(o *depm.Object) string {
	m := b.bin.Module(o.Module)
	return fmt.Sprintf("%s%s.%s", common.ReservedPrefix, strings.TrimPrefix(m.Name, common.ReservedPrefix), o.Name)
}

// useStruct returns the struct type of an object and adds its definition to
// the current module if it has not been added yet.
func (b *Builder) useStruct(oid types.ObjectID) *lltypes.StructType {
	st := b.structs[oid]

	// struct fields are converted before any module is entered
	if b.mod == nil {
		return st
	}

	if _, ok := b.typeDefs[b.module.ID][oid]; !ok {
		b.typeDefs[b.module.ID][oid] = struct{}{}
		b.mod.TypeDefs = append(b.mod.TypeDefs, st)
	}

	return st
}

// -----------------------------------------------------------------------------

// llvmCallConvs maps calling conventions to their LLVM numbers.  The C calling
// convention is handled separately because LLVM considers it the default.
var llvmCallConvs = map[depm.CallingConvention]enum.CallingConv{
	depm.CallConvFast:          8,
	depm.CallConvCold:          9,
	depm.CallConvGHC:           10,
	depm.CallConvHiPE:          11,
	depm.CallConvPreserveMost:  14,
	depm.CallConvPreserveAll:   15,
	depm.CallConvSwift:         16,
	depm.CallConvCXXFastTLS:    17,
	depm.CallConvTail:          18,
	depm.CallConvCFGuardCheck:  19,
	depm.CallConvPreserveNone:  21,
	depm.CallConvX86StdCall:    64,
	depm.CallConvX86FastCall:   65,
	depm.CallConvARMAPCS:       66,
	depm.CallConvARMAAPCS:      67,
	depm.CallConvARMAAPCSVFP:   68,
	depm.CallConvMSP430Intr:    69,
	depm.CallConvX86ThisCall:   70,
	depm.CallConvPTXKernel:     71,
	depm.CallConvPTXDevice:     72,
	depm.CallConvSPIRFunc:      75,
	depm.CallConvSPIRKernel:    76,
	depm.CallConvIntelOCLBI:    77,
	depm.CallConvX86_64SysV:    78,
	depm.CallConvWin64:         79,
	depm.CallConvX86VectorCall: 80,
	depm.CallConvX86Intr:       83,
	depm.CallConvAVRIntr:       84,
	depm.CallConvAVRSignal:     85,
	depm.CallConvX86RegCall:    92,
}

// convCallConv converts a calling convention into its LLVM equivalent.
func convCallConv(cc depm.CallingConvention) enum.CallingConv {
	if llcc, ok := llvmCallConvs[cc]; ok {
		return llcc
	}

	return enum.CallingConvC
}
