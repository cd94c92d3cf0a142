package machine

import "github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/ir"

// DataType is the Machine IR's own notion of an operand's type: a
// (kind, width) pair independent of ir.Type, since the backend only
// ever needs to know "integer or float" and "32 or 64 bits" — never
// the richer distinctions (pointer-ness, void) the SSA IR type system
// carries.
type DataType struct {
	Float bool
	Wide  bool // true: 64-bit, false: 32-bit
}

var (
	I32   = DataType{Float: false, Wide: false}
	I64   = DataType{Float: false, Wide: true}
	F32   = DataType{Float: true, Wide: false}
	F64   = DataType{Float: true, Wide: true}
	PTR   = I64 // RISC-V64 pointers are 64-bit integers
	TOKEN = DataType{} // zero-width, used for chain-only pseudo-results
)

func (t DataType) RegType() RegType {
	if t.Float {
		return RegTypeFloat
	}
	return RegTypeInt
}

func (t DataType) Bytes() int {
	if t.Wide {
		return 8
	}
	return 4
}

func (t DataType) String() string {
	switch {
	case t == TOKEN:
		return "token"
	case t.Float && t.Wide:
		return "f64"
	case t.Float:
		return "f32"
	case t.Wide:
		return "i64"
	default:
		return "i32"
	}
}

// DataTypeOf maps an ir.Type onto the backend's DataType, the
// boundary crossing point between the SSA-level type system and the
// Machine IR's own.
func DataTypeOf(t ir.Type) DataType {
	switch t {
	case ir.TypeI1, ir.TypeI8, ir.TypeI32:
		return I32
	case ir.TypeI64, ir.TypePtr:
		return I64
	case ir.TypeF32:
		return F32
	case ir.TypeF64:
		return F64
	default:
		return TOKEN
	}
}
