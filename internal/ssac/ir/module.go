package ir

import (
	"fmt"

	"github.com/google/uuid"
)

// Module is a whole compilation unit: every global variable, every
// extern declaration, and every defined function, plus the operand
// factory shared across all of them.
type Module struct {
	Operands *OperandFactory

	// BuildID identifies this compilation unit for the lifetime of the
	// process; cmd/ssacdump prints it in its dump header. Nothing else
	// in this module reads it.
	BuildID uuid.UUID

	globals   []*Instruction // OpGlbVarDecl
	globalIdx map[string]*Instruction

	externs   []*Instruction // OpFuncDecl
	externIdx map[string]*Instruction

	funcs   []*Function
	funcIdx map[string]*Function
}

// NewModule returns an empty Module ready for incremental construction.
func NewModule() *Module {
	return &Module{
		Operands:  NewOperandFactory(),
		BuildID:   uuid.New(),
		globalIdx: make(map[string]*Instruction),
		externIdx: make(map[string]*Instruction),
		funcIdx:   make(map[string]*Function),
	}
}

// DeclareGlobal registers a global variable definition. init is the
// flattened, row-major initializer; pass nil for a zero-initialized
// global.
func (m *Module) DeclareGlobal(name string, elemType Type, dims []int, init []VarValue) *Instruction {
	if _, dup := m.globalIdx[name]; dup {
		panic(fmt.Sprintf("ir: duplicate global %q", name))
	}
	inst := &Instruction{opcode: OpGlbVarDecl, typ: elemType, dims: dims, globalName: name, globalInit: init}
	m.globals = append(m.globals, inst)
	m.globalIdx[name] = inst
	return inst
}

// Global looks up a previously declared global by name.
func (m *Module) Global(name string) (*Instruction, bool) {
	g, ok := m.globalIdx[name]
	return g, ok
}

// Globals returns every declared global, in declaration order.
func (m *Module) Globals() []*Instruction { return m.globals }

// DeclareExtern registers a function signature with no body (e.g. a
// runtime or library routine called but not defined in this unit).
func (m *Module) DeclareExtern(name string, retType Type, paramTypes []Type) *Instruction {
	if _, dup := m.externIdx[name]; dup {
		panic(fmt.Sprintf("ir: duplicate extern %q", name))
	}
	params := make([]Param, len(paramTypes))
	for i, t := range paramTypes {
		params[i] = Param{Type: t}
	}
	inst := &Instruction{opcode: OpFuncDecl, funcName: name, funcRetType: retType, funcParams: params}
	m.externs = append(m.externs, inst)
	m.externIdx[name] = inst
	return inst
}

// Externs returns every extern declaration, in declaration order.
func (m *Module) Externs() []*Instruction { return m.externs }

// DeclareFunction creates and registers a new defined Function owned
// by m.
func (m *Module) DeclareFunction(name string, retType Type, paramTypes []Type) *Function {
	if _, dup := m.funcIdx[name]; dup {
		panic(fmt.Sprintf("ir: duplicate function %q", name))
	}
	f := NewFunction(m, name, retType, paramTypes)
	m.funcs = append(m.funcs, f)
	m.funcIdx[name] = f
	return f
}

// Function looks up a previously defined function by name.
func (m *Module) Function(name string) (*Function, bool) {
	f, ok := m.funcIdx[name]
	return f, ok
}

// Functions returns every defined function, in declaration order.
func (m *Module) Functions() []*Function { return m.funcs }

// Resolves reports whether name refers to either a defined function or
// an extern declaration — the set of valid Call targets.
func (m *Module) Resolves(name string) bool {
	if _, ok := m.funcIdx[name]; ok {
		return true
	}
	_, ok := m.externIdx[name]
	return ok
}
