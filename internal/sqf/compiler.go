package sqf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hemtt-go/hemtt/internal/herrors"
)

// SourceInfo locates an instruction in the original file set for
// runtime error reporting (spec §3 "Compiled script").
type SourceInfo struct {
	Offset    uint32
	FileIndex uint16
	Line      uint16
}

// InstructionOp tags the stack-machine opcode union.
type InstructionOp int

const (
	OpEndStatement InstructionOp = iota
	OpPush
	OpMakeArray
	OpCallNular
	OpCallUnary
	OpCallBinary
	OpAssignTo
	OpAssignToLocal
	OpGetVariable
)

// Instruction is one stack-machine op. Operand is the u16 index into
// Compiled.Constants or Compiled.Names, depending on Op; SourceInfo is
// zero for OpEndStatement, which carries none.
type Instruction struct {
	Op      InstructionOp
	Operand uint16
	Source  SourceInfo
}

// CodePointer locates the source text a Code constant's instructions
// came from: either the whole file's own text (the entrypoint) or an
// offset/length span into that text (any nested code block).
type CodePointer struct {
	IsConstant bool
	Constant   uint16
	Offset     uint32
	Length     uint32
}

// Instructions is one compiled code body (the entrypoint, or a nested
// `{ ... }` code constant).
type Instructions struct {
	Contents      []Instruction
	SourcePointer CodePointer
}

// ConstantKind tags the Constant union.
type ConstantKind int

const (
	ConstCode ConstantKind = iota
	ConstString
	ConstScalar
	ConstBoolean
	ConstArray
	ConstConsumableArray
	ConstNularCommand
)

// Constant is one entry in Compiled.Constants.
type Constant struct {
	Kind     ConstantKind
	Code     Instructions
	String   string
	Scalar   float32
	Boolean  bool
	Array    []Constant
	NularCmd string
}

func (c Constant) equal(o Constant) bool {
	if c.Kind != o.Kind {
		return false
	}
	switch c.Kind {
	case ConstString:
		return c.String == o.String
	case ConstScalar:
		return c.Scalar == o.Scalar
	case ConstBoolean:
		return c.Boolean == o.Boolean
	case ConstNularCommand:
		return c.NularCmd == o.NularCmd
	case ConstArray, ConstConsumableArray:
		if len(c.Array) != len(o.Array) {
			return false
		}
		for i := range c.Array {
			if !c.Array[i].equal(o.Array[i]) {
				return false
			}
		}
		return true
	case ConstCode:
		return false // code constants are never deduplicated
	default:
		return false
	}
}

// Compiled is the serializable output of compiling a script (spec §3
// "Compiled script").
type Compiled struct {
	EntrypointIndex uint16
	Constants       []Constant
	Names           []string
	FileNames       []string
}

// newCompileError builds the shared compiler error type (spec §7
// "Compiler: list too long, invalid command name").
func newCompileError(code, message string) *herrors.CompilerError {
	return herrors.NewCompilerError(code, errors.New(message))
}

// SourceLocator resolves a byte offset in the processed source to the
// SourceInfo an instruction should carry. The build orchestrator's
// preprocessor output implements this; tests can supply a stub.
type SourceLocator interface {
	Locate(offset int) SourceInfo
	CleanText() string
	CleanSpan(span Span) Span
}

// Compile converts a parsed, optimized Statements into a Compiled
// program (spec §4.E "Serializer").
func Compile(s Statements, fileNames []string, loc SourceLocator) (Compiled, error) {
	ctx := &compileCtx{}
	entry, err := compileBlock(s, ctx, loc, true)
	if err != nil {
		return Compiled{}, err
	}
	entryIndex, err := ctx.addConstant(Constant{Kind: ConstCode, Code: entry})
	if err != nil {
		return Compiled{}, err
	}
	return Compiled{
		EntrypointIndex: entryIndex,
		Constants:       ctx.constants,
		Names:           ctx.names,
		FileNames:       fileNames,
	}, nil
}

type compileCtx struct {
	constants []Constant
	names     []string
}

func (c *compileCtx) addConstant(k Constant) (uint16, error) {
	if k.Kind != ConstCode {
		for i, existing := range c.constants {
			if existing.equal(k) {
				return uint16(i), nil
			}
		}
	}
	if len(c.constants) >= 1<<16 {
		return 0, newCompileError("list-too-long", "constants table exceeds 65536 entries")
	}
	c.constants = append(c.constants, k)
	return uint16(len(c.constants) - 1), nil
}

func (c *compileCtx) addName(name string) (uint16, error) {
	normalized, err := normalizeName(name)
	if err != nil {
		return 0, err
	}
	for i, existing := range c.names {
		if existing == normalized {
			return uint16(i), nil
		}
	}
	if len(c.names) >= 1<<16 {
		return 0, newCompileError("list-too-long", "names table exceeds 65536 entries")
	}
	c.names = append(c.names, normalized)
	return uint16(len(c.names) - 1), nil
}

func normalizeName(name string) (string, error) {
	lower := strings.ToLower(name)
	if !IsValidCommandName(lower) {
		return "", newCompileError("invalid-command-name", fmt.Sprintf("invalid name %q", name))
	}
	return lower, nil
}

func compileBlock(s Statements, ctx *compileCtx, loc SourceLocator, isRoot bool) (Instructions, error) {
	var contents []Instruction
	for _, stmt := range s.Content {
		if err := compileStatement(stmt, &contents, ctx, loc); err != nil {
			return Instructions{}, err
		}
	}
	if isRoot {
		idx, err := ctx.addConstant(Constant{Kind: ConstString, String: loc.CleanText()})
		if err != nil {
			return Instructions{}, err
		}
		return Instructions{Contents: contents, SourcePointer: CodePointer{IsConstant: true, Constant: idx}}, nil
	}
	span := loc.CleanSpan(s.Span)
	length := uint32(0)
	if len(s.Content) != 0 {
		length = uint32(span[1] - span[0])
	}
	return Instructions{Contents: contents, SourcePointer: CodePointer{Offset: uint32(span[0]), Length: length}}, nil
}

func compileStatement(s Statement, out *[]Instruction, ctx *compileCtx, loc SourceLocator) error {
	*out = append(*out, Instruction{Op: OpEndStatement})
	switch v := s.(type) {
	case AssignGlobalStmt:
		if err := compileExpr(v.Expr, out, ctx, loc); err != nil {
			return err
		}
		idx, err := ctx.addName(v.Name)
		if err != nil {
			return err
		}
		*out = append(*out, Instruction{Op: OpAssignTo, Operand: idx, Source: loc.Locate(v.Pos[0])})
	case AssignLocalStmt:
		if err := compileExpr(v.Expr, out, ctx, loc); err != nil {
			return err
		}
		idx, err := ctx.addName(v.Name)
		if err != nil {
			return err
		}
		*out = append(*out, Instruction{Op: OpAssignToLocal, Operand: idx, Source: loc.Locate(v.Pos[0])})
	case ExpressionStmt:
		return compileExpr(v.Expr, out, ctx, loc)
	}
	return nil
}

func compileExpr(e Expression, out *[]Instruction, ctx *compileCtx, loc SourceLocator) error {
	constant, isConstant, err := compileConstant(e, ctx, loc)
	if err != nil {
		return err
	}
	if isConstant {
		return pushConstant(constant, out, ctx)
	}
	switch v := e.(type) {
	case ArrayExpr:
		for _, item := range v.Items {
			if err := compileExpr(item, out, ctx, loc); err != nil {
				return err
			}
		}
		if len(v.Items) >= 1<<16 {
			return newCompileError("list-too-long", "array literal exceeds 65536 elements")
		}
		*out = append(*out, Instruction{Op: OpMakeArray, Operand: uint16(len(v.Items)), Source: loc.Locate(v.Pos[0])})
	case NularCommandExpr:
		idx, err := ctx.addName(v.Name)
		if err != nil {
			return err
		}
		*out = append(*out, Instruction{Op: OpCallNular, Operand: idx, Source: loc.Locate(v.Pos[0])})
	case UnaryCommandExpr:
		if err := compileExpr(v.RHS, out, ctx, loc); err != nil {
			return err
		}
		idx, err := ctx.addName(v.Name)
		if err != nil {
			return err
		}
		*out = append(*out, Instruction{Op: OpCallUnary, Operand: idx, Source: loc.Locate(v.Pos[0])})
	case BinaryCommandExpr:
		if err := compileExpr(v.LHS, out, ctx, loc); err != nil {
			return err
		}
		if err := compileExpr(v.RHS, out, ctx, loc); err != nil {
			return err
		}
		idx, err := ctx.addName(v.Name)
		if err != nil {
			return err
		}
		*out = append(*out, Instruction{Op: OpCallBinary, Operand: idx, Source: loc.Locate(v.Pos[0])})
	case VariableExpr:
		idx, err := ctx.addName(v.Name)
		if err != nil {
			return err
		}
		*out = append(*out, Instruction{Op: OpGetVariable, Operand: idx, Source: loc.Locate(v.Pos[0])})
	default:
		return newCompileError("invalid-command-name", "constant expression should have been handled")
	}
	return nil
}

func pushConstant(c Constant, out *[]Instruction, ctx *compileCtx) error {
	if c.Kind == ConstArray {
		for _, item := range c.Array {
			if err := pushConstant(item, out, ctx); err != nil {
				return err
			}
		}
		if len(c.Array) >= 1<<16 {
			return newCompileError("list-too-long", "array constant exceeds 65536 elements")
		}
		*out = append(*out, Instruction{Op: OpMakeArray, Operand: uint16(len(c.Array))})
		return nil
	}
	idx, err := ctx.addConstant(c)
	if err != nil {
		return err
	}
	*out = append(*out, Instruction{Op: OpPush, Operand: idx})
	return nil
}

// compileConstant mirrors the reference compiler's compile_constant:
// it tries to reduce an expression to a Constant, returning
// (constant, true) on success so the caller can emit a Push/MakeArray
// sequence instead of runtime instructions.
func compileConstant(e Expression, ctx *compileCtx, loc SourceLocator) (Constant, bool, error) {
	switch v := e.(type) {
	case CodeExpr:
		body, err := compileBlock(v.Body, ctx, loc, false)
		if err != nil {
			return Constant{}, false, err
		}
		return Constant{Kind: ConstCode, Code: body}, true, nil
	case StringExpr:
		return Constant{Kind: ConstString, String: v.Value}, true, nil
	case NumberExpr:
		return Constant{Kind: ConstScalar, Scalar: v.Value}, true, nil
	case BooleanExpr:
		return Constant{Kind: ConstBoolean, Boolean: v.Value}, true, nil
	case ArrayExpr:
		items := make([]Constant, len(v.Items))
		for i, item := range v.Items {
			c, ok, err := compileConstant(item, ctx, loc)
			if err != nil {
				return Constant{}, false, err
			}
			if !ok {
				return Constant{}, false, nil
			}
			items[i] = c
		}
		return Constant{Kind: ConstArray, Array: items}, true, nil
	case ConsumableArrayExpr:
		items := make([]Constant, len(v.Items))
		for i, item := range v.Items {
			c, ok, err := compileConstant(item, ctx, loc)
			if err != nil {
				return Constant{}, false, err
			}
			if !ok {
				return Constant{}, false, nil
			}
			items[i] = c
		}
		return Constant{Kind: ConstConsumableArray, Array: items}, true, nil
	case NularCommandExpr:
		if IsConstantCommand(v.Name) {
			name, err := normalizeName(v.Name)
			if err != nil {
				return Constant{}, false, err
			}
			return Constant{Kind: ConstNularCommand, NularCmd: name}, true, nil
		}
		return Constant{}, false, nil
	default:
		return Constant{}, false, nil
	}
}
