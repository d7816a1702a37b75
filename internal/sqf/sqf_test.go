package sqf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLocator is a SourceLocator that treats offsets as already being
// in terms of a single synthetic file, for tests that don't need the
// preprocessor's mapping machinery.
type stubLocator struct{ text string }

func (s stubLocator) Locate(offset int) SourceInfo {
	return SourceInfo{Offset: uint32(offset), FileIndex: 0, Line: 1}
}
func (s stubLocator) CleanText() string          { return s.text }
func (s stubLocator) CleanSpan(span Span) Span   { return span }

func compileSource(t *testing.T, src string) Compiled {
	t.Helper()
	tokens, err := Lex(src)
	require.NoError(t, err)
	tokens = StripNoop(StripComments(tokens))
	stmts, err := Parse(NewDatabase(nil, []string{"hint", "format"}, []string{"setdamage", "select"}), tokens)
	require.NoError(t, err)
	stmts = Optimize(stmts)
	compiled, err := Compile(stmts, []string{"test.sqf"}, stubLocator{text: src})
	require.NoError(t, err)
	return compiled
}

func TestCompileFoldsConstantArithmetic(t *testing.T) {
	compiled := compileSource(t, "x = 1 + 2;")

	var sawThree, sawOne, sawTwo bool
	for _, c := range compiled.Constants {
		if c.Kind == ConstScalar {
			switch c.Scalar {
			case 3:
				sawThree = true
			case 1:
				sawOne = true
			case 2:
				sawTwo = true
			}
		}
	}
	assert.True(t, sawThree, "expected folded constant 3.0 in constants table")
	assert.False(t, sawOne, "unfolded operand 1.0 should not appear in constants table")
	assert.False(t, sawTwo, "unfolded operand 2.0 should not appear in constants table")
}

func TestLexStripNoopCollapsesEmptyStatements(t *testing.T) {
	tokens, err := Lex("{ ;;; x = 1; }")
	require.NoError(t, err)
	tokens = StripNoop(StripComments(tokens))

	var terminators int
	for _, tok := range tokens {
		if tok.Kind == TokControl && tok.Control == CtlTerminator {
			terminators++
		}
	}
	assert.Equal(t, 1, terminators)
}

func TestParseAssignmentLocalVsGlobal(t *testing.T) {
	tokens, err := Lex("private x = 1; y = 2;")
	require.NoError(t, err)
	tokens = StripNoop(StripComments(tokens))
	stmts, err := Parse(Empty(), tokens)
	require.NoError(t, err)
	require.Len(t, stmts.Content, 2)

	local, ok := stmts.Content[0].(AssignLocalStmt)
	require.True(t, ok, "expected AssignLocalStmt, got %T", stmts.Content[0])
	assert.Equal(t, "x", local.Name)

	global, ok := stmts.Content[1].(AssignGlobalStmt)
	require.True(t, ok, "expected AssignGlobalStmt, got %T", stmts.Content[1])
	assert.Equal(t, "y", global.Name)
}

func TestCommandPrecedenceBinaryOverCompare(t *testing.T) {
	db := NewDatabase(nil, nil, []string{"setvariable"})
	tokens, err := Lex("x setvariable [1, 2] == true;")
	require.NoError(t, err)
	tokens = StripNoop(StripComments(tokens))
	stmts, err := Parse(db, tokens)
	require.NoError(t, err)
	require.Len(t, stmts.Content, 1)

	stmt, ok := stmts.Content[0].(ExpressionStmt)
	require.True(t, ok)
	cmp, ok := stmt.Expr.(BinaryCommandExpr)
	require.True(t, ok, "expected top-level compare expression, got %T", stmt.Expr)
	assert.Equal(t, "==", cmp.Name)
	_, ok = cmp.LHS.(BinaryCommandExpr)
	assert.True(t, ok, "expected setvariable call nested under compare")
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	compiled := compileSource(t, `
		x = 1 + 2;
		hint format ["%1", x];
		player setdamage 0.5;
		f = { _this select 0 };
	`)

	blob, err := Serialize(compiled)
	require.NoError(t, err)

	out, err := Deserialize(blob)
	require.NoError(t, err)

	assert.Equal(t, compiled.EntrypointIndex, out.EntrypointIndex)
	assert.Equal(t, compiled.Names, out.Names)
	assert.Equal(t, compiled.FileNames, out.FileNames)
	require.Len(t, out.Constants, len(compiled.Constants))
	for i := range compiled.Constants {
		assert.Equal(t, compiled.Constants[i].Kind, out.Constants[i].Kind, "constant %d kind", i)
	}
}

func TestSerializeDeserializeLargeConstantsCompresses(t *testing.T) {
	var src string
	for i := 0; i < 200; i++ {
		src += "hint \"a rather long literal string used to pad out the constants section\";\n"
	}
	compiled := compileSource(t, src)

	blob, err := Serialize(compiled)
	require.NoError(t, err)

	out, err := Deserialize(blob)
	require.NoError(t, err)
	assert.Equal(t, len(compiled.Constants), len(out.Constants))
}

func TestInvalidCommandNameRejected(t *testing.T) {
	_, _, err := compileConstant(VariableExpr{Name: "ok_name"}, &compileCtx{}, stubLocator{})
	assert.NoError(t, err)

	_, err = normalizeName("has space")
	assert.Error(t, err)
}

func TestDatabaseExcludesSpecialCommands(t *testing.T) {
	db := NewDatabase([]string{"true"}, nil, []string{"or"})
	assert.False(t, db.HasNularCommand("true"), "special nular command must not be stored in the database")
	assert.False(t, db.HasBinaryCommand("or"), "special binary command must not be stored in the database")
}
