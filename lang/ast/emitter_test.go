package ast_test

import (
	"strings"
	"testing"

	"github.com/nwscript-tools/ncsdecomp/lang/ast"
	"github.com/nwscript-tools/ncsdecomp/lang/types"
	"github.com/stretchr/testify/require"
)

func TestFuncNameLocalNameAreOffsetKeyed(t *testing.T) {
	require.Equal(t, "fn_2a", ast.FuncName(0x2a))
	require.Equal(t, "loc_0", ast.LocalName(0))
	require.Equal(t, "var_ff", ast.GlobalName(0xff))
	require.Equal(t, "sta_10", ast.StaticName(0x10))
	require.Equal(t, "f3", ast.FieldName(3))
}

func TestEmitterNoTrailingWhitespaceAndFinalNewline(t *testing.T) {
	fn := &ast.FunctionDef{
		Name:       "fn_0",
		ReturnType: types.TVoid,
		Body: &ast.Block{
			Stmts: []ast.Stmt{
				&ast.Return{},
			},
		},
	}
	var buf strings.Builder
	require.NoError(t, ast.NewEmitter(&buf).Emit(&ast.Program{Funcs: []*ast.FunctionDef{fn}}))

	out := buf.String()
	require.True(t, strings.HasSuffix(out, "\n"), "output must end with a newline")
	for i, line := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
		require.Equal(t, strings.TrimRight(line, " \t"), line, "line %d has trailing whitespace", i)
	}
}

func TestEmitterIfElseChainCollapsesToElseIf(t *testing.T) {
	inner := &ast.If{
		Cond: &ast.Ident{Name: "loc_4", Typ: types.TInt},
		Then: &ast.Block{Stmts: []ast.Stmt{&ast.Return{}}},
	}
	outer := &ast.If{
		Cond: &ast.Ident{Name: "loc_0", Typ: types.TInt},
		Then: &ast.Block{Stmts: []ast.Stmt{&ast.Return{}}},
		Else: &ast.Block{Stmts: []ast.Stmt{inner}},
	}
	fn := &ast.FunctionDef{
		Name:       "fn_0",
		ReturnType: types.TVoid,
		Body:       &ast.Block{Stmts: []ast.Stmt{outer}},
	}
	var buf strings.Builder
	require.NoError(t, ast.NewEmitter(&buf).Emit(&ast.Program{Funcs: []*ast.FunctionDef{fn}}))

	out := buf.String()
	require.Contains(t, out, "else if (loc_4)")
	require.NotContains(t, out, "else\n", "a collapsed else-if must not emit a nested else block")
}

func TestEmitterParenthesizesByPrecedence(t *testing.T) {
	// (a + b) * c must keep its parens; a + b * c must not.
	a := &ast.Ident{Name: "a", Typ: types.TInt}
	b := &ast.Ident{Name: "b", Typ: types.TInt}
	c := &ast.Ident{Name: "c", Typ: types.TInt}

	needsParens := &ast.BinaryOp{
		Op:    "*",
		Left:  &ast.BinaryOp{Op: "+", Left: a, Right: b},
		Right: c,
	}
	noParens := &ast.BinaryOp{
		Op:    "+",
		Left:  a,
		Right: &ast.BinaryOp{Op: "*", Left: b, Right: c},
	}

	fn := &ast.FunctionDef{
		Name:       "fn_0",
		ReturnType: types.TInt,
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.Return{Value: needsParens},
			&ast.Return{Value: noParens},
		}},
	}
	var buf strings.Builder
	require.NoError(t, ast.NewEmitter(&buf).Emit(&ast.Program{Funcs: []*ast.FunctionDef{fn}}))

	out := buf.String()
	require.Contains(t, out, "return (a + b) * c;")
	require.Contains(t, out, "return a + b * c;")
}

func TestEmitterDeterministicRegardlessOfNodeIdentity(t *testing.T) {
	build := func() *ast.Program {
		return &ast.Program{Funcs: []*ast.FunctionDef{
			{
				Name:       ast.FuncName(0x20),
				ReturnType: types.TInt,
				ParamNames: []string{ast.LocalName(0xfffffffc)},
				ParamTypes: []types.Type{types.TInt},
				Body: &ast.Block{Stmts: []ast.Stmt{
					&ast.Return{Value: &ast.Ident{Name: ast.LocalName(0xfffffffc), Typ: types.TInt}},
				}},
			},
		}}
	}

	var first, second strings.Builder
	require.NoError(t, ast.NewEmitter(&first).Emit(build()))
	require.NoError(t, ast.NewEmitter(&second).Emit(build()))
	require.Equal(t, first.String(), second.String())
}

func TestWalkVisitsEnterAndExitForEveryNode(t *testing.T) {
	fn := &ast.FunctionDef{
		Name:       "fn_0",
		ReturnType: types.TVoid,
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.ExprStmt{Expr: &ast.Ident{Name: "loc_0", Typ: types.TInt}},
		}},
	}

	var entered, exited int
	var v ast.VisitorFunc
	v = func(n ast.Node, dir ast.VisitDirection) ast.Visitor {
		if dir == ast.VisitEnter {
			entered++
		} else {
			exited++
		}
		return v
	}
	ast.Walk(v, fn)
	require.Equal(t, entered, exited)
	require.Greater(t, entered, 0)
}
