package sqf

// Walk returns every statement and expression node reachable from s, in
// a deterministic pre-order traversal, boxed as `any` so a
// lint.Registry can dispatch each one by its concrete type (spec
// §4.J's "invoked once per AST node of that type").
func Walk(s Statements) []any {
	var out []any
	for _, stmt := range s.Content {
		walkStatement(stmt, &out)
	}
	return out
}

func walkStatement(s Statement, out *[]any) {
	if s == nil {
		return
	}
	*out = append(*out, s)
	switch v := s.(type) {
	case AssignLocalStmt:
		walkExpr(v.Expr, out)
	case AssignGlobalStmt:
		walkExpr(v.Expr, out)
	case ExpressionStmt:
		walkExpr(v.Expr, out)
	}
}

func walkExpr(e Expression, out *[]any) {
	if e == nil {
		return
	}
	*out = append(*out, e)
	switch v := e.(type) {
	case CodeExpr:
		for _, stmt := range v.Body.Content {
			walkStatement(stmt, out)
		}
	case ArrayExpr:
		for _, item := range v.Items {
			walkExpr(item, out)
		}
	case ConsumableArrayExpr:
		for _, item := range v.Items {
			walkExpr(item, out)
		}
	case UnaryCommandExpr:
		walkExpr(v.RHS, out)
	case BinaryCommandExpr:
		walkExpr(v.LHS, out)
		walkExpr(v.RHS, out)
	}
}
