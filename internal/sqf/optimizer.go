package sqf

import (
	"math"
	"strings"
)

// Optimize constant-folds pure operators on literals and rewrites
// `params [...]` argument arrays with no inner-array defaults into
// ConsumableArrayExpr, so the serializer can share the constant (spec
// §4.E "Optimizer").
func Optimize(s Statements) Statements {
	out := make([]Statement, len(s.Content))
	for i, stmt := range s.Content {
		out[i] = optimizeStatement(stmt)
	}
	return Statements{Content: out, Span: s.Span}
}

func optimizeStatement(s Statement) Statement {
	switch v := s.(type) {
	case AssignGlobalStmt:
		v.Expr = optimizeExpr(v.Expr)
		return v
	case AssignLocalStmt:
		v.Expr = optimizeExpr(v.Expr)
		return v
	case ExpressionStmt:
		v.Expr = optimizeExpr(v.Expr)
		return v
	default:
		return s
	}
}

func optimizeExpr(e Expression) Expression {
	switch v := e.(type) {
	case CodeExpr:
		v.Body = Optimize(v.Body)
		return v
	case ArrayExpr:
		items := make([]Expression, len(v.Items))
		for i, it := range v.Items {
			items[i] = optimizeExpr(it)
		}
		v.Items = items
		return v
	case UnaryCommandExpr:
		v.RHS = optimizeExpr(v.RHS)
		return optimizeUnary(v)
	case BinaryCommandExpr:
		v.LHS = optimizeExpr(v.LHS)
		v.RHS = optimizeExpr(v.RHS)
		return optimizeBinary(v)
	default:
		return e
	}
}

func optimizeUnary(u UnaryCommandExpr) Expression {
	name := strings.ToLower(u.Name)
	switch name {
	case "-":
		if n, ok := u.RHS.(NumberExpr); ok {
			return foldedNumber(-n.Value, u.Pos)
		}
	case "tolower", "toloweransi":
		if s, ok := u.RHS.(StringExpr); ok && isASCII(s.Value) {
			return StringExpr{Value: strings.ToLower(s.Value), Pos: u.Pos}
		}
	case "toupper", "toupperansi":
		if s, ok := u.RHS.(StringExpr); ok && isASCII(s.Value) {
			return StringExpr{Value: strings.ToUpper(s.Value), Pos: u.Pos}
		}
	case "sqrt":
		if n, ok := u.RHS.(NumberExpr); ok {
			if r := sqrtf32(n.Value); isFinite32(r) {
				return foldedNumber(r, u.Pos)
			}
		}
	case "params":
		if arr, ok := u.RHS.(ArrayExpr); ok && allSafeParams(arr.Items) {
			u.RHS = ConsumableArrayExpr{Items: arr.Items, Pos: arr.Pos}
		}
	}
	return u
}

func optimizeBinary(b BinaryCommandExpr) Expression {
	name := strings.ToLower(b.Name)
	switch name {
	case "params":
		if arr, ok := b.RHS.(ArrayExpr); ok && allSafeParams(arr.Items) {
			b.RHS = ConsumableArrayExpr{Items: arr.Items, Pos: arr.Pos}
		}
		return b
	case "+":
		if l, ok := b.LHS.(NumberExpr); ok {
			if r, ok := b.RHS.(NumberExpr); ok {
				if v := l.Value + r.Value; isFinite32(v) {
					return foldedNumber(v, b.Pos)
				}
			}
		}
		if l, ok := b.LHS.(StringExpr); ok {
			if r, ok := b.RHS.(StringExpr); ok && isASCII(l.Value) && isASCII(r.Value) {
				return StringExpr{Value: l.Value + r.Value, Pos: b.Pos}
			}
		}
	case "-":
		if l, ok := b.LHS.(NumberExpr); ok {
			if r, ok := b.RHS.(NumberExpr); ok {
				if v := l.Value - r.Value; isFinite32(v) {
					return foldedNumber(v, b.Pos)
				}
			}
		}
	case "*":
		if l, ok := b.LHS.(NumberExpr); ok {
			if r, ok := b.RHS.(NumberExpr); ok {
				if v := l.Value * r.Value; isFinite32(v) {
					return foldedNumber(v, b.Pos)
				}
			}
		}
	case "/":
		if l, ok := b.LHS.(NumberExpr); ok {
			if r, ok := b.RHS.(NumberExpr); ok {
				if v := l.Value / r.Value; isFinite32(v) {
					return foldedNumber(v, b.Pos)
				}
			}
		}
	case "%", "mod":
		if l, ok := b.LHS.(NumberExpr); ok {
			if r, ok := b.RHS.(NumberExpr); ok {
				if v := modf32(l.Value, r.Value); isFinite32(v) {
					return foldedNumber(v, b.Pos)
				}
			}
		}
	case "else":
		if _, lok := b.LHS.(CodeExpr); lok {
			if _, rok := b.RHS.(CodeExpr); rok {
				return ConsumableArrayExpr{Items: []Expression{b.LHS, b.RHS}, Pos: b.Pos}
			}
		}
	}
	return b
}

func foldedNumber(v float32, pos Span) Expression {
	return NumberExpr{Value: v, Pos: pos}
}

// isSafeParam reports that an array item used as a `params` default
// would not surprise the caller by sharing mutable array state across
// calls (spec §4.E optimizer note: a default that is itself an array
// literal disqualifies the ConsumableArray rewrite).
func isSafeParam(e Expression) bool {
	if arr, ok := e.(ArrayExpr); ok && len(arr.Items) > 1 {
		if _, isArr := arr.Items[1].(ArrayExpr); isArr {
			return false
		}
	}
	return true
}

func allSafeParams(items []Expression) bool {
	for _, it := range items {
		if !isSafeParam(it) {
			return false
		}
	}
	return true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}

func isFinite32(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func sqrtf32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}

func modf32(l, r float32) float32 {
	return float32(math.Mod(float64(l), float64(r)))
}
