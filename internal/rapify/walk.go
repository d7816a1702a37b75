package rapify

// Walk returns every Class and Property node reachable from c, in a
// deterministic pre-order traversal, boxed as `any` so a lint.Registry
// can dispatch each one by its concrete type (spec §4.J).
func Walk(c *Class) []any {
	var out []any
	walkClass(c, &out)
	return out
}

func walkClass(c *Class, out *[]any) {
	if c == nil {
		return
	}
	*out = append(*out, c)
	for _, p := range c.Body {
		*out = append(*out, p)
		if cp, ok := p.(ClassProperty); ok {
			walkClass(cp.Class, out)
		}
	}
}
