package query

// Node is a node of a parsed filter expression.
type Node interface {
	node()
}

// Ref references a named condition ($name).
type Ref struct {
	Name string
	Pos  int
}

// Not negates its operand.
type Not struct {
	X Node
}

// Binary joins two operands with AND or OR.
type Binary struct {
	Op    TokenType
	Left  Node
	Right Node
}

func (*Ref) node()    {}
func (*Not) node()    {}
func (*Binary) node() {}

// Refs returns every reference in n, in source order, duplicates included.
func Refs(n Node) []*Ref {
	var out []*Ref
	var walk func(Node)
	walk = func(n Node) {
		switch x := n.(type) {
		case *Ref:
			out = append(out, x)
		case *Not:
			walk(x.X)
		case *Binary:
			walk(x.Left)
			walk(x.Right)
		}
	}
	walk(n)
	return out
}
