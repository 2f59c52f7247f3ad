package schema

// Analysis is the result of stripping modifier wrappers from a node.
type Analysis struct {
	Base       *Node
	Optional   bool
	Nullable   bool
	HasDefault bool
}

// Analyze unwraps Optional, Nullable and Default nodes in any order and
// reports which modifiers were seen. A Default also marks the node optional.
// A Union base with a null member (Null or Literal(nil)) is reported nullable.
// Unwrapping strictly descends, so it always terminates.
func Analyze(n *Node) Analysis {
	var a Analysis
	for n != nil {
		switch n.Kind {
		case KindOptional:
			a.Optional = true
		case KindNullable:
			a.Nullable = true
		case KindDefault:
			a.HasDefault = true
			a.Optional = true
		default:
			a.Base = n
			if n.Kind == KindUnion {
				for _, m := range n.Members {
					if IsNullMember(m) {
						a.Nullable = true
						break
					}
				}
			}
			return a
		}
		n = n.Inner
	}
	return a
}

// IsNullMember reports whether a union member stands for null alone.
func IsNullMember(n *Node) bool {
	if n == nil {
		return false
	}
	return n.Kind == KindNull || (n.Kind == KindLiteral && n.Value == nil)
}

// Unwrap returns the base node with all modifiers stripped.
func Unwrap(n *Node) *Node { return Analyze(n).Base }
