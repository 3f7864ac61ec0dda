package thread

// Flatten walks a comment tree in pre-order: each comment is followed by its
// whole reply subtree before the next sibling. Stub and unknown nodes are
// dropped together with anything below them.
func Flatten(nodes []Node) []Comment {
	out := []Comment{}
	// Explicit stack of sibling slices; the top holds the remaining
	// siblings at the current depth.
	stack := [][]Node{nodes}
	for len(stack) > 0 {
		top := len(stack) - 1
		if len(stack[top]) == 0 {
			stack = stack[:top]
			continue
		}
		n := stack[top][0]
		stack[top] = stack[top][1:]
		if n.Kind != KindComment {
			continue
		}
		out = append(out, normalizeComment(n.Comment))
		if len(n.Replies) > 0 {
			stack = append(stack, n.Replies)
		}
	}
	return out
}
