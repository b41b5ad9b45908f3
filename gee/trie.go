package gee

import "strings"

// node is one path segment in the routing trie. Only leaf nodes of a
// registered route carry a non-empty pattern.
type node struct {
	pattern  string
	part     string
	children []*node
	isWild   bool // part starts with ':' or '*'
}

// matchChild returns the first child with exactly this part; used on insert.
func (n *node) matchChild(part string) *node {
	for _, child := range n.children {
		if child.part == part {
			return child
		}
	}
	return nil
}

// matchChildren returns candidate children for lookup, static ones first so
// /sessions/new wins over /sessions/:id.
func (n *node) matchChildren(part string) []*node {
	var static, wild []*node
	for _, child := range n.children {
		switch {
		case child.part == part:
			static = append(static, child)
		case child.isWild:
			wild = append(wild, child)
		}
	}
	return append(static, wild...)
}

func (n *node) insert(pattern string, parts []string, height int) {
	if len(parts) == height {
		n.pattern = pattern
		return
	}
	part := parts[height]
	child := n.matchChild(part)
	if child == nil {
		child = &node{part: part, isWild: part[0] == ':' || part[0] == '*'}
		n.children = append(n.children, child)
	}
	child.insert(pattern, parts, height+1)
}

func (n *node) search(parts []string, height int) *node {
	if len(parts) == height || strings.HasPrefix(n.part, "*") {
		if n.pattern == "" {
			return nil
		}
		return n
	}

	for _, child := range n.matchChildren(parts[height]) {
		if found := child.search(parts, height+1); found != nil {
			return found
		}
	}
	return nil
}
