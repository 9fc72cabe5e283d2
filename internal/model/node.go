package model

// ObjectType is the kind of document a wiki node points to.
type ObjectType string

// Object types returned by the wiki node listing API.
const (
	ObjectTypeDoc      ObjectType = "doc"
	ObjectTypeDocx     ObjectType = "docx"
	ObjectTypeSheet    ObjectType = "sheet"
	ObjectTypeBitable  ObjectType = "bitable"
	ObjectTypeMindnote ObjectType = "mindnote"
	ObjectTypeFile     ObjectType = "file"
	ObjectTypeSlides   ObjectType = "slides"
)

// String returns the wire representation of the object type.
func (t ObjectType) String() string {
	return string(t)
}

// TreeNode is one node of the wiki space hierarchy.
//
// Nodes are created by the crawler when a listing page entry is received.
// Children are attached once, in listing order, after every child subtree
// has been fully discovered; nothing mutates a node afterwards.
type TreeNode struct {
	// Title is the human-readable node title.
	Title string `json:"title"`

	// ObjToken identifies the underlying document. Export jobs are
	// submitted for this token.
	ObjToken string `json:"obj_token"`

	// ObjType is the kind of the underlying document.
	ObjType ObjectType `json:"obj_type"`

	// NodeToken identifies the node inside the wiki tree. It is the
	// parent token used when listing this node's children.
	NodeToken string `json:"node_token"`

	// Level is the nesting level. Children of the space root are level 1.
	Level int `json:"level"`

	// Index is the node's position in the flattened discovery sequence.
	// It is assigned once by Tree.AssignIndices and names the exported file.
	Index int `json:"index"`

	// Children are the direct children in listing order.
	Children []*TreeNode `json:"children,omitempty"`

	// parent is a non-owning back reference, never used for traversal.
	parent *TreeNode
}

// NewTreeNode creates a node as a child of parent. The level is derived
// from the parent; a nil parent yields a level 1 node.
func NewTreeNode(parent *TreeNode, title, objToken string, objType ObjectType, nodeToken string) *TreeNode {
	level := 1
	if parent != nil {
		level = parent.Level + 1
	}
	return &TreeNode{
		Title:     title,
		ObjToken:  objToken,
		ObjType:   objType,
		NodeToken: nodeToken,
		Level:     level,
		parent:    parent,
	}
}

// Parent returns the parent node, or nil for the implicit root.
func (n *TreeNode) Parent() *TreeNode {
	return n.parent
}

// IsRoot reports whether n is the implicit space root.
func (n *TreeNode) IsRoot() bool {
	return n.Level == 0
}

// Path returns the titles from the first level down to n, for log context.
func (n *TreeNode) Path() []string {
	var titles []string
	for cur := n; cur != nil && !cur.IsRoot(); cur = cur.parent {
		titles = append([]string{cur.Title}, titles...)
	}
	return titles
}

// Tree is the discovered hierarchy of one wiki space.
type Tree struct {
	// SpaceID is the crawled space.
	SpaceID string `json:"space_id"`

	// Root is the implicit level 0 node whose children are the top-level
	// nodes of the space. It has no tokens.
	Root *TreeNode `json:"root"`
}

// NewTree creates an empty tree for spaceID.
func NewTree(spaceID string) *Tree {
	return &Tree{
		SpaceID: spaceID,
		Root:    &TreeNode{Title: "root", Level: 0},
	}
}

// Nodes returns the flattened discovery sequence: depth-first, parent
// before children, siblings in listing order. The implicit root is not
// included. Nodes does not modify the tree.
func (t *Tree) Nodes() []*TreeNode {
	nodes := make([]*TreeNode, 0)
	var walk func(n *TreeNode)
	walk = func(n *TreeNode) {
		for _, child := range n.Children {
			nodes = append(nodes, child)
			walk(child)
		}
	}
	walk(t.Root)
	return nodes
}

// AssignIndices sets every node's Index to its position in Nodes. The
// crawler calls it once, after the whole tree has been attached.
func (t *Tree) AssignIndices() {
	for i, n := range t.Nodes() {
		n.Index = i
	}
}

// Len returns the number of nodes excluding the implicit root.
func (t *Tree) Len() int {
	count := 0
	var walk func(n *TreeNode)
	walk = func(n *TreeNode) {
		for _, child := range n.Children {
			count++
			walk(child)
		}
	}
	walk(t.Root)
	return count
}
