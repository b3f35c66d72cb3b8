package pattern

import "github.com/changemine/patcanon/pkg/codetree"

// ActionKind tags the edit action variants.
type ActionKind int

// Edit action kinds.
const (
	KindInsert ActionKind = iota
	KindDelete
	KindUpdate
	KindMove
)

// String returns the serialized kind name.
func (k ActionKind) String() string {
	switch k {
	case KindInsert:
		return "insert"
	case KindDelete:
		return "delete"
	case KindUpdate:
		return "update"
	case KindMove:
		return "move"
	}

	return "unknown"
}

// Action is one tree-edit operation. During alignment the target and
// parent reference syntax elements; the serializer resolves them to
// canonical vertex IDs through the correspondence map once graph
// extension has made every reference representable.
//
// Field usage per kind: Insert carries Target, Parent, Position; Delete
// carries Target; Update carries Target and Value; Move carries Target,
// Parent, Position.
type Action struct {
	Kind ActionKind

	// Target and Parent are element keys into the sample's syntax trees.
	Target codetree.ElementID
	Parent codetree.ElementID

	// Position is the index among the parent's children for Insert/Move.
	Position int

	// Value is the replacement label for Update.
	Value string

	// Structural identity of the referenced nodes. Actions from
	// independently diffed trees never share element IDs, so sequence
	// merging and the move/update reorder compare these instead.
	TargetType  string
	TargetLabel string
	ParentType  string
	ParentLabel string
}

// StructurallyEqual reports whether two actions denote the same edit on
// nodes of the same type and label, irrespective of which tree the
// elements came from.
func (a Action) StructurallyEqual(b Action) bool {
	return a.Kind == b.Kind &&
		a.TargetType == b.TargetType &&
		a.TargetLabel == b.TargetLabel &&
		a.ParentType == b.ParentType &&
		a.ParentLabel == b.ParentLabel &&
		a.Position == b.Position &&
		a.Value == b.Value
}

// sameNodeIdentity reports whether two actions touch nodes of the same
// structural identity (type plus label). Used by the sequencer's
// move/update ordering rule.
func sameNodeIdentity(a, b Action) bool {
	return a.TargetType == b.TargetType && a.TargetLabel == b.TargetLabel
}
