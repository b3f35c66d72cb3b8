package pattern

import (
	"context"
	"fmt"

	"github.com/changemine/patcanon/internal/sample"
	"github.com/changemine/patcanon/pkg/alg/lcs"
	"github.com/changemine/patcanon/pkg/alg/treediff"
	"github.com/changemine/patcanon/pkg/codetree"
)

// Align computes one edit-action sequence per sample pair and reduces
// them to the canonical sequence: a left-to-right fold replacing the
// accumulator with its longest common subsequence against the next
// sample's sequence, under structural action equality. Actions common to
// all samples are the ones that generalize; sample-specific noise drops
// out of the fold.
//
// The first sample's trees are cached on the context; the canonical
// actions reference their elements.
func (c *Context) Align(ctx context.Context, samples []*sample.Sample) error {
	if len(samples) == 0 {
		return fmt.Errorf("pattern %s: %w", c.Name, sample.ErrNoSampleFound)
	}

	var merged []Action

	for i, s := range samples {
		before, err := codetree.Parse(ctx, s.Before, s.Language)
		if err != nil {
			return fmt.Errorf("pattern %s sample %s: %w", c.Name, s.Name, err)
		}

		after, err := codetree.Parse(ctx, s.After, s.Language)
		if err != nil {
			return fmt.Errorf("pattern %s sample %s: %w", c.Name, s.Name, err)
		}

		if i == 0 {
			c.BeforeTree = before
			c.AfterTree = after
		}

		script := editScript(before, after, treediff.Match(before, after))

		if i == 0 {
			merged = script

			continue
		}

		merged = lcs.Longest(merged, script, Action.StructurallyEqual)
	}

	c.Actions = merged
	c.SampleCount = len(samples)

	return nil
}

// editScript realizes the before→after transformation implied by the
// node correspondence. Emission order is fixed: inserts in after
// pre-order, updates then moves in before pre-order, deletes in before
// post-order. The sequencer later repairs the one hazard this order
// permits, an update preceding a move of the same node identity.
func editScript(before, after *codetree.Tree, m *treediff.Mapping) []Action {
	var script []Action

	after.Root.PreOrder(func(n *codetree.Node) {
		if _, ok := m.Before(n); ok || n.Parent == nil {
			return
		}

		script = append(script, insertAction(n, m))
	})

	before.Root.PreOrder(func(n *codetree.Node) {
		mapped, ok := m.After(n)
		if !ok || !n.IsLeaf() || n.Label == mapped.Label {
			return
		}

		script = append(script, Action{
			Kind:        KindUpdate,
			Target:      n.ID,
			Value:       mapped.Label,
			TargetType:  n.Type,
			TargetLabel: n.Label,
		})
	})

	before.Root.PreOrder(func(n *codetree.Node) {
		if action, ok := moveAction(n, m); ok {
			script = append(script, action)
		}
	})

	before.Root.PostOrder(func(n *codetree.Node) {
		if _, ok := m.After(n); ok {
			return
		}

		script = append(script, Action{
			Kind:        KindDelete,
			Target:      n.ID,
			TargetType:  n.Type,
			TargetLabel: n.Label,
		})
	})

	return script
}

// insertAction builds the insert for an after-node with no before
// counterpart. The parent is referenced through its before counterpart
// when one exists, so that inserts hang off elements the pattern graph
// can represent.
func insertAction(n *codetree.Node, m *treediff.Mapping) Action {
	parent := n.Parent

	parentElement := parent.ID
	if b, ok := m.Before(parent); ok {
		parentElement = b.ID
	}

	return Action{
		Kind:        KindInsert,
		Target:      n.ID,
		Parent:      parentElement,
		Position:    n.Position(),
		TargetType:  n.Type,
		TargetLabel: n.Label,
		ParentType:  parent.Type,
		ParentLabel: parent.Label,
	}
}

// moveAction reports whether the mapped pair for n changed parent or
// position, and builds the move when it did.
func moveAction(n *codetree.Node, m *treediff.Mapping) (Action, bool) {
	mapped, ok := m.After(n)
	if !ok || n.Parent == nil || mapped.Parent == nil {
		return Action{}, false
	}

	mappedParent, parentMapped := m.After(n.Parent)
	sameParent := parentMapped && mappedParent == mapped.Parent

	if sameParent && n.Position() == mapped.Position() {
		return Action{}, false
	}

	parentElement := mapped.Parent.ID
	if b, ok := m.Before(mapped.Parent); ok {
		parentElement = b.ID
	}

	return Action{
		Kind:        KindMove,
		Target:      n.ID,
		Parent:      parentElement,
		Position:    mapped.Position(),
		TargetType:  n.Type,
		TargetLabel: n.Label,
		ParentType:  mapped.Parent.Type,
		ParentLabel: mapped.Parent.Label,
	}, true
}
