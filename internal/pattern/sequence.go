package pattern

// Sequence reorders the canonical actions in place so that no update on a
// node precedes a move of a node with the same structural identity.
// Applying the update first would move an already-updated node, and
// downstream consumers index move actions by pre-update identity; moving
// first keeps that identity stable for the subsequent update.
func (c *Context) Sequence() {
	for i, a := range c.Actions {
		if a.Kind != KindUpdate {
			continue
		}

		for j := i + 1; j < len(c.Actions); j++ {
			b := c.Actions[j]
			if b.Kind == KindMove && sameNodeIdentity(a, b) {
				c.Actions[i], c.Actions[j] = c.Actions[j], c.Actions[i]

				break
			}
		}
	}
}
