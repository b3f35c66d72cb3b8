package pattern

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/changemine/patcanon/internal/sample"
	"github.com/changemine/patcanon/pkg/codetree"
)

func pySample(name, before, after string) *sample.Sample {
	return &sample.Sample{
		Name:     name,
		Before:   []byte(before),
		After:    []byte(after),
		Language: codetree.LangPython,
	}
}

func TestAlignSingleSampleRename(t *testing.T) {
	t.Parallel()

	c := NewContext("p")
	err := c.Align(context.Background(), []*sample.Sample{
		pySample("sample-1", "x = obj.size", "x = obj.length"),
	})
	require.NoError(t, err)

	require.NotNil(t, c.BeforeTree)
	require.NotNil(t, c.AfterTree)
	assert.Equal(t, 1, c.SampleCount)

	var updates []Action

	for _, a := range c.Actions {
		if a.Kind == KindUpdate {
			updates = append(updates, a)
		}
	}

	require.Len(t, updates, 1)
	assert.Equal(t, "size", updates[0].TargetLabel)
	assert.Equal(t, "length", updates[0].Value)

	// The update must reference an element of the cached before tree.
	_, ok := c.BeforeTree.Element(updates[0].Target)
	assert.True(t, ok)
}

func TestAlignMergeDropsSampleSpecificActions(t *testing.T) {
	t.Parallel()

	c := NewContext("p")
	err := c.Align(context.Background(), []*sample.Sample{
		pySample("sample-1", "x = obj.size", "x = obj.length"),
		pySample("sample-2", "y = obj.size\nz = 1", "y = obj.length\nz = 2"),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, c.SampleCount)

	// The second sample's extra rename (1 -> 2) is noise the fold drops;
	// the shared attribute rename survives.
	var updates []Action

	for _, a := range c.Actions {
		require.Equal(t, KindUpdate, a.Kind)
		updates = append(updates, a)
	}

	require.Len(t, updates, 1)
	assert.Equal(t, "size", updates[0].TargetLabel)
	assert.Equal(t, "length", updates[0].Value)
}

func TestAlignActionsReferenceFirstSampleTrees(t *testing.T) {
	t.Parallel()

	c := NewContext("p")
	err := c.Align(context.Background(), []*sample.Sample{
		pySample("sample-1", "x = obj.size", "x = obj.length"),
		pySample("sample-2", "y = obj.size", "y = obj.length"),
	})
	require.NoError(t, err)

	for _, a := range c.Actions {
		_, inBefore := c.BeforeTree.Element(a.Target)
		_, inAfter := c.AfterTree.Element(a.Target)
		assert.True(t, inBefore || inAfter, "action target %d from a later sample's tree", a.Target)
	}
}

func TestAlignEmitsInsertForAddedStatement(t *testing.T) {
	t.Parallel()

	c := NewContext("p")
	err := c.Align(context.Background(), []*sample.Sample{
		pySample("sample-1", "x = 1", "x = 1\nlog(x)"),
	})
	require.NoError(t, err)

	var inserted bool

	for _, a := range c.Actions {
		if a.Kind == KindInsert {
			inserted = true
		}
	}

	assert.True(t, inserted)
}

func TestAlignNoSamples(t *testing.T) {
	t.Parallel()

	c := NewContext("p")
	require.ErrorIs(t, c.Align(context.Background(), nil), sample.ErrNoSampleFound)
}
