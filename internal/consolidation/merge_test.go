package consolidation_test

import (
	"errors"
	"testing"
	"time"

	"tokocart/internal/consolidation"
	"tokocart/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_AppendsSourceItemsAndRemovesSource(t *testing.T) {
	target := cart("t", "Uniforms", item("p1", 2, 5), item("p2", 1, 3))
	source := cart("s", "uniforms 2", item("p1", 1, 5), item("p9", 4, 0.25))
	other := cart("o", "Shoes", item("p7", 1, 40))
	carts := []models.Cart{target, source, other}
	by := consolidation.Actor{Name: "bob", At: later}

	out, err := consolidation.Merge(carts, "s", "t", by)
	require.NoError(t, err)

	assert.Equal(t, []string{"t", "o"}, ids(out))
	merged := out[0]
	require.Len(t, merged.Items, 4)
	assert.Equal(t, []string{"p1", "p2", "p1", "p9"}, []string{
		merged.Items[0].ProductID, merged.Items[1].ProductID, merged.Items[2].ProductID, merged.Items[3].ProductID,
	})
	assert.InDelta(t, 10+3+5+1, merged.Total, 1e-9)
	assert.InDelta(t, sumLines(merged), merged.Total, 1e-9)
	assert.True(t, merged.NeedsReprint)
	assert.Equal(t, "bob", merged.LastModifiedBy)
	assert.Equal(t, later, merged.LastModifiedAt)
	assert.Equal(t, created, merged.CreatedAt)
	assert.Equal(t, "alice", merged.CreatedBy)

	for _, it := range merged.Items[:2] {
		assert.Empty(t, it.EditedBy, "target items keep their stamps")
		assert.Nil(t, it.EditedAt)
	}
	for _, it := range merged.Items[2:] {
		assert.Equal(t, "bob", it.EditedBy)
		require.NotNil(t, it.EditedAt)
		assert.Equal(t, later, *it.EditedAt)
		assert.Equal(t, "alice", it.AddedBy)
		assert.Equal(t, created, it.AddedAt)
	}
}

func TestMerge_ConservesItemCount(t *testing.T) {
	carts := []models.Cart{
		cart("a", "A", products(1, 4)...),
		cart("b", "B", products(3, 9)...),
		cart("c", "C", products(1, 2)...),
	}
	before := 0
	for _, c := range carts {
		before += len(c.Items)
	}

	out, err := consolidation.Merge(carts, "a", "c", consolidation.Actor{Name: "bob", At: later})
	require.NoError(t, err)

	after := 0
	for _, c := range out {
		after += len(c.Items)
		assert.InDelta(t, sumLines(c), c.Total, 1e-9)
	}
	assert.Equal(t, before, after)
	merged, err := consolidation.Find(out, "c")
	require.NoError(t, err)
	assert.Len(t, merged.Items, 2+4)
	_, err = consolidation.Find(out, "a")
	assert.ErrorIs(t, err, consolidation.ErrCartNotFound)
}

func TestMerge_SelfMergeAlwaysRejected(t *testing.T) {
	sets := [][]models.Cart{
		nil,
		{cart("x", "X", item("p1", 1, 1))},
		{cart("y", "Y")},
	}
	for _, carts := range sets {
		_, err := consolidation.Merge(carts, "x", "x", consolidation.Actor{Name: "bob", At: later})
		assert.ErrorIs(t, err, consolidation.ErrSelfMerge)
	}
}

func TestMerge_MissingCart(t *testing.T) {
	carts := []models.Cart{cart("a", "A"), cart("b", "B")}

	_, err := consolidation.Merge(carts, "ghost", "b", consolidation.Actor{Name: "bob", At: later})
	assert.ErrorIs(t, err, consolidation.ErrCartNotFound)
	var nf *consolidation.CartNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "ghost", nf.CartID)

	_, err = consolidation.Merge(carts, "a", "ghost", consolidation.Actor{Name: "bob", At: later})
	assert.ErrorIs(t, err, consolidation.ErrCartNotFound)
}

func TestMerge_EmptySourceStillStampsTarget(t *testing.T) {
	carts := []models.Cart{cart("t", "Main", item("p1", 2, 5)), cart("s", "Main (2)")}

	out, err := consolidation.Merge(carts, "s", "t", consolidation.Actor{Name: "bob", At: later})
	require.NoError(t, err)

	require.Len(t, out, 1)
	assert.Len(t, out[0].Items, 1)
	assert.InDelta(t, 10, out[0].Total, 1e-9)
	assert.True(t, out[0].NeedsReprint)
	assert.Equal(t, "bob", out[0].LastModifiedBy)
}

func TestMerge_DoesNotMutateInput(t *testing.T) {
	carts := []models.Cart{cart("t", "T", item("p1", 1, 1)), cart("s", "S", item("p2", 1, 1))}
	before := models.CloneCarts(carts)

	out, err := consolidation.Merge(carts, "s", "t", consolidation.Actor{Name: "bob", At: later})
	require.NoError(t, err)
	out[0].Items[0].Quantity = 50

	assert.Equal(t, before, carts)
}

func TestMerge_RestampsPreviouslyEditedSourceItems(t *testing.T) {
	earlier := created.Add(15 * time.Minute)
	edited := item("p2", 1, 1)
	edited.EditedBy = "carol"
	edited.EditedAt = &earlier
	carts := []models.Cart{cart("t", "T", item("p1", 1, 1)), cart("s", "S", edited)}

	out, err := consolidation.Merge(carts, "s", "t", consolidation.Actor{Name: "bob", At: later})
	require.NoError(t, err)

	moved := out[0].Items[1]
	assert.Equal(t, "bob", moved.EditedBy)
	require.NotNil(t, moved.EditedAt)
	assert.Equal(t, later, *moved.EditedAt)
	assert.NotSame(t, carts[1].Items[0].EditedAt, moved.EditedAt)
	assert.Equal(t, earlier, *carts[1].Items[0].EditedAt)
	assert.Equal(t, "carol", carts[1].Items[0].EditedBy)
}

func TestDescribe(t *testing.T) {
	pErr := &consolidation.PersistenceError{OrderID: "o1", SourceID: "s", TargetID: "t", Err: errors.New("disk full")}

	assert.Contains(t, pErr.Error(), "disk full")
	assert.Contains(t, pErr.Error(), "o1")
	assert.ErrorIs(t, pErr, consolidation.ErrPersistence)
	assert.Equal(t, "Could not save carts: disk full", consolidation.Describe(pErr))
	assert.Contains(t, consolidation.Describe(&consolidation.CartNotFoundError{CartID: "x"}), "not found")
	assert.Equal(t, "Please enter a cart name.", consolidation.Describe(consolidation.ErrEmptyName))
	assert.Empty(t, consolidation.Describe(nil))
}
