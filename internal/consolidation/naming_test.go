package consolidation_test

import (
	"context"
	"errors"
	"testing"

	"tokocart/internal/consolidation"
	"tokocart/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingConfirmer struct {
	decision consolidation.Decision
	err      error
	prompts  []string
}

func (r *recordingConfirmer) Confirm(_ context.Context, prompt string) (consolidation.Decision, error) {
	r.prompts = append(r.prompts, prompt)
	return r.decision, r.err
}

func TestResolveName_NoCollisionTrims(t *testing.T) {
	carts := []models.Cart{cart("c1", "Uniforms")}
	confirm := &recordingConfirmer{decision: consolidation.DecisionYes}

	res, err := consolidation.ResolveName(context.Background(), "  Shoes ", carts, "", confirm)

	require.NoError(t, err)
	assert.Equal(t, "Shoes", res.FinalName)
	assert.False(t, res.IsMerge())
	assert.Empty(t, confirm.prompts, "no prompt without a collision")
}

func TestResolveName_WhitespaceOnlyIsEmpty(t *testing.T) {
	confirm := &recordingConfirmer{decision: consolidation.DecisionYes}

	_, err := consolidation.ResolveName(context.Background(), "   ", nil, "", confirm)

	assert.ErrorIs(t, err, consolidation.ErrEmptyName)
	assert.Empty(t, confirm.prompts)
}

func TestResolveName_CollisionMergeDecision(t *testing.T) {
	carts := []models.Cart{cart("c1", "Uniforms", item("p1", 2, 5))}
	confirm := &recordingConfirmer{decision: consolidation.DecisionYes}

	res, err := consolidation.ResolveName(context.Background(), "uniforms ", carts, "", confirm)

	require.NoError(t, err)
	assert.True(t, res.IsMerge())
	assert.Equal(t, "c1", res.MergeTargetID)
	assert.Empty(t, res.FinalName)
	require.Len(t, confirm.prompts, 1)
	assert.Contains(t, confirm.prompts[0], `"Uniforms"`)
}

func TestResolveName_SeparatePicksLowestFreeSuffix(t *testing.T) {
	carts := []models.Cart{cart("c1", "Cart A"), cart("c2", "Cart A (2)")}

	res, err := consolidation.ResolveName(context.Background(), "Cart A", carts, "", consolidation.Always(consolidation.DecisionNo))

	require.NoError(t, err)
	assert.Equal(t, "Cart A (3)", res.FinalName)
}

func TestResolveName_NilConfirmerCreatesSeparate(t *testing.T) {
	carts := []models.Cart{cart("c1", "Cart A"), cart("c3", "cart a (3)")}

	res, err := consolidation.ResolveName(context.Background(), "CART A", carts, "", nil)

	require.NoError(t, err)
	assert.Equal(t, "CART A (2)", res.FinalName)
}

func TestResolveName_DisambiguationIsDeterministic(t *testing.T) {
	carts := []models.Cart{cart("c1", "Box"), cart("c2", "box (2)"), cart("c3", "Box (4)")}

	for i := 0; i < 5; i++ {
		res, err := consolidation.ResolveName(context.Background(), "Box", carts, "", nil)
		require.NoError(t, err)
		assert.Equal(t, "Box (3)", res.FinalName)
	}
}

func TestResolveName_CancelAborts(t *testing.T) {
	carts := []models.Cart{cart("c1", "Cart A")}

	_, err := consolidation.ResolveName(context.Background(), "cart a", carts, "", consolidation.Always(consolidation.DecisionCancel))

	assert.ErrorIs(t, err, consolidation.ErrCancelled)
}

func TestResolveName_ConfirmerErrorIsWrapped(t *testing.T) {
	carts := []models.Cart{cart("c1", "Cart A")}
	boom := errors.New("dialog closed")

	_, err := consolidation.ResolveName(context.Background(), "Cart A", carts, "", &recordingConfirmer{err: boom})

	assert.ErrorIs(t, err, boom)
}

func TestResolveName_RenameToOwnNameIsNotACollision(t *testing.T) {
	carts := []models.Cart{cart("c1", "Uniforms"), cart("c2", "Shoes")}
	confirm := &recordingConfirmer{decision: consolidation.DecisionYes}

	res, err := consolidation.ResolveName(context.Background(), " UNIFORMS", carts, "c1", confirm)

	require.NoError(t, err)
	assert.Equal(t, "UNIFORMS", res.FinalName)
	assert.Empty(t, confirm.prompts)
}

func TestResolveName_ResultNeverCollides(t *testing.T) {
	carts := []models.Cart{
		cart("c1", "Front"),
		cart("c2", "Front (2)"),
		cart("c3", "Front (3)"),
		cart("c4", "Back"),
	}
	for _, desired := range []string{"Front", " front ", "Back", "Side"} {
		res, err := consolidation.ResolveName(context.Background(), desired, carts, "", nil)
		require.NoError(t, err)
		_, collides := consolidation.FindByName(carts, res.FinalName, "")
		assert.False(t, collides, "resolved %q to colliding name %q", desired, res.FinalName)
	}
}
