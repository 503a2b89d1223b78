package billing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/utility-bill-sync/pkg/money"
)

func TestNewRecord(t *testing.T) {
	a := NewRecord()
	b := NewRecord()

	assert.Equal(t, 7, int(a.ID.Version()))
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.CreatedAt.IsZero())
	assert.Nil(t, a.UpdatedAt)
	assert.False(t, a.IsDeleted())
}

func TestRecord_Delete(t *testing.T) {
	r := NewRecord()
	r.Delete()
	require.True(t, r.IsDeleted())
	first := *r.DeletedAt

	r.Delete()
	assert.Equal(t, first, *r.DeletedAt)
	assert.NotNil(t, r.UpdatedAt)
}

func TestPatch_Apply(t *testing.T) {
	ref, _ := NewReferenceMonth(8, 2025)
	amount := money.FromMinorUnits(1000)

	t.Run("empty patch keeps values", func(t *testing.T) {
		p := Patch{}
		assert.True(t, p.IsEmpty())
		gotRef, gotAmount, err := p.Apply(ref, amount)
		require.NoError(t, err)
		assert.Equal(t, ref, gotRef)
		assert.True(t, amount.Equal(gotAmount))
	})

	t.Run("both fields", func(t *testing.T) {
		newRef := "09/2025"
		gotRef, gotAmount, err := Patch{Reference: &newRef, Amount: "R$ 42,20"}.Apply(ref, amount)
		require.NoError(t, err)
		assert.Equal(t, "09/2025", gotRef.String())
		assert.Equal(t, int64(4220), gotAmount.MinorUnits())
	})

	t.Run("invalid reference", func(t *testing.T) {
		bad := "2025-09"
		_, _, err := Patch{Reference: &bad}.Apply(ref, amount)
		assert.ErrorIs(t, err, ErrInvalidReference)
	})

	t.Run("invalid amount", func(t *testing.T) {
		_, _, err := Patch{Amount: "abc"}.Apply(ref, amount)
		assert.ErrorIs(t, err, money.ErrInvalidAmount)
	})
}

func TestPatch_ApplyNonFiniteAmount(t *testing.T) {
	ref, err := NewReferenceMonth(9, 2025)
	require.NoError(t, err)
	amount := money.FromMinorUnits(100)

	for _, v := range []any{math.NaN(), math.Inf(1), float32(math.Inf(-1))} {
		gotRef, gotAmount, err := Patch{Amount: v}.Apply(ref, amount)
		assert.ErrorIs(t, err, money.ErrInvalidAmount)
		assert.Equal(t, ref, gotRef)
		assert.True(t, gotAmount.Equal(amount))
	}
}

func TestDescribe(t *testing.T) {
	ref, _ := NewReferenceMonth(9, 2025)
	assert.Equal(t, "Electric bill 09/2025: R$ 42.20", Describe("Electric", ref, money.FromMinorUnits(4220)))
}

func TestListParams_Validate(t *testing.T) {
	assert.NoError(t, DefaultListParams().Validate())
	assert.ErrorIs(t, ListParams{Offset: -1, Limit: 10}.Validate(), ErrInvalidListParams)
	assert.ErrorIs(t, ListParams{Limit: 0}.Validate(), ErrInvalidListParams)
	assert.ErrorIs(t, ListParams{Limit: 201}.Validate(), ErrInvalidListParams)
	assert.NoError(t, ListParams{Limit: 200}.Validate())
}
