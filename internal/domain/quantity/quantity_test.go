package quantity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd_SameUnit(t *testing.T) {
	a := FromInt64(5, UnitKilogram)
	b := FromInt64(3, UnitKilogram)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Equal(FromInt64(8, UnitKilogram)))
	assert.Equal(t, UnitKilogram, sum.Unit())
}

func TestAdd_UnitMismatch(t *testing.T) {
	a := FromInt64(5, UnitKilogram)
	b := FromInt64(3, UnitEach)

	_, err := a.Add(b)
	assert.ErrorIs(t, err, ErrUnitMismatch)

	_, err = a.Compare(b)
	assert.ErrorIs(t, err, ErrUnitMismatch)
}

func TestAdd_NoneIsIdentity(t *testing.T) {
	q := FromInt64(7, UnitEach)

	sum, err := None.Add(q)
	require.NoError(t, err)
	assert.True(t, sum.Equal(q))
	assert.Equal(t, UnitEach, sum.Unit())

	sum, err = q.Add(None)
	require.NoError(t, err)
	assert.True(t, sum.Equal(q))
	assert.Equal(t, UnitEach, sum.Unit())
}

func TestParse_FractionalPrecision(t *testing.T) {
	a, err := Parse("0.1", UnitKilogram)
	require.NoError(t, err)
	b, err := Parse("0.2", UnitKilogram)
	require.NoError(t, err)

	sum, err := a.Add(b)
	require.NoError(t, err)
	// 0.1 + 0.2 must be exactly 0.3, not 0.30000000000000004.
	assert.Equal(t, "0.3", sum.Amount().String())
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse("not-a-number", UnitEach)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b Quantity
		want int
	}{
		{"less", FromInt64(1, UnitEach), FromInt64(2, UnitEach), -1},
		{"equal", FromInt64(2, UnitEach), FromInt64(2, UnitEach), 0},
		{"greater", FromInt64(3, UnitEach), FromInt64(2, UnitEach), 1},
		{"against none", FromInt64(1, UnitEach), None, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.a.Compare(tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSignPredicates(t *testing.T) {
	neg := New(decimal.NewFromInt(-1), UnitEach)
	zero := FromInt64(0, UnitEach)
	pos := FromInt64(1, UnitEach)

	assert.True(t, neg.IsZeroOrNegative())
	assert.True(t, neg.IsNegative())
	assert.False(t, neg.IsPositive())

	assert.True(t, zero.IsZeroOrNegative())
	assert.False(t, zero.IsNegative())
	assert.False(t, zero.IsPositive())

	assert.False(t, pos.IsZeroOrNegative())
	assert.True(t, pos.IsPositive())
}

func TestString(t *testing.T) {
	assert.Equal(t, "2.5 kg", New(decimal.RequireFromString("2.5"), UnitKilogram).String())
	assert.Equal(t, "0", None.String())
}
