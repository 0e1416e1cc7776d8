package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulDiv(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c uint64
		want    uint64
		wantErr error
	}{
		{name: "half", a: 100_000, b: 5000, c: 10000, want: 50_000},
		{name: "floors", a: 3, b: 1, c: 2, want: 1},
		{name: "wide intermediate", a: math.MaxUint64, b: 10000, c: 10000, want: math.MaxUint64},
		{name: "divide by zero", a: 1, b: 1, c: 0, wantErr: ErrDivisionByZero},
		{name: "overflow", a: math.MaxUint64, b: 2, c: 1, wantErr: ErrOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MulDiv(tt.a, tt.b, tt.c)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProRata(t *testing.T) {
	got, err := ProRata(200_000, 100, 100_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), got)

	_, err = ProRata(1, 1, 0)
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestMinimumOut(t *testing.T) {
	got, err := MinimumOut(1000, 500)
	require.NoError(t, err)
	assert.Equal(t, uint64(950), got)

	got, err = MinimumOut(1000, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), got)

	_, err = MinimumOut(1000, 10001)
	assert.ErrorIs(t, err, ErrInvalidBasisPts)
}

func TestCheckedAdd(t *testing.T) {
	got, err := CheckedAdd(1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), got)

	_, err = CheckedAdd(math.MaxUint64, 1)
	assert.ErrorIs(t, err, ErrOverflow)
}
