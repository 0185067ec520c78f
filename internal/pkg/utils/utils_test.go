package utils

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/Nevi32/wofuo1/internal/pkg/error_handling"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  alpha  ", "ALPHA"},
		{"Jane   Doe", "JANE DOE"},
		{"\tmixed\nCase ", "MIXED CASE"},
		{"", ""},
		{"ALREADY", "ALREADY"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeName(tt.in))
	}
}

func TestMemberKey_CaseAndSpacingInsensitive(t *testing.T) {
	assert.Equal(t, MemberKey("Alpha", "Jane Doe"), MemberKey(" ALPHA", "jane  doe "))
	assert.NotEqual(t, MemberKey("Alpha", "Jane"), MemberKey("Beta", "Jane"))
}

func TestBorrowerName(t *testing.T) {
	assert.Equal(t, "ALPHA", BorrowerName("alpha", ""))
	assert.Equal(t, "ALPHA - JANE DOE", BorrowerName("alpha", "jane doe"))
}

func TestIDGenerator_StrictlyIncreasingWithinSameMillisecond(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	g := &IDGenerator{now: func() time.Time { return fixed }}

	a := g.Next()
	b := g.Next()
	c := g.Next()
	assert.Equal(t, fixed.UnixMilli(), a)
	assert.Equal(t, a+1, b)
	assert.Equal(t, b+1, c)
}

func TestIDGenerator_ClockGoingBackwards(t *testing.T) {
	now := time.UnixMilli(2_000)
	g := &IDGenerator{now: func() time.Time { return now }}
	first := g.Next()
	now = time.UnixMilli(1_000)
	assert.Greater(t, g.Next(), first)
}

func TestIDGenerator_Observe(t *testing.T) {
	g := &IDGenerator{now: func() time.Time { return time.UnixMilli(10) }}
	g.Observe(500)
	assert.Equal(t, int64(501), g.Next())
	g.Observe(5)
	assert.Equal(t, int64(502), g.Next())
}

func TestIDGenerator_Concurrent(t *testing.T) {
	g := NewIDGenerator()
	const n = 200
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- g.Next()
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int64]struct{}{}
	for id := range ids {
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %d", id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, n)
}

func TestNewRowID_Unique(t *testing.T) {
	assert.NotEqual(t, NewRowID(), NewRowID())
	assert.Len(t, NewRowID(), 36)
}

func TestParseAmount(t *testing.T) {
	v, err := ParseAmount("amount", " 1500.50 ")
	require.NoError(t, err)
	assert.Equal(t, 1500.5, v)

	_, err = ParseAmount("amount", "abc")
	assert.True(t, error_handling.IsValidation(err))
}

func TestValidatePositiveAmount(t *testing.T) {
	assert.NoError(t, ValidatePositiveAmount("amount", 0.01))
	for _, bad := range []float64{0, -1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.True(t, error_handling.IsValidation(ValidatePositiveAmount("amount", bad)), "value %v", bad)
	}
}

func TestValidateNonNegativeAmount(t *testing.T) {
	assert.NoError(t, ValidateNonNegativeAmount("interest", 0))
	assert.True(t, error_handling.IsValidation(ValidateNonNegativeAmount("interest", -0.5)))
	assert.True(t, error_handling.IsValidation(ValidateNonNegativeAmount("interest", math.NaN())))
}

func TestAddAmounts(t *testing.T) {
	assert.Equal(t, 0.3, AddAmounts(0.1, 0.2))
	assert.Equal(t, 99.7, AddAmounts(100, -0.3))
	assert.Equal(t, 0.0, AddAmounts(250.5, -250.5))
}

func TestValidateStruct(t *testing.T) {
	type payload struct {
		FullName string  `validate:"required"`
		Fee      float64 `validate:"gte=0"`
	}

	assert.NoError(t, ValidateStruct(payload{FullName: "JANE"}))

	err := ValidateStruct(payload{Fee: 10})
	var verr *error_handling.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "fullName", verr.Field)

	err = ValidateStruct(payload{FullName: "JANE", Fee: -1})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "fee", verr.Field)
}
