package purchase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgsAmount(t *testing.T) {
	sel, err := ParseArgs([]string{"3000"}, Selection{})
	require.NoError(t, err)
	assert.Equal(t, Auto(3), sel)
	assert.Equal(t, 3000, sel.ExpectedCost(UnitPrice))

	sel, err = ParseArgs([]string{"5,000"}, Selection{})
	require.NoError(t, err)
	assert.Equal(t, 5, sel.Auto)
}

func TestParseArgsManualNumbersAreSorted(t *testing.T) {
	sel, err := ParseArgs([]string{"6", "5", "4", "3", "2", "1"}, Selection{})

	require.NoError(t, err)
	assert.Equal(t, Manual([]int{1, 2, 3, 4, 5, 6}), sel)
	assert.Equal(t, 1, sel.TotalGames())
}

func TestParseArgsRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"duplicate number", []string{"1", "1", "2", "3", "4", "5"}},
		{"number above range", []string{"1", "2", "3", "4", "5", "46"}},
		{"zero", []string{"0", "2", "3", "4", "5", "6"}},
		{"not a number", []string{"1", "2", "3", "4", "5", "x"}},
		{"amount not multiple", []string{"1500"}},
		{"amount too large", []string{"6000"}},
		{"amount garbage", []string{"abc"}},
		{"two args", []string{"1000", "2000"}},
		{"five args", []string{"1", "2", "3", "4", "5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArgs(tt.args, Selection{})
			var usage *UsageError
			assert.ErrorAs(t, err, &usage)
		})
	}
}

func TestParseArgsDefaults(t *testing.T) {
	sel, err := ParseArgs(nil, Selection{Auto: 2, Manual: [][]int{{45, 1, 2, 3, 4, 5}}})
	require.NoError(t, err)
	assert.Equal(t, 2, sel.Auto)
	assert.Equal(t, [][]int{{1, 2, 3, 4, 5, 45}}, sel.Manual)
	assert.Equal(t, 3000, sel.ExpectedCost(UnitPrice))

	_, err = ParseArgs(nil, Selection{})
	var usage *UsageError
	assert.ErrorAs(t, err, &usage)

	_, err = ParseArgs(nil, Selection{Auto: 5, Manual: [][]int{{1, 2, 3, 4, 5, 6}}})
	assert.ErrorAs(t, err, &usage)
}

func TestExpectedCostMatchesGameCount(t *testing.T) {
	for games := 1; games <= MaxGames; games++ {
		assert.Equal(t, games*UnitPrice, Auto(games).ExpectedCost(UnitPrice))
	}
}

func TestVerifyCost(t *testing.T) {
	assert.NoError(t, VerifyCost(3000, "3,000원"))

	err := VerifyCost(3000, "2,000원")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3000")

	assert.Error(t, VerifyCost(1000, ""))
}
