package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowCount(t *testing.T) {
	// 24 horizontal, 21 vertical, 12 per diagonal direction
	assert.Len(t, windows, 69)
}

func TestCheckWinOrientations(t *testing.T) {
	tests := []struct {
		name string
		rows []string
		want [][2]int
	}{
		{
			name: "horizontal bottom row",
			rows: []string{".......", ".......", ".......", ".......", "222....", "1111..."},
			want: [][2]int{{5, 0}, {5, 1}, {5, 2}, {5, 3}},
		},
		{
			name: "vertical",
			rows: []string{".......", ".......", "1......", "1......", "12.....", "12.2..."},
			want: [][2]int{{2, 0}, {3, 0}, {4, 0}, {5, 0}},
		},
		{
			name: "diagonal down-right",
			rows: []string{".......", ".......", "1......", "21.....", "221....", "2121..."},
			want: [][2]int{{2, 0}, {3, 1}, {4, 2}, {5, 3}},
		},
		{
			name: "diagonal up-right",
			rows: []string{".......", ".......", "...1...", "..12...", ".122...", "1212..."},
			want: [][2]int{{5, 0}, {4, 1}, {3, 2}, {2, 3}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := mustParse(t, tc.rows...)
			assert.True(t, b.CheckWin(PlayerOne))
			assert.False(t, b.CheckWin(PlayerTwo))
			assert.ElementsMatch(t, tc.want, b.WinningLine(PlayerOne))
			assert.True(t, b.IsTerminal())
			assert.Equal(t, WinPlayerOne, b.Outcome())
		})
	}
}

func TestCheckWinThreeIsNotEnough(t *testing.T) {
	boards := [][]string{
		{".......", ".......", ".......", ".......", "22.....", "111...."},
		{".......", ".......", ".......", "1......", "1......", "12.2..."},
		{".......", ".......", ".......", "21.....", "221....", "2121..."},
		{".......", ".......", ".......", "..12...", ".122...", "1212..."},
	}
	for _, rows := range boards {
		b := mustParse(t, rows...)
		assert.False(t, b.CheckWin(PlayerOne), b.String())
		assert.False(t, b.IsTerminal())
		assert.Equal(t, InProgress, b.Outcome())
	}
}

func TestCheckWinPlayerTwo(t *testing.T) {
	b := mustParse(t,
		".......",
		".......",
		".......",
		".......",
		"111....",
		"1222211",
	)
	assert.True(t, b.CheckWin(PlayerTwo))
	assert.False(t, b.CheckWin(PlayerOne))
	assert.Equal(t, WinPlayerTwo, b.Outcome())
	assert.Equal(t, PlayerTwo, b.Outcome().Winner())
}

func TestFullBoardIsTie(t *testing.T) {
	b := mustParse(t,
		"1122112",
		"2211221",
		"1122112",
		"2211221",
		"1122112",
		"2211221",
	)
	assert.False(t, b.CheckWin(PlayerOne))
	assert.False(t, b.CheckWin(PlayerTwo))
	assert.Empty(t, b.LegalColumns())
	assert.True(t, b.IsTerminal())
	assert.Equal(t, Tie, b.Outcome())
	assert.Equal(t, Empty, Tie.Winner())
}

func TestOutcomeText(t *testing.T) {
	data, err := json.Marshal(map[string]Outcome{"o": WinPlayerTwo})
	require.NoError(t, err)
	assert.JSONEq(t, `{"o":"win_player_two"}`, string(data))

	var o Outcome
	require.NoError(t, o.UnmarshalText([]byte("tie")))
	assert.Equal(t, Tie, o)
	assert.Error(t, o.UnmarshalText([]byte("draw")))
	assert.False(t, InProgress.Finished())
	assert.True(t, Tie.Finished())
}
