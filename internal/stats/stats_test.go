package stats

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)

	assert.Equal(t, 0, s.Total)
	assert.Equal(t, 0.0, s.WinPercentage)
	assert.Equal(t, 0, s.CurrentStreak)
	assert.Nil(t, s.StreakType)
	assert.NotNil(t, s.ChartData)

	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":0,"wins":0,"losses":0,"inconclusive":0,"winPercentage":0,"currentStreak":0,"streakType":null,"chartData":[]}`, string(b))
}

func TestSummarize_Counts(t *testing.T) {
	s := Summarize([]Outcome{
		{Result: Win, Timestamp: at("2024-03-01T10:00:00Z")},
		{Result: Loss, Timestamp: at("2024-03-01T11:00:00Z")},
		{Result: Win, Timestamp: at("2024-03-02T09:00:00Z")},
		{Result: Inconclusive, Timestamp: at("2024-03-02T10:00:00Z")},
	})

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Wins)
	assert.Equal(t, 1, s.Losses)
	assert.Equal(t, 1, s.Inconclusive)
	assert.Equal(t, 50.0, s.WinPercentage)
}

func TestSummarize_WinPercentageRounding(t *testing.T) {
	s := Summarize([]Outcome{
		{Result: Win, Timestamp: at("2024-03-01T10:00:00Z")},
		{Result: Win, Timestamp: at("2024-03-01T11:00:00Z")},
		{Result: Loss, Timestamp: at("2024-03-01T12:00:00Z")},
	})
	assert.Equal(t, 66.7, s.WinPercentage)
}

func TestSummarize_Streak(t *testing.T) {
	win, loss := Win, Loss
	tests := []struct {
		name       string
		newestLast []string
		wantCount  int
		wantType   *string
	}{
		{name: "single win", newestLast: []string{Win}, wantCount: 1, wantType: &win},
		{name: "three losses after a win", newestLast: []string{Win, Loss, Loss, Loss}, wantCount: 3, wantType: &loss},
		{name: "inconclusive inside run is skipped", newestLast: []string{Loss, Win, Inconclusive, Win}, wantCount: 2, wantType: &win},
		{name: "newest inconclusive means no streak", newestLast: []string{Win, Win, Inconclusive}, wantCount: 0, wantType: nil},
		{name: "all wins", newestLast: []string{Win, Win, Win, Win}, wantCount: 4, wantType: &win},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := at("2024-05-01T00:00:00Z")
			var in []Outcome
			for i, r := range tt.newestLast {
				in = append(in, Outcome{Result: r, Timestamp: base.Add(time.Duration(i) * time.Hour)})
			}
			s := Summarize(in)
			assert.Equal(t, tt.wantCount, s.CurrentStreak)
			assert.Equal(t, tt.wantType, s.StreakType)
		})
	}
}

func TestSummarize_ChartData(t *testing.T) {
	// Deliberately unordered input.
	s := Summarize([]Outcome{
		{Result: Loss, Timestamp: at("2024-03-03T08:00:00Z")},
		{Result: Win, Timestamp: at("2024-03-01T10:00:00Z")},
		{Result: Inconclusive, Timestamp: at("2024-03-01T12:00:00Z")},
		{Result: Loss, Timestamp: at("2024-03-01T11:00:00Z")},
		{Result: Win, Timestamp: at("2024-03-03T09:00:00Z")},
		{Result: Win, Timestamp: at("2024-03-03T10:00:00Z")},
	})

	want := []Point{
		{Date: "2024-03-01", Wins: 1, Losses: 1, Total: 3, CumulativeWins: 1, CumulativeLosses: 1, WinRate: 50},
		{Date: "2024-03-03", Wins: 2, Losses: 1, Total: 3, CumulativeWins: 3, CumulativeLosses: 2, WinRate: 60},
	}
	assert.Equal(t, want, s.ChartData)
}

func TestSummarize_ChartWinRateZeroUntilFirstWin(t *testing.T) {
	s := Summarize([]Outcome{
		{Result: Loss, Timestamp: at("2024-03-01T10:00:00Z")},
		{Result: Win, Timestamp: at("2024-03-02T10:00:00Z")},
	})
	require.Len(t, s.ChartData, 2)
	assert.Equal(t, 0.0, s.ChartData[0].WinRate)
	assert.Equal(t, 50.0, s.ChartData[1].WinRate)
}

func TestSummarize_GroupsByUTCDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	s := Summarize([]Outcome{
		{Result: Win, Timestamp: time.Date(2024, 3, 1, 22, 0, 0, 0, loc)}, // 03:00 UTC on the 2nd
	})
	require.Len(t, s.ChartData, 1)
	assert.Equal(t, "2024-03-02", s.ChartData[0].Date)
}
