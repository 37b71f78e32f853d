// Package stats aggregates match results into the dashboard summary.
package stats

import (
	"math"
	"sort"
	"time"
)

// Result values as stored.
const (
	Win          = "win"
	Loss         = "loss"
	Inconclusive = "inconclusive"
)

// Outcome is the part of a match the aggregation looks at.
type Outcome struct {
	Result    string
	Timestamp time.Time
}

// Point is one day of chart data.
type Point struct {
	Date             string  `json:"date"`
	Wins             int     `json:"wins"`
	Losses           int     `json:"losses"`
	Total            int     `json:"total"`
	CumulativeWins   int     `json:"cumulativeWins"`
	CumulativeLosses int     `json:"cumulativeLosses"`
	WinRate          float64 `json:"winRate"`
}

// Summary is the /stats response body.
type Summary struct {
	Total         int     `json:"total"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	Inconclusive  int     `json:"inconclusive"`
	WinPercentage float64 `json:"winPercentage"`
	CurrentStreak int     `json:"currentStreak"`
	StreakType    *string `json:"streakType"`
	ChartData     []Point `json:"chartData"`
}

// Summarize computes the summary. Input order does not matter.
func Summarize(outcomes []Outcome) Summary {
	sorted := make([]Outcome, len(outcomes))
	copy(sorted, outcomes)
	// newest first
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	s := Summary{Total: len(sorted), ChartData: []Point{}}
	for _, o := range sorted {
		switch o.Result {
		case Win:
			s.Wins++
		case Loss:
			s.Losses++
		case Inconclusive:
			s.Inconclusive++
		}
	}
	if s.Total > 0 {
		s.WinPercentage = percent(s.Wins, s.Total)
	}

	s.CurrentStreak, s.StreakType = streak(sorted)
	s.ChartData = chart(sorted)
	return s
}

// streak counts the run of the newest decisive result. Inconclusive matches
// inside the run are skipped; a newest inconclusive match means no streak.
func streak(newestFirst []Outcome) (int, *string) {
	if len(newestFirst) == 0 {
		return 0, nil
	}
	first := newestFirst[0].Result
	if first != Win && first != Loss {
		return 0, nil
	}
	n := 0
	for _, o := range newestFirst {
		if o.Result == first {
			n++
		} else if o.Result != Inconclusive {
			break
		}
	}
	return n, &first
}

func chart(newestFirst []Outcome) []Point {
	points := []Point{}
	index := map[string]int{}
	for i := len(newestFirst) - 1; i >= 0; i-- {
		o := newestFirst[i]
		day := o.Timestamp.UTC().Format(time.DateOnly)
		idx, ok := index[day]
		if !ok {
			points = append(points, Point{Date: day})
			idx = len(points) - 1
			index[day] = idx
		}
		p := &points[idx]
		p.Total++
		switch o.Result {
		case Win:
			p.Wins++
		case Loss:
			p.Losses++
		}
	}

	var wins, losses int
	for i := range points {
		wins += points[i].Wins
		losses += points[i].Losses
		points[i].CumulativeWins = wins
		points[i].CumulativeLosses = losses
		if wins > 0 {
			points[i].WinRate = percent(wins, wins+losses)
		}
	}
	return points
}

func percent(part, whole int) float64 {
	return math.Round(float64(part)/float64(whole)*1000) / 10
}
