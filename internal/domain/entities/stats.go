package entities

import "time"

// DailyStats aggregates one user's engagement counters for a single UTC day.
type DailyStats struct {
	Date               string
	CardsGenerated     int
	NewContentPct      float64
	CardsViewed        int
	NewCardsViewed     int
	CategoriesExplored []string
}

// NewDailyStats creates empty stats for a day key.
func NewDailyStats(date string) *DailyStats {
	return &DailyStats{Date: date}
}

// AddCategory records a category as explored, keeping the list duplicate-free.
func (s *DailyStats) AddCategory(category string) {
	if category == "" {
		return
	}
	for _, c := range s.CategoriesExplored {
		if c == category {
			return
		}
	}
	s.CategoriesExplored = append(s.CategoriesExplored, category)
}

// UserStats is the read-only progress summary shown to the user.
type UserStats struct {
	TotalCardsViewed int
	JoinedAt         time.Time
	DaysActive       int
	SeenContentCount int
	Today            DailyStats
}
