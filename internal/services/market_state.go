package services

import (
	"time"

	"github.com/Jyothika2406/cricket-app/internal/models"
)

// DeriveStatus computes a match's status from its stored status and start
// time. Completed is sticky; otherwise the match is live once started.
func DeriveStatus(m *models.Match, now time.Time) string {
	if m.Status == models.MatchStatusCompleted {
		return models.MatchStatusCompleted
	}
	if !now.Before(m.StartTime) {
		return models.MatchStatusLive
	}
	return models.MatchStatusUpcoming
}

// IsBettingAllowed reports whether bets may be placed on the match
func IsBettingAllowed(m *models.Match, now time.Time) bool {
	return DeriveStatus(m, now) == models.MatchStatusUpcoming && m.StartTime.After(now)
}

// IsEditable reports whether admins may still change or delete the match
func IsEditable(m *models.Match, now time.Time) bool {
	return DeriveStatus(m, now) == models.MatchStatusUpcoming && m.StartTime.After(now)
}
