package registration

import (
	"context"
	"fmt"

	"github.com/itskold/befa/internal/i18n"
)

// EnrichedGroup is the group list entry the form consumes: the stored
// group plus the computed end time, the localized training day and the
// current roster size.
type EnrichedGroup struct {
	ID             string `json:"id"`
	ActivityID     string `json:"activityId"`
	Name           string `json:"name"`
	StartTime      string `json:"startTime"`
	EndTime        string `json:"endTime"`
	Day            string `json:"day"`
	MaxPlayers     int    `json:"maxPlayers"`
	CurrentPlayers int    `json:"currentPlayers"`
}

// GroupsByActivity lists an activity's groups ready for display.
func (s *Service) GroupsByActivity(ctx context.Context, activityID string, lang i18n.Lang) ([]EnrichedGroup, error) {
	activity, err := s.activities.ByID(ctx, activityID)
	if err != nil {
		return nil, fmt.Errorf("load activity: %w", err)
	}
	groups, err := s.groups.ByActivityID(ctx, activityID)
	if err != nil {
		return nil, fmt.Errorf("load groups: %w", err)
	}

	day := ""
	if len(activity.SpecificDays) > 0 {
		day = i18n.DayLabel(activity.SpecificDays[0], lang)
	}

	out := make([]EnrichedGroup, 0, len(groups))
	for _, g := range groups {
		n, err := s.groups.MemberCount(ctx, g.ID)
		if err != nil {
			return nil, fmt.Errorf("count members of %s: %w", g.ID, err)
		}
		out = append(out, EnrichedGroup{
			ID:             g.ID,
			ActivityID:     g.ActivityID,
			Name:           g.Name,
			StartTime:      g.StartTime,
			EndTime:        EndTime(g.StartTime, activity.Duration),
			Day:            day,
			MaxPlayers:     g.MaxPlayers,
			CurrentPlayers: int(n),
		})
	}
	return out, nil
}
