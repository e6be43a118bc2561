package recommend

import (
	"context"

	"github.com/openbites/bitefinder/internal/domain/venue"
)

// matchingDishes keeps the dishes satisfying every requested dietary flag.
// An all-false filter set keeps everything.
func matchingDishes(dishes []venue.Dish, filters venue.DietaryFilters) []venue.Dish {
	out := make([]venue.Dish, 0, len(dishes))
	for _, d := range dishes {
		if d.Dietary.Satisfies(filters) {
			out = append(out, d)
		}
	}
	return out
}

// dismissedSet loads the venues the user has permanently dismissed. A lookup
// failure degrades to an empty set so one flaky read never fails the whole
// recommendation.
func (s *Service) dismissedSet(ctx context.Context, userID string) map[string]struct{} {
	if userID == "" {
		return map[string]struct{}{}
	}
	ids, err := s.dismissals.DismissedVenueIDs(ctx, userID)
	if err != nil {
		s.logger.Warn("dismissal lookup failed, proceeding without exclusions", "userId", userID, "error", err)
		return map[string]struct{}{}
	}
	if ids == nil {
		ids = map[string]struct{}{}
	}
	return ids
}
