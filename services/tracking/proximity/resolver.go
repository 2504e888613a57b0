package proximity

import (
	"sort"
	"time"

	"github.com/piresc/tirtha/internal/pkg/models"
	"github.com/piresc/tirtha/internal/utils"
)

// DefaultOnlineThreshold is how recent a sample must be for its actor to count as online
const DefaultOnlineThreshold = 5 * time.Minute

// IsOnline reports whether sample was captured strictly less than threshold before now
func IsOnline(sample *models.LocationSample, now time.Time, threshold time.Duration) bool {
	if sample == nil {
		return false
	}
	return now.UnixMilli()-sample.CapturedAt < threshold.Milliseconds()
}

// Resolve enriches states with their distance from reference and online status.
// With a reference the result is ordered nearest first, entries without a
// position last; otherwise the input order is kept.
func Resolve(states []*models.ActorLocationState, reference *models.GeoPoint, now time.Time, threshold time.Duration) []models.LiveFeedEntry {
	entries := make([]models.LiveFeedEntry, 0, len(states))
	for _, s := range states {
		if s == nil {
			continue
		}
		entry := models.LiveFeedEntry{
			ActorLocationState: *s.Clone(),
			IsOnline:           IsOnline(s.LatestSample, now, threshold),
		}
		if reference != nil && s.LatestSample != nil {
			d := utils.DistanceBetween(*reference, s.LatestSample.Point())
			entry.DistanceFromReferenceMeters = &d
		}
		entries = append(entries, entry)
	}

	if reference != nil {
		sort.SliceStable(entries, func(i, j int) bool {
			di, dj := entries[i].DistanceFromReferenceMeters, entries[j].DistanceFromReferenceMeters
			switch {
			case di == nil:
				return false
			case dj == nil:
				return true
			default:
				return *di < *dj
			}
		})
	}
	return entries
}

// ComputeStats aggregates entries. AverageDistance covers only entries with a
// distance and is 0 when none have one.
func ComputeStats(entries []models.LiveFeedEntry) models.ProximityStats {
	stats := models.ProximityStats{TotalCount: len(entries)}
	var sum float64
	var withDistance int
	for _, e := range entries {
		if e.IsOnline {
			stats.OnlineCount++
		}
		if e.IsTracking {
			stats.TrackingCount++
		}
		if e.DistanceFromReferenceMeters != nil {
			sum += *e.DistanceFromReferenceMeters
			withDistance++
		}
	}
	if withDistance > 0 {
		stats.AverageDistance = sum / float64(withDistance)
	}
	return stats
}
