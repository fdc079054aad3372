package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"time"

	"cyclist-energy/internal/energy"
	"cyclist-energy/internal/store"
	"cyclist-energy/internal/strava"
)

// ErrNoPowerData is returned for rides recorded without a power meter
var ErrNoPowerData = errors.New("ride has no power data")

// RideSource is the part of the Strava client used by ride import
type RideSource interface {
	RecentRides(ctx context.Context, n int) ([]strava.Activity, error)
	GetActivity(ctx context.Context, activityID int64) (*strava.Activity, error)
	GetPowerStream(ctx context.Context, activityID int64) (*strava.PowerStream, error)
}

// RideImportService turns Strava power streams into journal input
type RideImportService struct {
	source RideSource
	store  *store.DB
}

// NewRideImportService creates a ride import service
func NewRideImportService(source RideSource, db *store.DB) *RideImportService {
	return &RideImportService{source: source, store: db}
}

// ZoneTime is the time spent in one zone during a ride
type ZoneTime struct {
	Zone    string
	Seconds int
	MeanW   float64
}

// RideImport is a ride bucketed into a profile's zones
type RideImport struct {
	Activity strava.Activity
	Date     time.Time
	Zones    []ZoneTime // in zone order, zones never reached are left out
	Input    energy.DayInput
}

// RecentRides lists the latest rides on the connected Strava account
func (s *RideImportService) RecentRides(ctx context.Context, n int) ([]strava.Activity, error) {
	if n <= 0 {
		n = RecentRidesLimit
	}
	return s.source.RecentRides(ctx, n)
}

// LastImported returns the ID of the most recently imported ride, or 0
func (s *RideImportService) LastImported() (int64, error) {
	v, err := s.store.GetSyncState(store.KeyLastRideImport)
	if err != nil || v == "" {
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}

// MarkImported remembers activityID as the last ride saved to the journal
func (s *RideImportService) MarkImported(activityID int64) error {
	if err := s.store.SetSyncState(store.KeyLastRideImport, strconv.FormatInt(activityID, 10)); err != nil {
		return fmt.Errorf("saving import state: %w", err)
	}
	return nil
}

// ImportRide fetches a ride's power stream and spreads its samples over
// the profile's zones. The result's Input carries whole minutes per zone
// and the measured mean power as a per-day override; it is not saved.
func (s *RideImportService) ImportRide(ctx context.Context, p energy.Profile, activityID int64) (*RideImport, error) {
	activity, err := s.source.GetActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if !activity.IsRide() {
		return nil, fmt.Errorf("activity %d is a %s, not a ride", activityID, activity.SportType)
	}

	stream, err := s.source.GetPowerStream(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if !stream.HasPower() {
		return nil, fmt.Errorf("%w: activity %d", ErrNoPowerData, activityID)
	}

	zones := energy.EnsureFullRecovery(p.Zones)
	times := BucketSamples(zones, stream.Samples(MaxSampleGapSec))

	in := energy.DayInput{
		Minutes:       make(map[string]int),
		WattOverrides: make(map[string]float64),
	}
	for _, zt := range times {
		mins := int(math.Round(float64(zt.Seconds) / SecondsPerMinute))
		// coasting at 0 W did no work; an override of 0 would fall back to the zone mean
		if mins == 0 || zt.MeanW <= 0 {
			continue
		}
		in.Minutes[zt.Zone] = mins
		in.WattOverrides[zt.Zone] = zt.MeanW
	}

	log.Printf("ride import: activity %d for %q, %d samples, %d zones",
		activityID, p.Name, stream.Len(), len(in.Minutes))

	day := activity.StartDateLocal
	return &RideImport{
		Activity: *activity,
		Date:     time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
		Zones:    times,
		Input:    in,
	}, nil
}

// BucketSamples sums sample time and energy per zone. Samples below the
// lowest zone are dropped. Mean power is rounded to 0.1 W.
func BucketSamples(zones []energy.Zone, samples []strava.Sample) []ZoneTime {
	seconds := make([]int, len(zones))
	work := make([]float64, len(zones))

	for _, smp := range samples {
		i, ok := energy.ZoneFor(zones, smp.Watts)
		if !ok {
			continue
		}
		seconds[i] += smp.Seconds
		work[i] += smp.Watts * float64(smp.Seconds)
	}

	var out []ZoneTime
	for i, z := range zones {
		if seconds[i] == 0 {
			continue
		}
		mean := math.Round(work[i]/float64(seconds[i])*10) / 10
		out = append(out, ZoneTime{Zone: z.Name, Seconds: seconds[i], MeanW: mean})
	}
	return out
}

// MergeInputs adds a ride's minutes to an existing day. Overrides from the
// ride win for zones it touched.
func MergeInputs(day energy.DayInput, ride energy.DayInput) energy.DayInput {
	out := energy.DayInput{
		PAL:           day.PAL,
		Minutes:       make(map[string]int, len(day.Minutes)+len(ride.Minutes)),
		WattOverrides: make(map[string]float64, len(day.WattOverrides)+len(ride.WattOverrides)),
	}
	for k, v := range day.Minutes {
		out.Minutes[k] = v
	}
	for k, v := range day.WattOverrides {
		out.WattOverrides[k] = v
	}
	for k, v := range ride.Minutes {
		out.Minutes[k] += v
	}
	for k, v := range ride.WattOverrides {
		out.WattOverrides[k] = v
	}
	return out
}

// InputFromEntry rebuilds the journal input a diary entry was computed from
func InputFromEntry(e energy.DiaryEntry) energy.DayInput {
	in := energy.DayInput{
		PAL:           e.PAL,
		Minutes:       make(map[string]int, len(e.DurationsMin)),
		WattOverrides: make(map[string]float64, len(e.ZoneWOverrides)),
	}
	for k, v := range e.DurationsMin {
		in.Minutes[k] = v
	}
	for k, v := range e.ZoneWOverrides {
		in.WattOverrides[k] = v
	}
	return in
}
