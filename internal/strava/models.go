package strava

import (
	"slices"
	"time"
)

// rideTypes are the sport types that can carry a power meter stream
var rideTypes = []string{
	"Ride", "VirtualRide", "GravelRide", "MountainBikeRide", "EBikeRide", "EMountainBikeRide", "Velomobile",
}

// Activity is the subset of a Strava activity summary used for ride import
type Activity struct {
	ID                   int64     `json:"id"`
	Name                 string    `json:"name"`
	Type                 string    `json:"type"`
	SportType            string    `json:"sport_type"`
	StartDateLocal       time.Time `json:"start_date_local"`
	Distance             float64   `json:"distance"`     // meters
	MovingTime           int       `json:"moving_time"`  // seconds
	ElapsedTime          int       `json:"elapsed_time"` // seconds
	AverageWatts         float64   `json:"average_watts"`
	WeightedAverageWatts float64   `json:"weighted_average_watts"`
	Kilojoules           float64   `json:"kilojoules"`
	DeviceWatts          bool      `json:"device_watts"`
}

// IsRide reports whether the activity is a bike ride of any kind
func (a Activity) IsRide() bool {
	sport := a.SportType
	if sport == "" {
		sport = a.Type
	}
	return slices.Contains(rideTypes, sport)
}

// Day returns the local calendar day the ride started on
func (a Activity) Day() string {
	return a.StartDateLocal.Format("2006-01-02")
}

// PowerStream is the time and watts streams of one activity, keyed by type
type PowerStream struct {
	Time  *StreamData[int]      `json:"time"`
	Watts *StreamData[*float64] `json:"watts"`
}

// StreamData is a single Strava stream
type StreamData[T any] struct {
	Data         []T    `json:"data"`
	SeriesType   string `json:"series_type"`
	OriginalSize int    `json:"original_size"`
	Resolution   string `json:"resolution"`
}

// Len returns the number of samples, or 0 when the time stream is missing
func (s *PowerStream) Len() int {
	if s == nil || s.Time == nil {
		return 0
	}
	return len(s.Time.Data)
}

// HasPower reports whether the activity recorded any watts
func (s *PowerStream) HasPower() bool {
	return s != nil && s.Watts != nil && len(s.Watts.Data) > 0
}

// Sample is one power reading and the seconds it stands for
type Sample struct {
	Watts   float64
	Seconds int
}

// Samples pairs each watts value with the time until the next sample.
// Gaps longer than maxGap seconds (auto-pause) are capped at one second.
// Missing readings (null watts) are dropped.
func (s *PowerStream) Samples(maxGap int) []Sample {
	if !s.HasPower() || s.Len() == 0 {
		return nil
	}
	n := min(len(s.Time.Data), len(s.Watts.Data))
	out := make([]Sample, 0, n)
	for i := 0; i < n; i++ {
		w := s.Watts.Data[i]
		if w == nil {
			continue
		}
		secs := 1
		if i+1 < len(s.Time.Data) {
			secs = s.Time.Data[i+1] - s.Time.Data[i]
		}
		if secs <= 0 || secs > maxGap {
			secs = 1
		}
		out = append(out, Sample{Watts: *w, Seconds: secs})
	}
	return out
}
