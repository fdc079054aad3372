package service

const (
	// History windows
	HistoryChartDays = 60
	SummaryWeekDays  = 7

	// Ride import
	RecentRidesLimit = 10
	MaxSampleGapSec  = 30 // longer gaps between power samples are auto-pause
	SecondsPerMinute = 60
)
