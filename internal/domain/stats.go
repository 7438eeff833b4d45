package domain

import "time"

// Counter names tracked per day.
const (
	CounterImagesGenerated = "images_generated"
	CounterRequestSuccess  = "request_success"
	CounterRequestFail     = "request_fail"
	CounterVisitors        = "visitors"
)

// StatsDaily stores aggregated pipeline metrics for a specific day. A
// visitor is counted when a session submits its first job.
type StatsDaily struct {
	Day             string    `json:"day"`
	ImagesGenerated int       `json:"imagesGenerated"`
	RequestSuccess  int       `json:"requestSuccess"`
	RequestFail     int       `json:"requestFail"`
	Visitors        int       `json:"visitors"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// StatsSummary aggregates counters across all days.
type StatsSummary struct {
	ImagesGenerated int `json:"imagesGenerated"`
	RequestSuccess  int `json:"requestSuccess"`
	RequestFail     int `json:"requestFail"`
	Visitors        int `json:"visitors"`
}
