package model

import "time"

// RawFix is one position report as transmitted by a driver's device.
// It is consumed by a single ingestion call and never stored as-is.
type RawFix struct {
	BusID     string  `json:"busId" bson:"busid"`
	Lat       float64 `json:"lat" bson:"lat"`
	Lng       float64 `json:"lng" bson:"lng"`
	Speed     float64 `json:"speed" bson:"speed"`
	Heading   float64 `json:"heading,omitempty" bson:"heading,omitempty"`
	Accuracy  float64 `json:"accuracy,omitempty" bson:"accuracy,omitempty"`
	Timestamp int64   `json:"timestamp" bson:"timestamp"` // unix milliseconds
}

// Time returns the fix timestamp as a time.Time.
func (f *RawFix) Time() time.Time {
	return time.UnixMilli(f.Timestamp)
}

// Day returns the UTC calendar day of the fix, used as the history partition key.
func (f *RawFix) Day() string {
	return f.Time().UTC().Format("2006-01-02")
}

// Position is the position block embedded in live records and history entries.
type Position struct {
	Lat       float64 `json:"lat" bson:"lat"`
	Lng       float64 `json:"lng" bson:"lng"`
	Speed     float64 `json:"speed" bson:"speed"`
	Heading   float64 `json:"heading,omitempty" bson:"heading,omitempty"`
	Accuracy  float64 `json:"accuracy,omitempty" bson:"accuracy,omitempty"`
	Timestamp int64   `json:"timestamp" bson:"timestamp"`
}
