package database

import (
	"time"
)

// TrackingLink maps a source content unit to the message id(s) it was
// published as in the target channel.
type TrackingLink struct {
	OwnerID         string
	ChannelID       string
	UnitKey         string
	TargetChannelID string
	TargetIDs       []string
	CreatedAt       time.Time
}

// UnitStats aggregates unit counts for the stats endpoint.
type UnitStats struct {
	Total    int
	New      int
	Edited   int
	Filtered int
	Links    int
}
