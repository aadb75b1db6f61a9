package domain

import "time"

// Epoch identifies one version of the participant to supervisor mapping.
// The zero value means no epoch has been issued.
type Epoch int64

// NextEpoch mints an epoch from now that is strictly greater than prev.
func NextEpoch(prev Epoch, now time.Time) Epoch {
	e := Epoch(now.UnixMilli())
	if e <= prev {
		e = prev + 1
	}
	return e
}
