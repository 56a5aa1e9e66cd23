package compat

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"
	"time"
)

// DefaultDailyMeters is how many meters a member card shows per day
const DefaultDailyMeters = 1

// SelectDailyMeters picks n distinct meters for subjectID on the calendar day
// of day. The result is stable for the same (subjectID, date) and uses a
// generator local to the call, so concurrent callers never share state.
func SelectDailyMeters(subjectID string, day time.Time, n int) []MeterName {
	if n < 1 {
		n = 1
	}
	if n > len(AllMeters) {
		n = len(AllMeters)
	}

	sum := sha256.Sum256([]byte(subjectID + "_" + day.Format(time.DateOnly)))
	r := rand.New(rand.NewPCG(
		binary.BigEndian.Uint64(sum[0:8]),
		binary.BigEndian.Uint64(sum[8:16]),
	))

	perm := r.Perm(len(AllMeters))
	selected := make([]MeterName, n)
	for i := 0; i < n; i++ {
		selected[i] = AllMeters[perm[i]]
	}
	return selected
}

// SelectDailyMeter is SelectDailyMeters with the current one-meter policy
func SelectDailyMeter(subjectID string, day time.Time) MeterName {
	return SelectDailyMeters(subjectID, day, DefaultDailyMeters)[0]
}
