package compat

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"campus-vibe-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedJitter(v float64) Option {
	return WithJitter(func() float64 { return v })
}

var (
	chaosProfile = models.Profile{
		BrainType:        "chaos",
		Interests:        []string{"memes", "chaos", "music"},
		SocialEnergy:     []string{"party", "recharge_alone"},
		ConnectionIntent: []string{"random"},
	}
	spreadsheetProfile = models.Profile{
		BrainType:        "spreadsheet",
		Interests:        []string{"books"},
		SocialEnergy:     []string{"recharge_alone"},
		ConnectionIntent: []string{"deep"},
	}
)

// TestBandOf_Boundaries verifies inclusive boundaries belong to the next band up.
func TestBandOf_Boundaries(t *testing.T) {
	cases := map[int]Band{
		0:   BandLow,
		32:  BandLow,
		33:  BandMedium,
		66:  BandMedium,
		67:  BandHigh,
		100: BandHigh,
	}
	for value, want := range cases {
		assert.Equal(t, want, BandOf(value), "value %d", value)
	}
}

// TestComputeMeters_AllMetersPresent verifies every meter is scored.
func TestComputeMeters_AllMetersPresent(t *testing.T) {
	meters := NewEngine().ComputeMeters(chaosProfile, spreadsheetProfile)
	require.Len(t, meters, len(AllMeters))
	for _, name := range AllMeters {
		m, ok := meters[name]
		require.True(t, ok, "missing meter %s", name)
		assert.NotEmpty(t, m.Label)
		assert.NotEmpty(t, m.Tooltip)
	}
}

// TestComputeMeters_ClampedUnderExtremeJitter verifies values never leave [0,100].
func TestComputeMeters_ClampedUnderExtremeJitter(t *testing.T) {
	for _, jitter := range []float64{-MaxJitter, MaxJitter, -1000, 1000} {
		e := NewEngine(fixedJitter(jitter))
		for _, pair := range [][2]models.Profile{
			{chaosProfile, chaosProfile},
			{spreadsheetProfile, chaosProfile},
			{{}, {}},
		} {
			for name, m := range e.ComputeMeters(pair[0], pair[1]) {
				assert.GreaterOrEqual(t, m.Value, 0, "meter %s", name)
				assert.LessOrEqual(t, m.Value, 100, "meter %s", name)
			}
		}
	}
}

// TestComputeMeters_LabelMatchesBand verifies the label always matches the value's band.
func TestComputeMeters_LabelMatchesBand(t *testing.T) {
	e := NewEngine()
	for i := 0; i < 200; i++ {
		for _, r := range recipes {
			m, ok := e.Compute(r.name, chaosProfile, spreadsheetProfile)
			require.True(t, ok)
			assert.Equal(t, r.labels[BandOf(m.Value)], m.Label, "meter %s value %d", r.name, m.Value)
		}
	}
}

// TestComputeMeters_JitterBounded verifies the default jitter stays within ±10 of the base.
func TestComputeMeters_JitterBounded(t *testing.T) {
	base := NewEngine(fixedJitter(0)).ComputeMeters(chaosProfile, chaosProfile)
	e := NewEngine()
	for i := 0; i < 200; i++ {
		for name, m := range e.ComputeMeters(chaosProfile, chaosProfile) {
			assert.InDelta(t, base[name].Value, m.Value, MaxJitter+1, "meter %s", name)
		}
	}
}

// TestComputeMeters_EmptyProfiles verifies empty tag sets use fallbacks instead of dividing by zero.
func TestComputeMeters_EmptyProfiles(t *testing.T) {
	meters := NewEngine(fixedJitter(0)).ComputeMeters(models.Profile{}, models.Profile{})
	assert.Equal(t, 0, meters[SocialBattery].Value)
	assert.Equal(t, 30, meters[SharedBrainCell].Value)
	assert.Equal(t, 30, meters[VibeCollision].Value)
}

// TestComputeMeters_Weighting verifies a few recipes rank inputs the intended way.
func TestComputeMeters_Weighting(t *testing.T) {
	e := NewEngine(fixedJitter(0))

	chaotic := e.ComputeMeters(chaosProfile, chaosProfile)
	calm := e.ComputeMeters(spreadsheetProfile, spreadsheetProfile)

	assert.Greater(t, chaotic[ChaosEscalation].Value, calm[ChaosEscalation].Value)
	assert.Greater(t, chaotic[UnhingedCombo].Value, calm[UnhingedCombo].Value)
	assert.Greater(t, calm[EventAttendance].Value, chaotic[EventAttendance].Value)
	assert.Greater(t, calm[ArgumentSurvival].Value, chaotic[ArgumentSurvival].Value)
	assert.Equal(t, 100, chaotic[SocialBattery].Value)
	assert.Equal(t, BandHigh, BandOf(chaotic[ChaosEscalation].Value))
}

// TestJaccard verifies overlap math and the empty-union fallback.
func TestJaccard(t *testing.T) {
	assert.InDelta(t, 0.5, jaccard([]string{"a", "b"}, []string{"b", "c", "a", "d"}, 0), 1e-9)
	assert.InDelta(t, 1.0, jaccard([]string{"a", "a"}, []string{"a"}, 0), 1e-9)
	assert.InDelta(t, 0.42, jaccard(nil, nil, 0.42), 1e-9)
	assert.InDelta(t, 0.0, jaccard([]string{"a"}, nil, 0.42), 1e-9)
}

// TestSelectDailyMeters_StableWithinDay verifies repeated calls agree for the same subject and date.
func TestSelectDailyMeters_StableWithinDay(t *testing.T) {
	morning := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	night := time.Date(2025, 1, 1, 23, 59, 0, 0, time.UTC)

	first := SelectDailyMeters("member-1", morning, 1)
	require.Len(t, first, 1)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, SelectDailyMeters("member-1", night, 1))
	}
	assert.Equal(t, first[0], SelectDailyMeter("member-1", morning))
}

// TestSelectDailyMeters_ChangesAcrossDays verifies the selection reshuffles over a run of dates.
func TestSelectDailyMeters_ChangesAcrossDays(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	seen := make(map[MeterName]bool)
	for d := 0; d < 30; d++ {
		seen[SelectDailyMeter("member-1", start.AddDate(0, 0, d))] = true
	}
	assert.Greater(t, len(seen), 1, "selection never changed across 30 days")
}

// TestSelectDailyMeters_OrderIndependent verifies other subjects' selections do not disturb the result.
func TestSelectDailyMeters_OrderIndependent(t *testing.T) {
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	want := SelectDailyMeters("subject", day, 3)

	var wg sync.WaitGroup
	results := make([][]MeterName, 64)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			SelectDailyMeters(fmt.Sprintf("other-%d", i), day, 5)
			results[i] = SelectDailyMeters("subject", day, 3)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

// TestSelectDailyMeters_Count verifies n is clamped and picks are distinct.
func TestSelectDailyMeters_Count(t *testing.T) {
	day := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)

	assert.Len(t, SelectDailyMeters("x", day, 0), 1)
	all := SelectDailyMeters("x", day, 50)
	require.Len(t, all, len(AllMeters))
	assert.ElementsMatch(t, AllMeters, all)

	four := SelectDailyMeters("x", day, 4)
	assert.Equal(t, all[:4], four, "larger selections extend smaller ones")
}

// TestSubset verifies unknown names are skipped.
func TestSubset(t *testing.T) {
	all := NewEngine().ComputeMeters(chaosProfile, spreadsheetProfile)
	sub := Subset(all, []MeterName{VibeCollision, "nope"})
	require.Len(t, sub, 1)
	assert.Equal(t, all[VibeCollision], sub[VibeCollision])
}
