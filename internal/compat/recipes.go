package compat

import "campus-vibe-backend/internal/models"

type recipe struct {
	name    MeterName
	labels  [3]string
	tooltip string
	base    func(a, b *models.Profile) float64
}

var (
	chaosBrains      = tagSet("chaos", "delulu", "wifi")
	jokeBrains       = tagSet("chaos", "delulu")
	consistentBrains = tagSet("npc", "chaos", "flow")
	logicalBrains    = tagSet("spreadsheet", "overthinker")
	reliableBrains   = tagSet("spreadsheet", "flow")
	humorInterests   = tagSet("memes", "chaos", "random")

	sameBrainScore = map[string]float64{
		"overthinker": 80,
		"flow":        75,
		"chaos":       90,
		"delulu":      85,
	}
)

var recipes = []recipe{
	{
		name:    VibeCollision,
		labels:  [3]string{"Polite strangers", "Noticeable tension", "Immediate lore"},
		tooltip: "Brain type + social energy overlap + cosmic alignment",
		base: func(a, b *models.Profile) float64 {
			brain := 50.0
			if a.BrainType == b.BrainType {
				if s, ok := sameBrainScore[a.BrainType]; ok {
					brain = s
				}
			}
			return brain*0.6 + jaccard(a.SocialEnergy, b.SocialEnergy, 0)*30
		},
	},
	{
		name:    SharedBrainCell,
		labels:  [3]string{"Separate operating systems", "Occasional overlap", "One brain, two bodies"},
		tooltip: "Shared interests + questionable life choices",
		base: func(a, b *models.Profile) float64 {
			if len(a.Interests) == 0 || len(b.Interests) == 0 {
				return 30
			}
			return jaccard(a.Interests, b.Interests, 0.3) * 100
		},
	},
	{
		name:    AwkwardSilence,
		labels:  [3]string{"Painfully long", "Manageable discomfort", "Comfortably quiet"},
		tooltip: "Social energy + comfort with awkwardness",
		base: func(a, b *models.Profile) float64 {
			aAlone, bAlone := contains(a.SocialEnergy, "recharge_alone"), contains(b.SocialEnergy, "recharge_alone")
			introvert := 20.0
			switch {
			case aAlone && bAlone:
				introvert = 70
			case aAlone || bAlone:
				introvert = 40
			}
			return introvert*0.7 + jaccard(a.ConnectionIntent, b.ConnectionIntent, 0)*30
		},
	},
	{
		name:    ChaosEscalation,
		labels:  [3]string{"Risk-averse", "Minor crimes (emotional)", "Stories with consequences"},
		tooltip: "Brain types + questionable decision-making history",
		base: func(a, b *models.Profile) float64 {
			score := 0.0
			for _, p := range []*models.Profile{a, b} {
				if chaosBrains[p.BrainType] {
					score += 40
				}
				if contains(p.ConnectionIntent, "random") {
					score += 10
				}
			}
			return score
		},
	},
	{
		name:    TextingEnergy,
		labels:  [3]string{"Seen at 3 AM", "Overthinking replies", "Typing simultaneously"},
		tooltip: "Communication styles + anxiety levels",
		base: func(a, b *models.Profile) float64 {
			switch {
			case a.BrainType != "" && a.BrainType == b.BrainType:
				return 70
			case a.BrainType == "overthinker" && b.BrainType == "flow",
				a.BrainType == "flow" && b.BrainType == "overthinker":
				return 30
			default:
				return 50
			}
		},
	},
	{
		name:    SocialBattery,
		labels:  [3]string{"One vanishes", "Negotiated exit", "Irish goodbye together"},
		tooltip: "Energy levels + social stamina",
		base: func(a, b *models.Profile) float64 {
			return jaccard(a.SocialEnergy, b.SocialEnergy, 0) * 100
		},
	},
	{
		name:    InsideJokeSpeed,
		labels:  [3]string{"Still using names", "Running bits forming", "No context required"},
		tooltip: "Shared humor + chaos compatibility",
		base: func(a, b *models.Profile) float64 {
			humor := make(map[string]bool)
			for _, tag := range append(append([]string{}, a.Interests...), b.Interests...) {
				if humorInterests[tag] {
					humor[tag] = true
				}
			}
			score := float64(len(humor)) * 20
			if jokeBrains[a.BrainType] && jokeBrains[b.BrainType] {
				score += 40
			}
			return score
		},
	},
	{
		name:    EmotionalDamage,
		labels:  [3]string{"Emotionally insured", "Suspicious closeness", "Already invested"},
		tooltip: "Connection intent + emotional availability",
		base: func(a, b *models.Profile) float64 {
			switch {
			case contains(a.ConnectionIntent, "deep") || contains(b.ConnectionIntent, "deep"):
				return 60
			case contains(a.ConnectionIntent, "random") && contains(b.ConnectionIntent, "random"):
				return 20
			default:
				return 40
			}
		},
	},
	{
		name:    PersonalitySync,
		labels:  [3]string{"Two personalities", "Mostly consistent", "No filter ever"},
		tooltip: "Authenticity + social masks",
		base: func(a, b *models.Profile) float64 {
			return 50 + countIn(consistentBrains, a, b)*20
		},
	},
	{
		name:    ArgumentSurvival,
		labels:  [3]string{"Passive aggression", "Heated but alive", "Fights turn into jokes"},
		tooltip: "Conflict resolution + ego management",
		base: func(a, b *models.Profile) float64 {
			switch {
			case logicalBrains[a.BrainType] && logicalBrains[b.BrainType]:
				return 70
			case a.BrainType == "chaos" || b.BrainType == "chaos":
				return 40
			default:
				return 50
			}
		},
	},
	{
		name:    EventAttendance,
		labels:  [3]string{"Plans dissolve", "One cancels late", "Arrive together, leave together"},
		tooltip: "Reliability + commitment issues",
		base: func(a, b *models.Profile) float64 {
			return 40 + countIn(reliableBrains, a, b)*25
		},
	},
	{
		name:    UnhingedCombo,
		labels:  [3]string{"Emotionally stable", "Mild chaos", "Do not encourage"},
		tooltip: "Combined chaos potential + adult supervision required",
		base: func(a, b *models.Profile) float64 {
			return 30 + countIn(chaosBrains, a, b)*30
		},
	},
}

// jaccard returns |a∩b| / |a∪b|, or fallback when the union is empty
func jaccard(a, b []string, fallback float64) float64 {
	sa, sb := tagSet(a...), tagSet(b...)
	union := len(sa)
	inter := 0
	for tag := range sb {
		if sa[tag] {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return fallback
	}
	return float64(inter) / float64(union)
}

func tagSet(tags ...string) map[string]bool {
	s := make(map[string]bool, len(tags))
	for _, t := range tags {
		s[t] = true
	}
	return s
}

func contains(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// countIn counts how many of the profiles have a brain type in set
func countIn(set map[string]bool, profiles ...*models.Profile) float64 {
	n := 0.0
	for _, p := range profiles {
		if set[p.BrainType] {
			n++
		}
	}
	return n
}
