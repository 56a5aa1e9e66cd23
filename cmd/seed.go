package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"campus-vibe-backend/internal/models"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// seedMember is one entry of the member seed file
type seedMember struct {
	ID               string   `yaml:"id"`
	Campus           string   `yaml:"campus"`
	AvatarEmoji      string   `yaml:"avatar_emoji"`
	BrainType        string   `yaml:"brain_type"`
	Interests        []string `yaml:"interests"`
	SocialEnergy     []string `yaml:"social_energy"`
	ConnectionIntent []string `yaml:"connection_intent"`
}

type seedFile struct {
	Members []seedMember `yaml:"members"`
}

// parseSeed decodes a member seed document
func parseSeed(data []byte, now time.Time) ([]*models.Member, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	members := make([]*models.Member, 0, len(f.Members))
	for i, m := range f.Members {
		if m.ID == "" || m.Campus == "" {
			return nil, fmt.Errorf("seed member %d: id and campus are required", i)
		}
		members = append(members, &models.Member{
			ID:     m.ID,
			Campus: m.Campus,
			Profile: models.Profile{
				AvatarEmoji:      m.AvatarEmoji,
				BrainType:        m.BrainType,
				Interests:        m.Interests,
				SocialEnergy:     m.SocialEnergy,
				ConnectionIntent: m.ConnectionIntent,
			},
			CreatedAt: now,
		})
	}
	return members, nil
}

// seedMembers upserts the members listed in path. Accounts normally come from
// the account service; the seed exists for local runs.
func seedMembers(ctx context.Context, store memberStore, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	members, err := parseSeed(data, time.Now())
	if err != nil {
		return err
	}
	for _, m := range members {
		if err := store.Upsert(ctx, m); err != nil {
			return err
		}
	}
	log.Info().Int("members", len(members)).Str("path", path).Msg("Seeded members")
	return nil
}
