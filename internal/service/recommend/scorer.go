// internal/service/recommend/scorer.go

package recommend

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"hive/internal/domain/recommend"
	"hive/internal/domain/social"
	"hive/internal/domain/space"
	"hive/internal/metrics"
)

// Source defines the read side of recommendation generation
type Source interface {
	// FindActiveUserIDs lists users with tracked activity since the cutoff
	FindActiveUserIDs(ctx context.Context, since time.Time, limit int) ([]string, error)

	// GetProfile returns a user's profile attributes
	GetProfile(ctx context.Context, userID string) (*social.Profile, error)

	// FindUpcomingEvents lists candidate events
	FindUpcomingEvents(ctx context.Context, limit int) ([]recommend.Event, error)

	// FindJoinableSpaces lists candidate spaces (active, non-archived)
	FindJoinableSpaces(ctx context.Context, limit int) ([]space.Space, error)

	// FindCandidatePeople lists candidate profiles excluding the user
	FindCandidatePeople(ctx context.Context, userID string, limit int) ([]social.Profile, error)

	// EventInteractions returns event IDs the user has viewed, attended or
	// saved
	EventInteractions(ctx context.Context, userID string) (map[string]struct{}, error)

	// SpaceMemberships returns space IDs the user has joined
	SpaceMemberships(ctx context.Context, userID string) (map[string]struct{}, error)

	// FollowingSet returns user IDs the user follows
	FollowingSet(ctx context.Context, userID string) (map[string]struct{}, error)
}

// Sink persists generated recommendation lists
type Sink interface {
	// ReplaceRecommendations atomically swaps a user's recommendation set
	ReplaceRecommendations(ctx context.Context, userID string, recs []recommend.Recommendation) error
}

// ScorerConfig contains configuration for recommendation generation
type ScorerConfig struct {
	ActiveUserWindow  time.Duration
	BatchLimit        int
	Concurrency       int
	MaxPerUser        int
	MinItemScore      float64
	MinPersonScore    float64
	InterestTagWeight float64
	SharedSpaceBonus  float64
	MutualWeight      float64
	MutualCap         float64
	RecencyBonus      float64
	CandidateLimit    int
}

// Scorer produces ranked event, space and people recommendations per user
type Scorer struct {
	source Source
	sink   Sink
	config ScorerConfig
	now    func() time.Time
}

// NewScorer creates a recommendation scorer
func NewScorer(source Source, sink Sink, config ScorerConfig) *Scorer {
	if config.Concurrency <= 0 {
		config.Concurrency = 10
	}
	if config.BatchLimit <= 0 {
		config.BatchLimit = 500
	}
	if config.MaxPerUser <= 0 {
		config.MaxPerUser = 50
	}
	if config.CandidateLimit <= 0 {
		config.CandidateLimit = 200
	}
	return &Scorer{
		source: source,
		sink:   sink,
		config: config,
		now:    time.Now,
	}
}

// RunDaily regenerates recommendations for every recently active user.
// Users are scored independently with bounded concurrency; a failure for
// one user is counted and logged without aborting the batch.
func (s *Scorer) RunDaily(ctx context.Context) (int, error) {
	since := s.now().Add(-s.config.ActiveUserWindow)
	userIDs, err := s.source.FindActiveUserIDs(ctx, since, s.config.BatchLimit)
	if err != nil {
		return 0, fmt.Errorf("error listing active users: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)

	for _, userID := range userIDs {
		userID := userID
		g.Go(func() error {
			if err := s.GenerateForUser(gctx, userID); err != nil {
				metrics.RecommendationRunFailures.Inc()
				log.Printf("recommend: error generating for user %s: %v", userID, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(userIDs), nil
}

// GenerateForUser scores all candidate lists for one user and replaces the
// user's stored recommendations with the top results.
func (s *Scorer) GenerateForUser(ctx context.Context, userID string) error {
	profile, err := s.source.GetProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("error loading profile: %w", err)
	}

	seenEvents, err := s.source.EventInteractions(ctx, userID)
	if err != nil {
		return fmt.Errorf("error loading event interactions: %w", err)
	}
	joined, err := s.source.SpaceMemberships(ctx, userID)
	if err != nil {
		return fmt.Errorf("error loading space memberships: %w", err)
	}
	following, err := s.source.FollowingSet(ctx, userID)
	if err != nil {
		return fmt.Errorf("error loading following set: %w", err)
	}

	var recs []recommend.Recommendation
	now := s.now()

	events, err := s.source.FindUpcomingEvents(ctx, s.config.CandidateLimit)
	if err != nil {
		return fmt.Errorf("error loading candidate events: %w", err)
	}
	for _, ev := range events {
		if _, ok := seenEvents[ev.ID]; ok {
			continue
		}
		score, reasons := s.scoreEvent(profile, joined, ev, now)
		if score < s.config.MinItemScore {
			continue
		}
		recs = append(recs, recommend.Recommendation{
			ID:       uuid.New().String(),
			UserID:   userID,
			ItemID:   ev.ID,
			ItemType: recommend.ItemEvent,
			Score:    score,
			Reasons:  reasons,
		})
	}

	spaces, err := s.source.FindJoinableSpaces(ctx, s.config.CandidateLimit)
	if err != nil {
		return fmt.Errorf("error loading candidate spaces: %w", err)
	}
	for _, sp := range spaces {
		if _, ok := joined[sp.ID]; ok {
			continue
		}
		score, reasons := s.scoreSpace(profile, following, sp)
		if score < s.config.MinItemScore {
			continue
		}
		recs = append(recs, recommend.Recommendation{
			ID:       uuid.New().String(),
			UserID:   userID,
			ItemID:   sp.ID,
			ItemType: recommend.ItemSpace,
			Score:    score,
			Reasons:  reasons,
		})
	}

	people, err := s.source.FindCandidatePeople(ctx, userID, s.config.CandidateLimit)
	if err != nil {
		return fmt.Errorf("error loading candidate people: %w", err)
	}
	for _, cand := range people {
		if cand.UserID == userID {
			continue
		}
		if _, ok := following[cand.UserID]; ok {
			continue
		}
		score, reasons, err := s.scorePerson(ctx, profile, joined, following, cand)
		if err != nil {
			return err
		}
		if score < s.config.MinPersonScore {
			continue
		}
		recs = append(recs, recommend.Recommendation{
			ID:       uuid.New().String(),
			UserID:   userID,
			ItemID:   cand.UserID,
			ItemType: recommend.ItemPerson,
			Score:    score,
			Reasons:  reasons,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	if len(recs) > s.config.MaxPerUser {
		recs = recs[:s.config.MaxPerUser]
	}
	for i := range recs {
		recs[i].Rank = i + 1
		recs[i].GeneratedAt = now
	}

	if err := s.sink.ReplaceRecommendations(ctx, userID, recs); err != nil {
		return fmt.Errorf("error saving recommendations: %w", err)
	}
	metrics.RecommendationsGenerated.Add(float64(len(recs)))
	return nil
}

func (s *Scorer) scoreEvent(p *social.Profile, joined map[string]struct{}, ev recommend.Event, now time.Time) (float64, []string) {
	var score float64
	var reasons []string

	if n := overlap(p.Interests, ev.Tags); n > 0 {
		score += float64(n) * s.config.InterestTagWeight
		reasons = append(reasons, fmt.Sprintf("Matches %d of your interests", n))
	}
	if ev.HostOrgID != "" {
		if _, ok := joined[ev.HostOrgID]; ok {
			score += s.config.SharedSpaceBonus
			reasons = append(reasons, "Hosted by a space you're in")
		}
	}
	if ev.StartsAt.After(now) && ev.StartsAt.Before(now.Add(72*time.Hour)) {
		score += s.config.RecencyBonus
		reasons = append(reasons, "Happening soon")
	}
	if ev.Popularity >= 25 {
		score += s.config.RecencyBonus
		reasons = append(reasons, "Popular on campus")
	}
	return score, reasons
}

func (s *Scorer) scoreSpace(p *social.Profile, following map[string]struct{}, sp space.Space) (float64, []string) {
	var score float64
	var reasons []string

	if n := overlap(p.Interests, sp.TopicTags); n > 0 {
		score += float64(n) * s.config.InterestTagWeight
		reasons = append(reasons, fmt.Sprintf("Matches %d of your interests", n))
	}

	friends := 0
	for _, member := range sp.Members {
		if _, ok := following[member]; ok {
			friends++
		}
	}
	if friends > 0 {
		score += capAt(float64(friends)*s.config.MutualWeight, s.config.MutualCap)
		reasons = append(reasons, fmt.Sprintf("%d people you follow are members", friends))
	}

	if sp.IsSurging {
		score += s.config.RecencyBonus
		reasons = append(reasons, "Surging right now")
	}
	return score, reasons
}

func (s *Scorer) scorePerson(ctx context.Context, p *social.Profile, joined map[string]struct{}, following map[string]struct{}, cand social.Profile) (float64, []string, error) {
	var score float64
	var reasons []string

	if n := overlap(p.Interests, cand.Interests); n > 0 {
		score += float64(n) * s.config.InterestTagWeight
		reasons = append(reasons, fmt.Sprintf("Shares %d interests with you", n))
	}

	candSpaces, err := s.source.SpaceMemberships(ctx, cand.UserID)
	if err != nil {
		return 0, nil, fmt.Errorf("error loading candidate memberships: %w", err)
	}
	shared := 0
	for id := range candSpaces {
		if _, ok := joined[id]; ok {
			shared++
		}
	}
	if shared > 0 {
		score += s.config.SharedSpaceBonus
		reasons = append(reasons, fmt.Sprintf("In %d of your spaces", shared))
	}

	candFollowing, err := s.source.FollowingSet(ctx, cand.UserID)
	if err != nil {
		return 0, nil, fmt.Errorf("error loading candidate following: %w", err)
	}
	mutuals := 0
	for id := range candFollowing {
		if _, ok := following[id]; ok {
			mutuals++
		}
	}
	if mutuals > 0 {
		score += capAt(float64(mutuals)*s.config.MutualWeight, s.config.MutualCap)
		reasons = append(reasons, fmt.Sprintf("%d mutual connections", mutuals))
	}

	if p.Major != "" && p.Major == cand.Major {
		score += s.config.RecencyBonus
		reasons = append(reasons, "Same major")
	}
	return score, reasons, nil
}

func overlap(a, b []string) int {
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	n := 0
	for _, s := range b {
		if _, ok := set[s]; ok {
			n++
		}
	}
	return n
}

func capAt(v, cap float64) float64 {
	if cap > 0 && v > cap {
		return cap
	}
	return v
}
