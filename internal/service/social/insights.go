// internal/service/social/insights.go

package social

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"hive/internal/domain/social"
)

// RunWeeklyInsights generates a social summary for every recently active
// user: follower delta for the week, top mutual connections and the
// current streak. Failures for one user are logged and skipped.
func (a *Aggregator) RunWeeklyInsights(ctx context.Context) (int, error) {
	now := a.now()
	weekStart := dayOf(now).AddDate(0, 0, -7)

	userIDs, err := a.store.FindActiveUserIDs(ctx, now.Add(-7*24*time.Hour), a.config.InsightsBatch)
	if err != nil {
		return 0, fmt.Errorf("error listing active users: %w", err)
	}

	generated := 0
	for _, userID := range userIDs {
		if err := a.generateInsight(ctx, userID, weekStart); err != nil {
			log.Printf("social: error generating insight for %s: %v", userID, err)
			continue
		}
		generated++
	}
	return generated, nil
}

func (a *Aggregator) generateInsight(ctx context.Context, userID string, weekStart time.Time) error {
	delta, err := a.store.CountNewFollowers(ctx, userID, weekStart)
	if err != nil {
		return fmt.Errorf("error counting new followers: %w", err)
	}

	m, err := a.loadOrInitMetrics(ctx, userID)
	if err != nil {
		return err
	}

	top, err := a.topMutuals(ctx, userID, 3)
	if err != nil {
		return err
	}

	ins := social.Insight{
		ID:            uuid.New().String(),
		UserID:        userID,
		WeekStart:     weekStart,
		FollowerDelta: delta,
		TopMutuals:    top,
		Streak:        m.Streak,
		GeneratedAt:   a.now(),
	}
	if err := a.store.SaveInsight(ctx, ins); err != nil {
		return fmt.Errorf("error saving insight: %w", err)
	}

	a.notifier.NotifyUser(userID, "weekly_insight", "Your week on HIVE",
		fmt.Sprintf("%+d followers this week", delta),
		map[string]interface{}{"insight_id": ins.ID})
	return nil
}

// topMutuals returns up to n follower IDs ranked by mutual-connection
// count, strongest first.
func (a *Aggregator) topMutuals(ctx context.Context, userID string, n int) ([]string, error) {
	followerIDs, err := a.store.FollowerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	own, err := a.store.FollowingSet(ctx, userID)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		id      string
		mutuals int
	}
	var rankedFollowers []ranked
	for _, fid := range followerIDs {
		theirs, err := a.store.FollowingSet(ctx, fid)
		if err != nil {
			return nil, err
		}
		count := 0
		for id := range theirs {
			if _, ok := own[id]; ok {
				count++
			}
		}
		if count > 0 {
			rankedFollowers = append(rankedFollowers, ranked{id: fid, mutuals: count})
		}
	}

	sort.SliceStable(rankedFollowers, func(i, j int) bool {
		return rankedFollowers[i].mutuals > rankedFollowers[j].mutuals
	})
	if len(rankedFollowers) > n {
		rankedFollowers = rankedFollowers[:n]
	}
	out := make([]string, 0, len(rankedFollowers))
	for _, r := range rankedFollowers {
		out = append(out, r.id)
	}
	return out, nil
}
