package service

import (
	"context"
	"time"

	"necessities/swap/internal/models"
	"necessities/swap/internal/repository"
)

type NewUserCounts struct {
	Last7Days  int64 `json:"7_days"`
	Last30Days int64 `json:"30_days"`
	Last90Days int64 `json:"90_days"`
}

type UserStats struct {
	TotalUsers    int64         `json:"total_users"`
	ActiveUsers   int64         `json:"active_users"`
	InactiveUsers int64         `json:"inactive_users"`
	NewUsers      NewUserCounts `json:"new_users"`
}

type ActivityOverview struct {
	TotalPosts     int64               `json:"total_posts"`
	CategoryCounts []repository.Bucket `json:"category_counts"`
	CompletionRate float64             `json:"completion_rate"`
}

// Analytics computes read-only aggregates without any access check. It is
// shared by the admin API and the operator CLI.
type Analytics struct {
	users *repository.UserRepository
	items *repository.ItemRepository
	now   func() time.Time
}

func NewAnalytics(users *repository.UserRepository, items *repository.ItemRepository) *Analytics {
	return &Analytics{users: users, items: items, now: time.Now}
}

func (a *Analytics) Users(ctx context.Context) (UserStats, error) {
	var stats UserStats

	total, err := a.users.Count(ctx)
	if err != nil {
		return stats, err
	}
	active, err := a.users.CountActive(ctx)
	if err != nil {
		return stats, err
	}
	stats.TotalUsers = total
	stats.ActiveUsers = active
	stats.InactiveUsers = total - active

	now := a.now().UTC()
	windows := []struct {
		days int
		dst  *int64
	}{
		{7, &stats.NewUsers.Last7Days},
		{30, &stats.NewUsers.Last30Days},
		{90, &stats.NewUsers.Last90Days},
	}
	for _, w := range windows {
		n, err := a.users.CountCreatedSince(ctx, now.AddDate(0, 0, -w.days))
		if err != nil {
			return stats, err
		}
		*w.dst = n
	}
	return stats, nil
}

func (a *Analytics) Activity(ctx context.Context) (ActivityOverview, error) {
	var overview ActivityOverview

	total, err := a.items.Count(ctx)
	if err != nil {
		return overview, err
	}
	buckets, err := a.items.CountByCategory(ctx)
	if err != nil {
		return overview, err
	}
	claimed, err := a.items.CountByStatus(ctx, models.ItemStatusClaimed)
	if err != nil {
		return overview, err
	}

	overview.TotalPosts = total
	overview.CategoryCounts = buckets
	if total > 0 {
		overview.CompletionRate = float64(claimed) / float64(total) * 100
	}
	return overview, nil
}
