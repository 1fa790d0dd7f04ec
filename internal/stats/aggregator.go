package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/veridoc/review-backend/internal/models"
	"github.com/veridoc/review-backend/internal/store"
)

// Aggregator computes queue counts, per-translator performance metrics, and
// the leaderboard. All aggregates are recomputed from document state on
// demand; nothing here maintains counters of its own.
type Aggregator struct {
	store store.Store
}

func NewAggregator(s store.Store) *Aggregator {
	return &Aggregator{store: s}
}

// QueueStats counts documents per status plus approvals in the current UTC
// calendar day.
func (a *Aggregator) QueueStats(ctx context.Context) (*models.QueueStats, error) {
	var qs models.QueueStats

	counts := []struct {
		status models.DocumentStatus
		dst    *int64
	}{
		{models.StatusPendingReview, &qs.PendingReview},
		{models.StatusAICompleted, &qs.AICompleted},
		{models.StatusInReview, &qs.InReview},
		{models.StatusApproved, &qs.Approved},
		{models.StatusRejected, &qs.Rejected},
	}
	for _, c := range counts {
		n, err := a.store.CountDocuments(ctx, store.DocumentFilter{
			Statuses: []models.DocumentStatus{c.status},
		})
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", c.status, err)
		}
		*c.dst = n
	}

	now := time.Now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	n, err := a.store.CountDocuments(ctx, store.DocumentFilter{
		Statuses:      []models.DocumentStatus{models.StatusApproved},
		ApprovedSince: startOfDay,
	})
	if err != nil {
		return nil, fmt.Errorf("count approved today: %w", err)
	}
	qs.ApprovedToday = n

	return &qs, nil
}

// TranslatorStats aggregates one translator's performance over the period.
// Completed work is windowed on its terminal timestamp, in-progress work on
// assignedAt. Review time uses the assignedAt of the claim episode that led
// to approval, not any earlier claim.
func (a *Aggregator) TranslatorStats(ctx context.Context, translatorID primitive.ObjectID, period models.StatsPeriod) (*models.TranslatorStats, error) {
	if !period.Valid() {
		return nil, fmt.Errorf("unknown period %q", period)
	}
	since := period.Start(time.Now())

	approved, err := a.store.ListDocuments(ctx, store.DocumentFilter{
		Statuses:      []models.DocumentStatus{models.StatusApproved},
		ApprovedBy:    &translatorID,
		ApprovedSince: since,
	})
	if err != nil {
		return nil, fmt.Errorf("list approved: %w", err)
	}

	rejected, err := a.store.CountDocuments(ctx, store.DocumentFilter{
		Statuses:      []models.DocumentStatus{models.StatusRejected},
		RejectedBy:    &translatorID,
		RejectedSince: since,
	})
	if err != nil {
		return nil, fmt.Errorf("count rejected: %w", err)
	}

	inProgress, err := a.store.CountDocuments(ctx, store.DocumentFilter{
		Statuses:      []models.DocumentStatus{models.StatusInReview},
		AssignedTo:    &translatorID,
		AssignedSince: since,
	})
	if err != nil {
		return nil, fmt.Errorf("count in progress: %w", err)
	}

	totalApproved, err := a.store.CountDocuments(ctx, store.DocumentFilter{
		Statuses:   []models.DocumentStatus{models.StatusApproved},
		ApprovedBy: &translatorID,
	})
	if err != nil {
		return nil, fmt.Errorf("count total approved: %w", err)
	}
	totalRejected, err := a.store.CountDocuments(ctx, store.DocumentFilter{
		Statuses:   []models.DocumentStatus{models.StatusRejected},
		RejectedBy: &translatorID,
	})
	if err != nil {
		return nil, fmt.Errorf("count total rejected: %w", err)
	}

	ts := &models.TranslatorStats{
		TranslatorID:  translatorID.Hex(),
		Period:        period,
		Approved:      int64(len(approved)),
		Rejected:      rejected,
		InProgress:    inProgress,
		TotalApproved: totalApproved,
		TotalRejected: totalRejected,
	}

	if denom := ts.Approved + ts.Rejected; denom > 0 {
		ts.ApprovalRate = float64(ts.Approved) / float64(denom)
	}

	var totalMinutes float64
	var timed int64
	for i := range approved {
		doc := &approved[i]
		if doc.ApprovedAt == nil || doc.AssignedAt == nil {
			continue
		}
		totalMinutes += doc.ApprovedAt.Sub(*doc.AssignedAt).Minutes()
		timed++
	}
	if timed > 0 {
		ts.AvgReviewTimeMinutes = totalMinutes / float64(timed)
	}

	return ts, nil
}

// Leaderboard ranks translators by approved documents within the period,
// descending. Ties go to whichever translator reached the count first, i.e.
// the one with the earliest approval among the tied group.
func (a *Aggregator) Leaderboard(ctx context.Context, period models.StatsPeriod, limit int) ([]models.LeaderboardEntry, error) {
	if !period.Valid() {
		return nil, fmt.Errorf("unknown period %q", period)
	}
	if limit <= 0 {
		limit = 10
	}
	since := period.Start(time.Now())

	approved, err := a.store.ListDocuments(ctx, store.DocumentFilter{
		Statuses:      []models.DocumentStatus{models.StatusApproved},
		ApprovedSince: since,
	})
	if err != nil {
		return nil, fmt.Errorf("list approved: %w", err)
	}

	type tally struct {
		entry    models.LeaderboardEntry
		earliest time.Time
	}
	byTranslator := make(map[string]*tally)
	for i := range approved {
		doc := &approved[i]
		if doc.ApprovedBy == nil {
			continue
		}
		id := doc.ApprovedBy.Hex()
		t, ok := byTranslator[id]
		if !ok {
			t = &tally{entry: models.LeaderboardEntry{
				TranslatorID:   id,
				TranslatorName: doc.ApprovedByName,
			}}
			byTranslator[id] = t
		}
		t.entry.DocumentsApproved++
		if doc.ApprovedAt != nil && (t.earliest.IsZero() || doc.ApprovedAt.Before(t.earliest)) {
			t.earliest = *doc.ApprovedAt
		}
	}

	ranked := make([]*tally, 0, len(byTranslator))
	for _, t := range byTranslator {
		ranked = append(ranked, t)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].entry.DocumentsApproved != ranked[j].entry.DocumentsApproved {
			return ranked[i].entry.DocumentsApproved > ranked[j].entry.DocumentsApproved
		}
		if !ranked[i].earliest.Equal(ranked[j].earliest) {
			return ranked[i].earliest.Before(ranked[j].earliest)
		}
		return ranked[i].entry.TranslatorID < ranked[j].entry.TranslatorID
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	entries := make([]models.LeaderboardEntry, 0, len(ranked))
	for _, t := range ranked {
		entries = append(entries, t.entry)
	}
	return entries, nil
}
