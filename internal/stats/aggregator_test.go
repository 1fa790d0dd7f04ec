package stats

import (
	"context"
	"math"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/veridoc/review-backend/internal/models"
	"github.com/veridoc/review-backend/internal/store"
)

type docSpec struct {
	status     models.DocumentStatus
	assignedTo *primitive.ObjectID
	assignedAt time.Time
	approvedBy *primitive.ObjectID
	approvedAt time.Time
	rejectedBy *primitive.ObjectID
	rejectedAt time.Time
	byName     string
}

func seed(t *testing.T, st *store.MemoryStore, spec docSpec) {
	t.Helper()
	doc := &models.Document{
		FormType:    "transcript",
		Status:      spec.status,
		Priority:    models.PriorityNormal,
		SubmittedBy: primitive.NewObjectID(),
		CreatedAt:   time.Now().UTC().Add(-24 * time.Hour),
		UpdatedAt:   time.Now().UTC(),
	}
	if spec.assignedTo != nil {
		doc.AssignedTo = spec.assignedTo
		doc.AssignedToName = spec.byName
	}
	if !spec.assignedAt.IsZero() {
		at := spec.assignedAt
		doc.AssignedAt = &at
	}
	if spec.approvedBy != nil {
		doc.ApprovedBy = spec.approvedBy
		doc.ApprovedByName = spec.byName
		at := spec.approvedAt
		doc.ApprovedAt = &at
	}
	if spec.rejectedBy != nil {
		doc.RejectedBy = spec.rejectedBy
		doc.RejectedByName = spec.byName
		at := spec.rejectedAt
		doc.RejectedAt = &at
	}
	if err := st.InsertDocument(context.Background(), doc); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

// A translator with no completed work gets rate 0, not NaN or an error.
func TestApprovalRateZeroDenominator(t *testing.T) {
	st := store.NewMemoryStore()
	agg := NewAggregator(st)

	ts, err := agg.TranslatorStats(context.Background(), primitive.NewObjectID(), models.PeriodDay)
	if err != nil {
		t.Fatalf("translator stats: %v", err)
	}
	if ts.Approved != 0 || ts.Rejected != 0 {
		t.Fatalf("counts = %d/%d, want 0/0", ts.Approved, ts.Rejected)
	}
	if ts.ApprovalRate != 0 {
		t.Errorf("approvalRate = %v, want 0", ts.ApprovalRate)
	}
	if math.IsNaN(ts.ApprovalRate) || math.IsNaN(ts.AvgReviewTimeMinutes) {
		t.Error("stats must never be NaN")
	}
}

func TestTranslatorStatsWindowing(t *testing.T) {
	st := store.NewMemoryStore()
	agg := NewAggregator(st)
	alice := primitive.NewObjectID()
	today := models.PeriodDay.Start(time.Now())
	yesterday := today.Add(-2 * time.Hour)

	// Two approvals today, one yesterday, one rejection today, one in flight.
	for i := 0; i < 2; i++ {
		approvedAt := today.Add(time.Duration(i+1) * time.Minute)
		seed(t, st, docSpec{
			status:     models.StatusApproved,
			approvedBy: &alice, approvedAt: approvedAt,
			assignedAt: approvedAt.Add(-30 * time.Minute),
			byName:     "Alice",
		})
	}
	seed(t, st, docSpec{
		status:     models.StatusApproved,
		approvedBy: &alice, approvedAt: yesterday,
		assignedAt: yesterday.Add(-time.Hour),
		byName:     "Alice",
	})
	seed(t, st, docSpec{
		status:     models.StatusRejected,
		rejectedBy: &alice, rejectedAt: today.Add(time.Minute),
		byName:     "Alice",
	})
	seed(t, st, docSpec{
		status:     models.StatusInReview,
		assignedTo: &alice, assignedAt: today.Add(time.Minute),
		byName:     "Alice",
	})

	ts, err := agg.TranslatorStats(context.Background(), alice, models.PeriodDay)
	if err != nil {
		t.Fatalf("translator stats: %v", err)
	}
	if ts.Approved != 2 {
		t.Errorf("approved = %d, want 2 (yesterday excluded)", ts.Approved)
	}
	if ts.Rejected != 1 {
		t.Errorf("rejected = %d, want 1", ts.Rejected)
	}
	if ts.InProgress != 1 {
		t.Errorf("inProgress = %d, want 1", ts.InProgress)
	}
	// All-time counters ignore the window.
	if ts.TotalApproved != 3 || ts.TotalRejected != 1 {
		t.Errorf("totals = %d/%d, want 3/1", ts.TotalApproved, ts.TotalRejected)
	}
	if want := 2.0 / 3.0; math.Abs(ts.ApprovalRate-want) > 1e-9 {
		t.Errorf("approvalRate = %v, want %v", ts.ApprovalRate, want)
	}
	// Both windowed approvals took 30 minutes.
	if math.Abs(ts.AvgReviewTimeMinutes-30) > 1e-6 {
		t.Errorf("avgReviewTimeMinutes = %v, want 30", ts.AvgReviewTimeMinutes)
	}
}

// Review time measures the claim episode that led to approval: assignedAt
// reflects the most recent claim, so a released and re-claimed document
// counts only its final episode.
func TestAvgReviewTimeUsesCurrentEpisode(t *testing.T) {
	st := store.NewMemoryStore()
	agg := NewAggregator(st)
	alice := primitive.NewObjectID()
	now := time.Now().UTC()

	seed(t, st, docSpec{
		status:     models.StatusApproved,
		approvedBy: &alice, approvedAt: now,
		assignedAt: now.Add(-15 * time.Minute), // re-claimed 15 min ago, first claim days earlier
		byName:     "Alice",
	})

	ts, err := agg.TranslatorStats(context.Background(), alice, models.PeriodAll)
	if err != nil {
		t.Fatalf("translator stats: %v", err)
	}
	if math.Abs(ts.AvgReviewTimeMinutes-15) > 1e-6 {
		t.Errorf("avgReviewTimeMinutes = %v, want 15", ts.AvgReviewTimeMinutes)
	}
}

// Leaderboard for period=day: A with 3 approvals today (plus 1 yesterday)
// ranks above B with 2 today, and yesterday's approval is not counted.
func TestLeaderboardDayWindow(t *testing.T) {
	st := store.NewMemoryStore()
	agg := NewAggregator(st)
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	today := models.PeriodDay.Start(time.Now())
	yesterday := today.Add(-2 * time.Hour)

	for i := 0; i < 3; i++ {
		seed(t, st, docSpec{status: models.StatusApproved, approvedBy: &a, approvedAt: today.Add(time.Duration(i+1) * time.Minute), byName: "A"})
	}
	seed(t, st, docSpec{status: models.StatusApproved, approvedBy: &a, approvedAt: yesterday, byName: "A"})
	for i := 0; i < 2; i++ {
		seed(t, st, docSpec{status: models.StatusApproved, approvedBy: &b, approvedAt: today.Add(time.Duration(i+1) * time.Minute), byName: "B"})
	}

	entries, err := agg.Leaderboard(context.Background(), models.PeriodDay, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].TranslatorID != a.Hex() || entries[0].DocumentsApproved != 3 {
		t.Errorf("entries[0] = %+v, want A with 3", entries[0])
	}
	if entries[1].TranslatorID != b.Hex() || entries[1].DocumentsApproved != 2 {
		t.Errorf("entries[1] = %+v, want B with 2", entries[1])
	}
}

// Ties go to the translator with the earliest approval in the window.
func TestLeaderboardTieBreak(t *testing.T) {
	st := store.NewMemoryStore()
	agg := NewAggregator(st)
	early := primitive.NewObjectID()
	late := primitive.NewObjectID()
	now := time.Now().UTC()

	seed(t, st, docSpec{status: models.StatusApproved, approvedBy: &late, approvedAt: now.Add(-time.Minute), byName: "Late"})
	seed(t, st, docSpec{status: models.StatusApproved, approvedBy: &early, approvedAt: now.Add(-2 * time.Hour), byName: "Early"})

	entries, err := agg.Leaderboard(context.Background(), models.PeriodAll, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].TranslatorID != early.Hex() {
		t.Errorf("entries[0] = %+v, want the earlier approver first", entries[0])
	}
}

func TestLeaderboardLimit(t *testing.T) {
	st := store.NewMemoryStore()
	agg := NewAggregator(st)
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		id := primitive.NewObjectID()
		seed(t, st, docSpec{status: models.StatusApproved, approvedBy: &id, approvedAt: now.Add(-time.Minute), byName: "T"})
	}

	entries, err := agg.Leaderboard(context.Background(), models.PeriodAll, 3)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("entries = %d, want 3", len(entries))
	}
}

func TestQueueStats(t *testing.T) {
	st := store.NewMemoryStore()
	agg := NewAggregator(st)
	alice := primitive.NewObjectID()
	now := time.Now().UTC()

	seed(t, st, docSpec{status: models.StatusPendingReview})
	seed(t, st, docSpec{status: models.StatusAICompleted})
	seed(t, st, docSpec{status: models.StatusAICompleted})
	seed(t, st, docSpec{status: models.StatusInReview, assignedTo: &alice, assignedAt: now, byName: "Alice"})
	seed(t, st, docSpec{status: models.StatusApproved, approvedBy: &alice, approvedAt: now, byName: "Alice"})
	// Approved long ago, outside today's window.
	seed(t, st, docSpec{status: models.StatusApproved, approvedBy: &alice, approvedAt: now.Add(-48 * time.Hour), byName: "Alice"})

	qs, err := agg.QueueStats(context.Background())
	if err != nil {
		t.Fatalf("queue stats: %v", err)
	}
	if qs.PendingReview != 1 || qs.AICompleted != 2 || qs.InReview != 1 {
		t.Errorf("queue counts = %+v", qs)
	}
	if qs.Approved != 2 {
		t.Errorf("approved = %d, want 2", qs.Approved)
	}
	if qs.ApprovedToday != 1 {
		t.Errorf("approvedToday = %d, want 1", qs.ApprovedToday)
	}
}
