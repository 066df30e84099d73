package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Aldiyar97/quiz-league/models"
	"github.com/Aldiyar97/quiz-league/services"
)

func TestNormalizeWeekStart(t *testing.T) {
	monday := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   time.Time
	}{
		{"monday midnight stays", monday},
		{"wednesday afternoon", time.Date(2026, 8, 26, 15, 30, 12, 0, time.UTC)},
		{"sunday night", time.Date(2026, 8, 30, 23, 59, 59, 0, time.UTC)},
		{"non-utc location", time.Date(2026, 8, 24, 1, 0, 0, 0, time.FixedZone("CET", 3600))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := services.NormalizeWeekStart(tt.in)
			if !got.Equal(monday) {
				t.Fatalf("NormalizeWeekStart(%v) = %v, want %v", tt.in, got, monday)
			}
			if got.Weekday() != time.Monday {
				t.Fatalf("normalized day is %v, want Monday", got.Weekday())
			}
		})
	}
}

func TestBuildRankings(t *testing.T) {
	members := []services.RankingMember{
		{UserID: 7, Username: "gabin", Points: 250},
		{UserID: 2, Username: "alice", Points: 400},
		{UserID: 5, Username: "badia", Points: 250},
		{UserID: 9, Username: "chris", Points: 180},
	}
	previous := map[int]int{2: 3, 5: 1}

	entries := services.BuildRankings(members, previous)

	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4", len(entries))
	}
	// Dense ranks 1..N, points descending.
	for i, e := range entries {
		if e.Rank != i+1 {
			t.Fatalf("entry %d has rank %d, want %d", i, e.Rank, i+1)
		}
		if i > 0 && entries[i-1].Points < e.Points {
			t.Fatalf("entries not sorted by points at index %d", i)
		}
	}
	if entries[0].UserID != 2 {
		t.Fatalf("rank 1 is user %d, want 2", entries[0].UserID)
	}
	// Equal points break ties on lower user id.
	if entries[1].UserID != 5 || entries[2].UserID != 7 {
		t.Fatalf("tie-break wrong: got users %d, %d at ranks 2-3, want 5, 7",
			entries[1].UserID, entries[2].UserID)
	}

	if entries[0].PreviousRank == nil || *entries[0].PreviousRank != 3 {
		t.Fatalf("user 2 previous rank = %v, want 3", entries[0].PreviousRank)
	}
	if entries[0].Status != models.RankingStatusNew {
		t.Fatalf("freshly built entry has status %q, want %q", entries[0].Status, models.RankingStatusNew)
	}
	if entries[3].PreviousRank != nil {
		t.Fatalf("user 9 has previous rank %d, want none", *entries[3].PreviousRank)
	}
}

func TestBuildRankingsEmpty(t *testing.T) {
	entries := services.BuildRankings(nil, nil)
	if len(entries) != 0 {
		t.Fatalf("got %d entries for no members, want 0", len(entries))
	}
}

func TestBuildWeekSnapshotsEveryDivision(t *testing.T) {
	divisionRepo := newFakeDivisionRepo(services.DefaultLadder...)
	userRepo := newFakeUserRepo()
	rankingRepo := newFakeRankingRepo()
	svc := services.NewRankingService(divisionRepo, userRepo, rankingRepo, nil, nil, discardLogger())
	ctx := context.Background()

	userRepo.add("alice", 1200, models.LifePool{})
	userRepo.add("badia", 160, models.LifePool{})
	userRepo.add("chris", 200, models.LifePool{})
	userRepo.add("dina", 40, models.LifePool{})
	userRepo.add("elsa", 3, models.LifePool{}) // below every floor, ranked nowhere

	weekStart := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC) // a Wednesday

	result, err := svc.BuildWeek(ctx, weekStart)
	if err != nil {
		t.Fatalf("build week: %v", err)
	}
	if result.Divisions != 4 {
		t.Fatalf("snapshotted %d divisions, want 4", result.Divisions)
	}
	if result.Members != 4 {
		t.Fatalf("ranked %d members, want 4", result.Members)
	}
	wantStart := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	if !result.WeekStart.Equal(wantStart) {
		t.Fatalf("week start = %v, want %v", result.WeekStart, wantStart)
	}

	divisions, _ := divisionRepo.List(ctx)
	var argentID int
	for _, d := range divisions {
		if d.Name == "Argent" {
			argentID = d.ID
		}
	}
	snapshot, err := rankingRepo.GetByWeekAndDivision(ctx, nil, wantStart, argentID)
	if err != nil {
		t.Fatalf("argent snapshot: %v", err)
	}
	if len(snapshot.Entries) != 2 {
		t.Fatalf("argent has %d entries, want 2", len(snapshot.Entries))
	}
	if snapshot.Entries[0].Username != "chris" || snapshot.Entries[1].Username != "badia" {
		t.Fatalf("argent order wrong: %q then %q", snapshot.Entries[0].Username, snapshot.Entries[1].Username)
	}
}

func TestBuildWeekCarriesPreviousRanks(t *testing.T) {
	divisionRepo := newFakeDivisionRepo(services.DefaultLadder...)
	userRepo := newFakeUserRepo()
	rankingRepo := newFakeRankingRepo()
	svc := services.NewRankingService(divisionRepo, userRepo, rankingRepo, nil, nil, discardLogger())
	ctx := context.Background()

	a := userRepo.add("alice", 100, models.LifePool{})
	b := userRepo.add("badia", 80, models.LifePool{})

	week1 := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)
	if _, err := svc.BuildWeek(ctx, week1); err != nil {
		t.Fatalf("build week 1: %v", err)
	}

	// Overtake during the week.
	if err := userRepo.SetPoints(ctx, nil, b.ID, 120); err != nil {
		t.Fatalf("set points: %v", err)
	}

	week2 := week1.AddDate(0, 0, 7)
	if _, err := svc.BuildWeek(ctx, week2); err != nil {
		t.Fatalf("build week 2: %v", err)
	}

	divisions, _ := divisionRepo.List(ctx)
	var bronzeID int
	for _, d := range divisions {
		if d.Name == "Bronze" {
			bronzeID = d.ID
		}
	}
	snapshot, err := rankingRepo.GetByWeekAndDivision(ctx, nil, week2, bronzeID)
	if err != nil {
		t.Fatalf("week 2 snapshot: %v", err)
	}
	first := snapshot.EntryForUser(b.ID)
	if first == nil || first.Rank != 1 {
		t.Fatalf("badia entry = %+v, want rank 1", first)
	}
	if first.PreviousRank == nil || *first.PreviousRank != 2 {
		t.Fatalf("badia previous rank = %v, want 2", first.PreviousRank)
	}
	second := snapshot.EntryForUser(a.ID)
	if second == nil || second.PreviousRank == nil || *second.PreviousRank != 1 {
		t.Fatalf("alice previous rank = %+v, want 1", second)
	}
}

func TestBuildWeekRebuildOverwritesUnprocessed(t *testing.T) {
	divisionRepo := newFakeDivisionRepo(services.DefaultLadder...)
	userRepo := newFakeUserRepo()
	rankingRepo := newFakeRankingRepo()
	svc := services.NewRankingService(divisionRepo, userRepo, rankingRepo, nil, nil, discardLogger())
	ctx := context.Background()

	u := userRepo.add("alice", 60, models.LifePool{})
	weekStart := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	if _, err := svc.BuildWeek(ctx, weekStart); err != nil {
		t.Fatalf("first build: %v", err)
	}
	if err := userRepo.SetPoints(ctx, nil, u.ID, 90); err != nil {
		t.Fatalf("set points: %v", err)
	}
	if _, err := svc.BuildWeek(ctx, weekStart); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	divisions, _ := divisionRepo.List(ctx)
	var bronzeID int
	for _, d := range divisions {
		if d.Name == "Bronze" {
			bronzeID = d.ID
		}
	}
	snapshot, err := rankingRepo.GetByWeekAndDivision(ctx, nil, weekStart, bronzeID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	entry := snapshot.EntryForUser(u.ID)
	if entry == nil || entry.Points != 90 {
		t.Fatalf("entry after rebuild = %+v, want 90 points", entry)
	}
}

func TestGetLeaderboardMissing(t *testing.T) {
	divisionRepo := newFakeDivisionRepo(services.DefaultLadder...)
	svc := services.NewRankingService(divisionRepo, newFakeUserRepo(), newFakeRankingRepo(), nil, nil, discardLogger())

	_, err := svc.GetLeaderboard(context.Background(), 1)
	if !errors.Is(err, services.ErrRankingNotFound) {
		t.Fatalf("got %v, want ErrRankingNotFound", err)
	}
}
