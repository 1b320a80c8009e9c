package storage

import (
	"context"
	"testing"
	"time"
)

func TestMemoryPlanSnapshots(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if snap, _ := m.GetPlanSnapshot(ctx, "kamaze"); snap != nil {
		t.Fatalf("expected no snapshot before save, got %+v", snap)
	}

	old := PlanSnapshot{Source: "kamaze", Payload: []byte("old"), PlanCount: 3, FetchedAt: time.Now().Add(-time.Hour)}
	cur := PlanSnapshot{Source: "kamaze", Payload: []byte("new"), PlanCount: 5, FetchedAt: time.Now()}
	if err := m.SavePlanSnapshot(ctx, old); err != nil {
		t.Fatal(err)
	}
	if err := m.SavePlanSnapshot(ctx, cur); err != nil {
		t.Fatal(err)
	}

	got, err := m.GetPlanSnapshot(ctx, "kamaze")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || string(got.Payload) != "new" || got.PlanCount != 5 {
		t.Errorf("latest snapshot = %+v, want the newer payload", got)
	}

	sources, err := m.ListPlanSources(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 1 || sources[0] != "kamaze" {
		t.Errorf("sources = %v", sources)
	}
}

func TestMemoryTariffSnapshotLatestWins(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if snap, _ := m.GetTariffSnapshot(ctx); snap != nil {
		t.Fatalf("expected no tariff snapshot, got %+v", snap)
	}

	_ = m.SaveTariffSnapshot(ctx, TariffSnapshot{Source: "default", FetchedAt: time.Now().Add(-time.Hour)})
	_ = m.SaveTariffSnapshot(ctx, TariffSnapshot{Source: "iec-pdf", FetchedAt: time.Now()})

	got, err := m.GetTariffSnapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Source != "iec-pdf" {
		t.Errorf("latest tariff snapshot = %+v, want iec-pdf", got)
	}
}

func TestMemoryAnalysisRuns(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	base := time.Now()
	runs := []AnalysisRun{
		{ID: "r1", UserID: "u1", CreatedAt: base.Add(-2 * time.Hour)},
		{ID: "r2", UserID: "u2", CreatedAt: base.Add(-time.Hour)},
		{ID: "r3", UserID: "u1", CreatedAt: base},
	}
	for _, r := range runs {
		if err := m.SaveAnalysisRun(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	got, err := m.GetAnalysisRun(ctx, "r2")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.UserID != "u2" {
		t.Errorf("GetAnalysisRun(r2) = %+v", got)
	}

	list, err := m.ListAnalysisRuns(ctx, "u1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != "r3" || list[1].ID != "r1" {
		t.Errorf("user runs = %+v, want r3 then r1", list)
	}

	limited, err := m.ListAnalysisRuns(ctx, "", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 || limited[0].ID != "r3" {
		t.Errorf("limited runs = %+v", limited)
	}
}

func TestMemorySettingsAndUsers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.SetSetting(ctx, "tariff.vat", "0.17"); err != nil {
		t.Fatal(err)
	}
	if v, _ := m.GetSetting(ctx, "tariff.vat"); v != "0.17" {
		t.Errorf("setting = %q", v)
	}

	u := User{ID: "u1", Username: "dana", Email: "dana@example.com"}
	if err := m.CreateUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	if got, _ := m.GetUserByUsername(ctx, "dana"); got == nil || got.ID != "u1" {
		t.Errorf("GetUserByUsername = %+v", got)
	}
	if got, _ := m.GetUserByEmail(ctx, "missing@example.com"); got != nil {
		t.Errorf("unexpected user %+v", got)
	}
}
