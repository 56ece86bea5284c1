package models

import (
	"testing"
	"time"
)

func TestMonthKey(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		want string
	}{
		{"plain date", time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC), "2025-10"},
		{"new year's eve", time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC), "2025-12"},
		{
			// A late-evening eastern-time session is already January in
			// UTC terms only if the instant itself crosses midnight.
			"timezone normalized to utc",
			time.Date(2025, 12, 31, 20, 0, 0, 0, time.FixedZone("EST", -5*3600)),
			"2026-01",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthKey(tt.date); got != tt.want {
				t.Errorf("MonthKey(%v) = %q, want %q", tt.date, got, tt.want)
			}
		})
	}
}

func TestStatBlockWinPercentage(t *testing.T) {
	tests := []struct {
		name  string
		block StatBlock
		want  float64
	}{
		{"empty", StatBlock{}, 0},
		{"pushes excluded", StatBlock{Wins: 3, Losses: 1, Pushes: 6}, 0.75},
		{"all losses", StatBlock{Losses: 4}, 0},
		{"only pushes", StatBlock{Pushes: 5}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.block.WinPercentage(); got != tt.want {
				t.Errorf("WinPercentage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyDeltaHitsBothBlocks(t *testing.T) {
	entry := NewUserLedgerEntry("alice", "Alice")
	delta := StatDelta{Wins: 2, DoubleDownWins: 1}

	entry.ApplyDelta(delta, "2025-12")

	if entry.Wins != 2 || entry.DoubleDownWins != 1 {
		t.Errorf("all-time block = %+v", entry.StatBlock)
	}
	monthly, ok := entry.MonthlyBlockIfExists("2025-12")
	if !ok || monthly.Wins != 2 || monthly.DoubleDownWins != 1 {
		t.Errorf("monthly block = %+v", monthly)
	}

	entry.ApplyDelta(delta.Negate(), "2025-12")
	if entry.StatBlock != (StatBlock{}) {
		t.Errorf("negated delta did not zero the all-time block: %+v", entry.StatBlock)
	}
	if monthly, _ := entry.MonthlyBlockIfExists("2025-12"); *monthly != (StatBlock{}) {
		t.Errorf("negated delta did not zero the month bucket: %+v", monthly)
	}
}

func TestMonthlyBlockIfExistsDoesNotGrow(t *testing.T) {
	entry := NewUserLedgerEntry("alice", "")
	if _, ok := entry.MonthlyBlockIfExists("2025-01"); ok {
		t.Fatal("untouched month should not exist")
	}
	if len(entry.Monthly) != 0 {
		t.Errorf("read created a bucket: %v", entry.Monthly)
	}
}

func TestLedgerEntryCloneIsIndependent(t *testing.T) {
	entry := NewUserLedgerEntry("alice", "Alice")
	entry.ApplyDelta(StatDelta{Wins: 1}, "2025-12")

	clone := entry.Clone()
	clone.Wins = 50
	clone.MonthlyBlock("2025-12").Losses = 9

	if entry.Wins != 1 {
		t.Errorf("clone mutation reached the original all-time block: %+v", entry.StatBlock)
	}
	if monthly, _ := entry.MonthlyBlockIfExists("2025-12"); monthly.Losses != 0 {
		t.Errorf("clone mutation reached the original month bucket: %+v", monthly)
	}
}

func TestStatDeltaIsZero(t *testing.T) {
	if !(StatDelta{}).IsZero() {
		t.Error("empty delta should be zero")
	}
	if (StatDelta{Pushes: 1}).IsZero() {
		t.Error("non-empty delta reported zero")
	}
}
