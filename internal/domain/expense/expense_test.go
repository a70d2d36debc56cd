package expense_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/geocoder89/expensehub/internal/domain/expense"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  expense.Category
		ok    bool
	}{
		{name: "food", input: "Food & Dining", want: expense.CategoryFoodDining, ok: true},
		{name: "travel", input: "Travel", want: expense.CategoryTravel, ok: true},
		{name: "other", input: "Other", want: expense.CategoryOther, ok: true},
		{name: "unknown", input: "Groceries", ok: false},
		{name: "case_sensitive", input: "travel", ok: false},
		{name: "empty", input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := expense.ParseCategory(tt.input)

			if ok != tt.ok {
				t.Fatalf("ParseCategory(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Fatalf("ParseCategory(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCategoriesCoversAllNineValues(t *testing.T) {
	cats := expense.Categories()

	if len(cats) != 9 {
		t.Fatalf("expected 9 categories, got %d", len(cats))
	}

	seen := map[expense.Category]bool{}
	for _, c := range cats {
		if seen[c] {
			t.Fatalf("duplicate category %q", c)
		}
		seen[c] = true

		if _, ok := expense.ParseCategory(string(c)); !ok {
			t.Fatalf("category %q does not round-trip through ParseCategory", c)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "bare_iso_date",
			input: "2026-03-01",
			want:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "rfc3339",
			input: "2026-03-01T09:30:00Z",
			want:  time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		},
		{name: "garbage", input: "not-a-date", wantErr: true},
		{name: "us_format", input: "03/01/2026", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expense.ParseDate(tt.input)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDate(%q) expected error, got %v", tt.input, got)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseDate(%q) unexpected error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestAPIDateUnmarshalJSON(t *testing.T) {
	var payload struct {
		Date *expense.APIDate `json:"date"`
	}

	if err := json.Unmarshal([]byte(`{"date":"2026-03-01"}`), &payload); err != nil {
		t.Fatalf("unmarshal bare date: %v", err)
	}
	if payload.Date == nil || !payload.Date.Time().Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date: %+v", payload.Date)
	}

	if err := json.Unmarshal([]byte(`{"date":"nope"}`), &payload); err == nil {
		t.Fatalf("expected error for malformed date")
	}
}

func TestNewFromCreateRequest(t *testing.T) {
	req := expense.CreateExpenseRequest{
		Title:       "  Lunch  ",
		Amount:      12.5,
		Category:    "Food & Dining",
		Description: " team lunch ",
	}

	before := time.Now().UTC()
	e := expense.NewFromCreateRequest(req, "user-1")
	after := time.Now().UTC()

	if e.ID == "" {
		t.Fatalf("expected generated id")
	}
	if e.Title != "Lunch" {
		t.Fatalf("title not trimmed: %q", e.Title)
	}
	if e.Description != "team lunch" {
		t.Fatalf("description not trimmed: %q", e.Description)
	}
	if e.Category != expense.CategoryFoodDining {
		t.Fatalf("unexpected category: %q", e.Category)
	}
	if e.UserID != "user-1" {
		t.Fatalf("owner not set from caller identity: %q", e.UserID)
	}
	if e.Date.Before(before) || e.Date.After(after) {
		t.Fatalf("date should default to submission time, got %v", e.Date)
	}
}

func TestNewFromCreateRequestExplicitDate(t *testing.T) {
	when := time.Date(2025, 11, 5, 0, 0, 0, 0, time.UTC)

	req := expense.CreateExpenseRequest{
		Title:    "Train ticket",
		Amount:   42,
		Category: "Travel",
		Date:     expense.NewAPIDate(when),
	}

	e := expense.NewFromCreateRequest(req, "user-1")

	if !e.Date.Equal(when) {
		t.Fatalf("expected supplied date %v, got %v", when, e.Date)
	}
}
