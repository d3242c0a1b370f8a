package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"ledger/internal/core"
)

const testOwner = "5a0c3d1e-2b4f-4a6d-8e9f-0a1b2c3d4e5f"

func TestDecodeTransactionRequest(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantErr  error
		wantCent int64
	}{
		{"number amount", `{"kind":"expense","amount":12.5,"date":"2024-03-01"}`, nil, 1250},
		{"string amount with comma", `{"kind":"expense","amount":"12,345","date":"2024-03-01"}`, nil, 1235},
		{"negative amount", `{"kind":"expense","amount":-1,"date":"2024-03-01"}`, core.ErrInvalidAmount, 0},
		{"bad date", `{"kind":"expense","amount":1,"date":"01/03/2024"}`, core.ErrInvalidDate, 0},
		{"unknown field", `{"kind":"expense","amount":1,"owner":"x"}`, core.ErrValidation, 0},
		{"malformed", `{"kind":`, core.ErrValidation, 0},
		{"empty", ``, core.ErrValidation, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			got, err := DecodeTransactionRequest(httptest.NewRecorder(), req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Amount.Cents != tt.wantCent {
				t.Errorf("Amount = %d, want %d", got.Amount.Cents, tt.wantCent)
			}
		})
	}
}

func TestTransactionRequest_ToTransaction(t *testing.T) {
	req := TransactionRequest{
		Kind:        " Income ",
		Category:    "  Salary\x00 ",
		Amount:      core.Money{Cents: 100},
		Date:        core.NewDate(2024, 1, 31),
		Description: "pay\x07check",
		IsRecurring: true,
		Frequency:   "Monthly",
	}
	tx, err := req.ToTransaction(testOwner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Kind != core.Income || tx.Frequency != core.Monthly {
		t.Errorf("Kind/Frequency = %q/%q", tx.Kind, tx.Frequency)
	}
	if tx.Category != "Salary" || tx.Description != "paycheck" {
		t.Errorf("sanitized = %q/%q", tx.Category, tx.Description)
	}
	if tx.Owner != testOwner {
		t.Errorf("Owner = %q", tx.Owner)
	}

	if _, err := (TransactionRequest{Kind: "transfer"}).ToTransaction(testOwner); !errors.Is(err, core.ErrInvalidKind) {
		t.Errorf("kind error = %v", err)
	}
	if _, err := (TransactionRequest{Kind: "expense", Frequency: "hourly"}).ToTransaction(testOwner); !errors.Is(err, core.ErrInvalidFrequency) {
		t.Errorf("frequency error = %v", err)
	}
}

func TestParseTopParam(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"3", 3, false},
		{"0", 0, true},
		{"-2", 0, true},
		{"many", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseTopParam(url.Values{"top": {tt.raw}})
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("top = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseRefParam(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

	got, err := ParseRefParam(url.Values{}, now)
	if err != nil || !got.Equal(now) {
		t.Errorf("blank ref = %v, %v", got, err)
	}

	got, err = ParseRefParam(url.Values{"ref": {"2023-02-10"}}, now)
	if err != nil || got.Year() != 2023 || got.Month() != time.February {
		t.Errorf("ref = %v, %v", got, err)
	}

	if _, err := ParseRefParam(url.Values{"ref": {"June"}}, now); !errors.Is(err, core.ErrInvalidDate) {
		t.Errorf("invalid ref error = %v", err)
	}
}

func TestSortByDateDesc(t *testing.T) {
	txs := []core.Transaction{
		{ID: "undated"},
		{ID: "old", Date: core.NewDate(2024, 1, 1)},
		{ID: "new", Date: core.NewDate(2024, 3, 1)},
		{ID: "new-2", Date: core.NewDate(2024, 3, 1)},
	}
	sortByDateDesc(txs)

	want := []string{"new", "new-2", "old", "undated"}
	for i, id := range want {
		if txs[i].ID != id {
			t.Errorf("position %d = %q, want %q", i, txs[i].ID, id)
		}
	}
}
