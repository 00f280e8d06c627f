package library

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/vango-dev/querysync/internal/errors"
)

func TestMemoryFetcherLibraries(t *testing.T) {
	f := NewMemoryFetcher(SampleRows())
	ctx := context.Background()

	tests := []struct {
		filter string
		want   int
	}{
		{"", 6},
		{"   ", 6},
		{"central", 2},
		{"CENTRAL", 2},
		{"  north ", 1},
		{"nowhere", 0},
	}
	for _, tt := range tests {
		got, err := f.Libraries(ctx, tt.filter)
		if err != nil {
			t.Fatalf("Libraries(%q) error = %v", tt.filter, err)
		}
		if len(got) != tt.want {
			t.Errorf("Libraries(%q) = %d rows, want %d", tt.filter, len(got), tt.want)
		}
	}
}

func TestMemoryFetcherCells(t *testing.T) {
	f := NewMemoryFetcher(SampleRows(), WithCells("FullName"))
	rows, err := f.Libraries(context.Background(), "north")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].Cells.ObjectAddress != nil {
		t.Error("ObjectAddress returned although not requested")
	}
	if rows[0].Cells.FullName == "" {
		t.Error("FullName missing")
	}

	// Library returns the full row.
	full, err := f.Library(context.Background(), rows[0].ID())
	if err != nil {
		t.Fatal(err)
	}
	if full.Address() != "Dmitrovskoye Highway, 7" {
		t.Errorf("Address() = %q", full.Address())
	}
}

func TestMemoryFetcherLatencyHonoursContext(t *testing.T) {
	f := NewMemoryFetcher(SampleRows(), WithLatency(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.Libraries(ctx, ""); !stderrors.Is(err, context.Canceled) {
		t.Errorf("Libraries() error = %v, want context.Canceled", err)
	}
	if _, err := f.Count(ctx); !stderrors.Is(err, context.Canceled) {
		t.Errorf("Count() error = %v, want context.Canceled", err)
	}
}

func TestMemoryFetcherCount(t *testing.T) {
	f := NewMemoryFetcher(SampleRows())
	n, err := f.Count(context.Background())
	if err != nil || n != 6 {
		t.Errorf("Count() = %d, %v; want 6", n, err)
	}

	f.SetRows(nil)
	if n, _ := f.Count(context.Background()); n != 0 {
		t.Errorf("Count() after SetRows(nil) = %d, want 0", n)
	}
}

func TestLoadFixture(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.json")
	data := `[{"Number": 1, "global_id": 9, "Cells": {"FullName": "Test Library", "ObjectAddress": [{"Address": "Main St, 1"}]}}]`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	rows, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture() error = %v", err)
	}
	want := []ListItem{{
		Number:   1,
		GlobalID: 9,
		Cells: Cells{
			FullName:      "Test Library",
			ObjectAddress: []Address{{Address: "Main St, 1"}},
		},
	}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %+v, want %+v", rows, want)
	}
	if rows[0].ID() != "9" {
		t.Errorf("ID() = %q, want 9", rows[0].ID())
	}
}

func TestLoadFixtureErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{filepath.Join(dir, "missing.json"), bad} {
		if _, err := LoadFixture(path); !errors.IsCode(err, "Q032") {
			t.Errorf("LoadFixture(%s) error = %v, want Q032", filepath.Base(path), err)
		}
	}
}

func TestSampleRows(t *testing.T) {
	rows := SampleRows()
	if len(rows) != 6 {
		t.Fatalf("SampleRows() = %d rows, want 6", len(rows))
	}
	if rows[3].Address() != "Pokrovka Street, 3" {
		t.Errorf("first address = %q", rows[3].Address())
	}
	if (ListItem{}).Address() != "" {
		t.Error("Address() of a row without addresses should be empty")
	}
}
