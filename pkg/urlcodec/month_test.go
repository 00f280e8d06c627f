package urlcodec

import (
	"testing"
	"time"
)

func TestParseMonth(t *testing.T) {
	tests := []struct {
		input   string
		want    Month
		wantErr bool
	}{
		{"2024-03", Month{Year: 2024, Month: 2}, false},
		{"1999-12", Month{Year: 1999, Month: 11}, false},
		{"2024-01", Month{Year: 2024, Month: 0}, false},
		{"2024-00", Month{}, true},
		{"2024-13", Month{}, true},
		{"2024-3", Month{}, true},
		{"24-03", Month{}, true},
		{"2024-03-01", Month{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMonth(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMonth(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMonth(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMonthHelpers(t *testing.T) {
	m := NewMonth(2024, time.March)
	if m.Month != 2 {
		t.Errorf("NewMonth month index = %d, want 2", m.Month)
	}
	if m.String() != "2024-03" {
		t.Errorf("String() = %q", m.String())
	}
	if got := m.AddMonths(10); got != (Month{Year: 2025, Month: 0}) {
		t.Errorf("AddMonths(10) = %v, want 2025-01", got)
	}
	if !m.Before(Month{Year: 2024, Month: 3}) || m.Before(m) {
		t.Error("Before ordering is wrong")
	}
	if got := MonthOf(time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC)); got != m {
		t.Errorf("MonthOf = %v, want %v", got, m)
	}
}

func TestMonthText(t *testing.T) {
	var m Month
	if err := m.UnmarshalText([]byte("2023-07")); err != nil {
		t.Fatal(err)
	}
	b, _ := m.MarshalText()
	if string(b) != "2023-07" {
		t.Errorf("MarshalText = %s, want 2023-07", b)
	}
	if err := m.UnmarshalText([]byte("July")); err == nil {
		t.Error("expected error for July")
	}
}
