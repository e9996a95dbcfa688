package cli

import (
	"strings"
	"testing"

	"github.com/mmynk/splitledger/internal/money"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"2023-11-14", 1699920000, false},
		{" 1970-01-02 ", 86400, false},
		{"14/11/2023", 0, true},
		{"2023-02-30", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDate(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(1700000000); got != "2023-11-14" {
		t.Errorf("FormatDate = %q, want 2023-11-14", got)
	}
	if got := FormatDate(0); got != "-" {
		t.Errorf("FormatDate(0) = %q, want -", got)
	}
}

func TestFormatNet(t *testing.T) {
	eur := money.Currency{Code: "EUR", Places: 2}
	tests := []struct {
		in   string
		want string
	}{
		{"45", "+45.00"},
		{"-15.5", "-15.50"},
		{"0", "0.00"},
	}
	for _, tt := range tests {
		if got := FormatNet(eur, money.MustParse(tt.in)); got != tt.want {
			t.Errorf("FormatNet(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatRange(t *testing.T) {
	tests := []struct {
		from, to int64
		want     string
	}{
		{0, 0, "all time"},
		{86400, 0, "since 1970-01-02"},
		{0, 86400, "before 1970-01-02"},
		{0 + 86400, 2 * 86400, "1970-01-02 to 1970-01-03"},
	}
	for _, tt := range tests {
		if got := FormatRange(tt.from, tt.to); got != tt.want {
			t.Errorf("FormatRange(%d, %d) = %q, want %q", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("Groceries", 5); got != "Groc…" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("Rent", 10); got != "Rent" {
		t.Errorf("Truncate = %q", got)
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Name", "Net"},
		Rows:    [][]string{{"Alice", "+45.00"}, {"---"}, {"Bob", "-15.00"}},
	})
	for _, want := range []string{"Alice", "+45.00", "Bob", "-15.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if lines := strings.Count(out, "\n"); lines != 7 {
		t.Errorf("table has %d lines, want 7:\n%s", lines, out)
	}

	if RenderTable(Table{}) != "" {
		t.Error("empty table should render nothing")
	}
}
