package main

import (
	"testing"

	"github.com/buibui/buibui/internal/monitor"
)

func TestParseSort(t *testing.T) {
	cases := []struct {
		spec       string
		wantBy     string
		wantDesc   bool
		wantFailed bool
	}{
		{"", monitor.SortDefault, false, false},
		{"pnl_pct", monitor.SortPnLPct, true, false},
		{"pnl_pct:asc", monitor.SortPnLPct, false, false},
		{"pnl_pct:desc", monitor.SortPnLPct, true, false},
		{"sl_usd", monitor.SortSLUSD, true, false},
		{"sl_usd:asc", monitor.SortSLUSD, false, false},
		{"margin", "", false, true},
		{"pnl_pct:sideways", "", false, true},
	}

	for _, tc := range cases {
		t.Run(tc.spec, func(t *testing.T) {
			by, desc, err := parseSort(tc.spec)
			if tc.wantFailed {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseSort failed: %v", err)
			}
			if by != tc.wantBy || desc != tc.wantDesc {
				t.Errorf("parseSort(%q) = %q/%v, want %q/%v",
					tc.spec, by, desc, tc.wantBy, tc.wantDesc)
			}
		})
	}
}
