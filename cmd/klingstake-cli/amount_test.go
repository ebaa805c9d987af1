package main

import (
	"testing"

	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

func TestParseUnits(t *testing.T) {
	tests := []struct {
		in       string
		decimals uint8
		want     string
		wantErr  bool
	}{
		{"1", 12, "1000000000000", false},
		{"1.5", 12, "1500000000000", false},
		{"0.000000000001", 12, "1", false},
		{".25", 2, "25", false},
		{"007", 0, "7", false},
		{"0", 6, "0", false},
		{"1.0000000000001", 12, "", true},
		{"-1", 12, "", true},
		{"abc", 12, "", true},
		{"", 12, "", true},
		{"340282366920938463463374607431768211456", 0, "", true}, // 2^128
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseUnits(tt.in, tt.decimals)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseUnits(%q) = %s, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseUnits(%q): %v", tt.in, err)
			}
			if got.String() != tt.want {
				t.Fatalf("parseUnits(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		units    uint64
		decimals uint8
		want     string
	}{
		{1_500_000_000_000, 12, "1.5"},
		{1, 12, "0.000000000001"},
		{0, 12, "0"},
		{42, 0, "42"},
		{100, 2, "1"},
	}
	for _, tt := range tests {
		if got := formatUnits(types.NewAmount(tt.units), tt.decimals); got != tt.want {
			t.Errorf("formatUnits(%d, %d) = %q, want %q", tt.units, tt.decimals, got, tt.want)
		}
	}
}
