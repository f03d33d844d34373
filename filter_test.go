// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package refrontier

import "testing"

func TestPathFilterMatch(t *testing.T) {
	t.Parallel()

	filter, err := newPathFilter(
		[]string{"*.bin", "dat/emd/", "/quest/**/*.jkr"},
		[]string{"*_old.bin", " "},
	)
	if err != nil {
		t.Fatalf("newPathFilter: %v", err)
	}

	cases := []struct {
		name string
		path string
		want bool
	}{
		{name: "extension rule", path: `stage\st101.bin`, want: true},
		{name: "case insensitive", path: "STAGE/ST101.BIN", want: true},
		{name: "dir-only rule", path: "dat/emd/em001.ecd", want: true},
		{name: "anchored root match", path: "quest/q01/a.jkr", want: true},
		{name: "anchored root miss", path: "x/quest/q01/a.jkr", want: false},
		{name: "exclude wins", path: "stage/st101_old.bin", want: false},
		{name: "no include match", path: "readme.txt", want: false},
		{name: "empty", path: "", want: false},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := filter.Match(tc.path)
			if got != tc.want {
				t.Fatalf("Match(%q) = %v, want %v", tc.path, got, tc.want)
			}
		})
	}
}

func TestPathFilterExcludeOnly(t *testing.T) {
	t.Parallel()

	filter, err := newPathFilter(nil, []string{"*.txt"})
	if err != nil {
		t.Fatalf("newPathFilter: %v", err)
	}

	if !filter.Match("dat/a.bin") {
		t.Fatal("dat/a.bin must pass without include rules")
	}
	if filter.Match("notes/a.txt") {
		t.Fatal("notes/a.txt must be excluded")
	}
}

func TestPathFilterEmpty(t *testing.T) {
	t.Parallel()

	filter, err := newPathFilter([]string{"", "  "}, nil)
	if err != nil {
		t.Fatalf("newPathFilter: %v", err)
	}
	if filter != nil {
		t.Fatal("blank patterns must produce a nil filter")
	}
	if !filter.Match("anything") {
		t.Fatal("nil filter must pass everything")
	}
}
