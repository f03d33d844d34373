// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package refrontier

import (
	"fmt"

	"github.com/woozymasta/pathrules"
)

// pathFilter holds compiled include/exclude rules for directory walks.
type pathFilter struct {
	matcher *pathrules.Matcher
}

// newPathFilter compiles include and exclude patterns; nil means everything passes.
func newPathFilter(include, exclude []string) (*pathFilter, error) {
	rules := make([]pathrules.Rule, 0, len(include)+len(exclude))
	rules = appendRules(rules, include, pathrules.ActionInclude)
	rules = appendRules(rules, exclude, pathrules.ActionExclude)
	if len(rules) == 0 {
		return nil, nil
	}

	defaultAction := pathrules.ActionInclude
	if hasPatterns(include) {
		defaultAction = pathrules.ActionExclude
	}

	matcher, err := pathrules.NewMatcher(rules, pathrules.MatcherOptions{
		CaseInsensitive: true,
		DefaultAction:   defaultAction,
	})
	if err != nil {
		return nil, fmt.Errorf("compile path rules: %w", err)
	}

	return &pathFilter{matcher: matcher}, nil
}

// appendRules normalizes patterns and drops empty ones.
func appendRules(rules []pathrules.Rule, patterns []string, action pathrules.Action) []pathrules.Rule {
	for _, p := range patterns {
		pattern := normalizePathForMatching(p)
		if pattern == "" {
			continue
		}

		rules = append(rules, pathrules.Rule{Action: action, Pattern: pattern})
	}

	return rules
}

// hasPatterns reports whether patterns has at least one non-empty entry.
func hasPatterns(patterns []string) bool {
	for _, p := range patterns {
		if normalizePathForMatching(p) != "" {
			return true
		}
	}

	return false
}

// Match reports whether rel passes the filter.
func (f *pathFilter) Match(rel string) bool {
	if f == nil || f.matcher == nil {
		return true
	}

	candidate := NormalizePath(rel)
	if candidate == "" {
		return false
	}

	return f.matcher.Included(candidate, false)
}
