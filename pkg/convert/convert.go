// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package convert parses loosely typed strings (query parameters, legacy meta
values) without surfacing errors.

Malformed input yields the fallback. Do not use it where a malformed value must
be told apart from a missing one.
*/
package convert

import (
	"strconv"
	"strings"
)

// ToIntD parses s as an integer, returning def when s is empty or malformed.
func ToIntD(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// ToFloat64 parses s as a float. Empty or malformed input yields 0.
func ToFloat64(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
