// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package convert_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/aihub/pkg/convert"
)

func TestToIntD(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{in: "", want: 7},
		{in: " 12 ", want: 12},
		{in: "-3", want: -3},
		{in: "abc", want: 7},
		{in: "1.5", want: 7},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, convert.ToIntD(tt.in, 7), tt.in)
	}
}

func TestToFloat64(t *testing.T) {
	assert.Equal(t, 4.5, convert.ToFloat64("4.5"))
	assert.Equal(t, 120000.0, convert.ToFloat64(" 120000 "))
	assert.Zero(t, convert.ToFloat64(""))
	assert.Zero(t, convert.ToFloat64("n/a"))
}
