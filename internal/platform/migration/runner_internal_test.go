// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertToPgx5DSN(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@db:5432/aihub":   "pgx5://u:p@db:5432/aihub",
		"postgresql://u:p@db:5432/aihub": "pgx5://u:p@db:5432/aihub",
		"pgx5://u:p@db:5432/aihub":       "pgx5://u:p@db:5432/aihub",
		"host=db dbname=aihub":           "host=db dbname=aihub",
	}

	for input, want := range tests {
		assert.Equal(t, want, convertToPgx5DSN(input), input)
	}
}
