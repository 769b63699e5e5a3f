package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		page, size          int
		wantOffset, wantLim int
	}{
		{page: 0, size: 0, wantOffset: 0, wantLim: DefaultPageSize},
		{page: 1, size: 10, wantOffset: 0, wantLim: 10},
		{page: 3, size: 10, wantOffset: 20, wantLim: 10},
		{page: 2, size: 1000, wantOffset: MaxPageSize, wantLim: MaxPageSize},
	}
	for _, tt := range tests {
		off, lim := Calculate(tt.page, tt.size)
		assert.Equal(t, tt.wantOffset, off)
		assert.Equal(t, tt.wantLim, lim)
	}
}

func TestParseIntDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 5, ParseIntDefault("", 5))
	assert.Equal(t, 5, ParseIntDefault("x", 5))
	assert.Equal(t, 7, ParseIntDefault("7", 5))
}
