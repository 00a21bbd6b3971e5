package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", []string{}},
		{"a", []string{"a"}},
		{" a , b ,c", []string{"a", "b", "c"}},
		{"a,,b, ,", []string{"a", "b"}},
		{"dup, dup", []string{"dup", "dup"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseTags(tt.input), "input %q", tt.input)
	}
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{}, NormalizeTags(nil))
	assert.Equal(t, []string{"x", "y"}, NormalizeTags([]string{" x", "", "y "}))
}
