package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeValue(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
		want  interface{}
	}{
		{"plain field untouched", "principal_id", int64(7), int64(7)},
		{"long token masked", "token", "eyJhbGciOiJIUzI1NiJ9.payload.sig", "eyJh***.sig"},
		{"short secret fully masked", "jwt_secret", "abc", "***"},
		{"case insensitive", "X-Authorization", "Bearer abcdefghijklmnop", "Bear***mnop"},
		{"non-string sensitive value", "password", 12345, "***REDACTED***"},
		{"nil sensitive value", "token", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeValue(tt.key, tt.value))
		})
	}
}

func TestMerge(t *testing.T) {
	merged := Merge(Fields{"a": 1, "b": 2}, nil, Fields{"b": 3})
	assert.Equal(t, Fields{"a": 1, "b": 3}, merged)
}
