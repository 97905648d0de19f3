package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/authgate/pkg/errors"
)

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name          string
		header        string
		authorization string
		want          string
	}{
		{"token header", "abc.def.ghi", "", "abc.def.ghi"},
		{"token header wins", "abc", "Bearer xyz", "abc"},
		{"bearer", "", "Bearer xyz", "xyz"},
		{"bearer lower case", "", "bearer xyz", "xyz"},
		{"other scheme", "", "Basic dXNlcjpwYXNz", ""},
		{"scheme only", "", "Bearer", ""},
		{"nothing", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractToken(tt.header, tt.authorization))
		})
	}
}

type signup struct {
	Username string `validate:"required"`
	Email    string `validate:"required,email"`
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, ValidateStruct(signup{Username: "alice", Email: "alice@example.com"}))

	err := ValidateStruct(signup{Email: "nope"})
	require.ErrorIs(t, err, errors.ErrInvalidRequest)
	ae, ok := errors.AsAuthError(err)
	require.True(t, ok)
	assert.Equal(t, "is required", ae.Metadata()["username"])
	assert.Equal(t, "must be a valid email address", ae.Metadata()["email"])
}
