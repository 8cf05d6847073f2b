package validation

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContributionLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "two lines", content: "Once upon a time.\nThe end."},
		{name: "crlf", content: "Once upon a time.\r\nThe end."},
		{name: "surrounding whitespace", content: "  \n Once upon a time.\nThe end.\n\n  "},
		{name: "single line", content: "Single line only.", wantErr: true},
		{name: "three lines", content: "Three\nlines\nhere", wantErr: true},
		{name: "blank middle line", content: "First\n\nSecond", wantErr: true},
		{name: "empty", content: "", wantErr: true},
		{name: "whitespace only", content: " \n\t\n ", wantErr: true},
		{name: "unicode separator", content: "First\u2028Second"},
		{name: "leading file separator", content: "\x1cSingle line only.", wantErr: true},
		{name: "trailing record separator", content: "Once\nEnd\x1e"},
		{name: "separators around one line", content: "\x1d\u2029Alone\u0085\x1f", wantErr: true},
		{name: "group separator between lines", content: "Once\x1dEnd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ContributionLines(tt.content)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrContributionLines)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeContribution_Trims(t *testing.T) {
	got, err := NormalizeContribution("\n  a\nb  \n")
	require.NoError(t, err)
	assert.Equal(t, "a\nb", got)
}

func TestNormalizeContribution_TrimsSeparators(t *testing.T) {
	got, err := NormalizeContribution("\x1c\u00a0a\nb\x1e")
	require.NoError(t, err)
	assert.Equal(t, "a\nb", got)
}

func TestTitle(t *testing.T) {
	got, err := Title("  The Beginning  ")
	require.NoError(t, err)
	assert.Equal(t, "The Beginning", got)

	_, err = Title("   ")
	assert.ErrorIs(t, err, ErrTitleRequired)

	_, err = Title(strings.Repeat("a", 256))
	assert.ErrorIs(t, err, ErrTitleTooLong)
}

func TestUsername(t *testing.T) {
	assert.NoError(t, Username("alice.b+c@d-e_f"))
	assert.ErrorIs(t, Username("has space"), ErrInvalidUsername)
	assert.ErrorIs(t, Username("semi;colon"), ErrInvalidUsername)
}

func TestRegister_UsernameTag(t *testing.T) {
	v := validator.New()
	require.NoError(t, Register(v))

	type request struct {
		Username string `validate:"required,username"`
	}

	assert.NoError(t, v.Struct(request{Username: "alice"}))
	assert.Error(t, v.Struct(request{Username: "bad name"}))
}
