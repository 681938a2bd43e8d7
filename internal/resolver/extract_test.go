package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPostTarget(t *testing.T) {
	tests := []struct {
		name       string
		doc        string
		wantAction string
		wantToken  string
	}{
		{
			name:       "form action with name-first token",
			doc:        `<form method="POST" action="https://kwik.cx/d/xyz"><input type="hidden" name="_token" value="abc123"></form>`,
			wantAction: "https://kwik.cx/d/xyz",
			wantToken:  "abc123",
		},
		{
			name:       "form action with value-first token",
			doc:        `<form action='https://kwik.cx/d/xyz'><input value='abc123' type='hidden' name='_token'></form>`,
			wantAction: "https://kwik.cx/d/xyz",
			wantToken:  "abc123",
		},
		{
			name:       "anchor fallback when no form",
			doc:        `<a href=x>"https://kwik.si/f/abcdef"</a><input name="_token" value="tok">`,
			wantAction: "https://kwik.si/f/abcdef",
			wantToken:  "tok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := ExtractPostTarget(tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAction, target.ActionURL)
			assert.Equal(t, tt.wantToken, target.Token)
		})
	}
}

func TestExtractPostTargetErrors(t *testing.T) {
	t.Run("missing post link", func(t *testing.T) {
		_, err := ExtractPostTarget(`<input name="_token" value="tok">`)
		assert.ErrorIs(t, err, ErrMissingPostLink)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := ExtractPostTarget(`<form action="https://kwik.cx/d/xyz"></form>`)
		assert.ErrorIs(t, err, ErrMissingToken)
	})
}
