package resolver

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeFixture runs the inverse of the decoder's cipher: each rune becomes
// offset+code expressed in the given base, digits mapped onto the alphabet
// key, terminated by the sentinel at key[base].
func encodeFixture(t *testing.T, text, key string, offset int64, base int) string {
	t.Helper()
	keyRunes := []rune(key)
	require.Greater(t, len(keyRunes), base, "key must contain the sentinel position")
	sentinel := keyRunes[base]

	var encoded strings.Builder
	for _, r := range text {
		n := int64(r) + offset
		var digits []int64
		if n == 0 {
			digits = []int64{0}
		}
		for n > 0 {
			digits = append([]int64{n % int64(base)}, digits...)
			n /= int64(base)
		}
		for _, d := range digits {
			encoded.WriteRune(keyRunes[d])
		}
		encoded.WriteRune(sentinel)
	}
	return encoded.String()
}

func TestDecodePayloadRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		key    string
		offset int64
		base   int
	}{
		{
			name:   "plain html",
			text:   `<form action="https://kwik.cx/d/abc123"><input name="_token" value="tok"></form>`,
			key:    "abcdefgh",
			offset: 0,
			base:   7,
		},
		{
			name:   "with offset",
			text:   "direct link body",
			key:    "qwertyuio",
			offset: 37,
			base:   8,
		},
		{
			name:   "unicode code points",
			text:   "título 動画ダウンロード",
			key:    "zxcvbnmas",
			offset: 11,
			base:   8,
		},
		{
			name:   "empty input",
			text:   "",
			key:    "abcdefgh",
			offset: 5,
			base:   7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := &PackedPayload{
				Encoded:     encodeFixture(t, tt.text, tt.key, tt.offset, tt.base),
				AlphabetKey: tt.key,
				Offset:      tt.offset,
				Base:        tt.base,
			}
			decoded, err := DecodePayload(payload)
			require.NoError(t, err)
			assert.Equal(t, tt.text, decoded)

			// Deterministic over the same payload.
			again, err := DecodePayload(payload)
			require.NoError(t, err)
			assert.Equal(t, decoded, again)
		})
	}
}

func TestDecodePayloadSentinelOutOfRange(t *testing.T) {
	_, err := DecodePayload(&PackedPayload{
		Encoded:     "abc",
		AlphabetKey: "abcdef",
		Offset:      0,
		Base:        6,
	})
	var baseErr *BaseIndexError
	require.ErrorAs(t, err, &baseErr)
	assert.Equal(t, 6, baseErr.Base)
}

func TestDecodePayloadMalformedCodePoint(t *testing.T) {
	// Token value 1 minus offset 100 is negative; the decoder substitutes
	// U+0000 instead of failing.
	decoded, err := DecodePayload(&PackedPayload{
		Encoded:     "bh",
		AlphabetKey: "abcdefgh",
		Offset:      100,
		Base:        7,
	})
	require.NoError(t, err)
	assert.Equal(t, "\x00", decoded)
}

func TestDecodePayloadUnknownCharacterIsZero(t *testing.T) {
	// 'Z' is not in the key, so it contributes digit value 0; "bZ" reads as
	// "10" in base 7.
	decoded, err := DecodePayload(&PackedPayload{
		Encoded:     "bZh",
		AlphabetKey: "abcdefgh",
		Offset:      0,
		Base:        7,
	})
	require.NoError(t, err)
	assert.Equal(t, string(rune(7)), decoded)
}

func TestFindPackedPayload(t *testing.T) {
	t.Run("matches signature", func(t *testing.T) {
		body := `<script>eval(function(p,a,c,k,e,d){}("bcdh",36,"abcdefgh",17,7,2))</script>`
		payload, found, err := FindPackedPayload(body)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "bcdh", payload.Encoded)
		assert.Equal(t, "abcdefgh", payload.AlphabetKey)
		assert.Equal(t, int64(17), payload.Offset)
		assert.Equal(t, 7, payload.Base)
	})

	t.Run("no signature", func(t *testing.T) {
		_, found, err := FindPackedPayload(`<html><body>nothing packed here</body></html>`)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("offset overflow is a configuration error", func(t *testing.T) {
		body := `("bcdh",36,"abcdefgh",99999999999999999999999999,7,2)`
		_, found, err := FindPackedPayload(body)
		assert.True(t, found)
		assert.ErrorIs(t, err, ErrInvalidOffset)
	})
}
