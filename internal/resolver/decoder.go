package resolver

import (
	"regexp"
	"strconv"
	"strings"
)

// PackedPayload holds the positional arguments of the obfuscated call pattern
// embedded in a mirror page.
type PackedPayload struct {
	Encoded     string
	AlphabetKey string
	Offset      int64
	Base        int
}

// decodeAlphabet maps decimal digit characters to values when re-reading a
// substituted token in the payload's base.
const decodeAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ+/"

// packedRe matches the five-argument packed call:
// ("<encoded>", <n>, "<alphabet key>", <offset>, <base>, <n>)
var packedRe = regexp.MustCompile(`\(\s*"([^",]*)"\s*,\s*\d+\s*,\s*"([^",]*)"\s*,\s*(\d+)\s*,\s*(\d+)\s*,\s*\d+[a-zA-Z]?\s*\)`)

// FindPackedPayload scans a fetched page body for the packed-payload
// signature. The second return is false when no signature is present; a
// matched signature with malformed numeric fields is an error.
func FindPackedPayload(body string) (*PackedPayload, bool, error) {
	m := packedRe.FindStringSubmatch(body)
	if m == nil {
		return nil, false, nil
	}
	offset, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return nil, true, ErrInvalidOffset
	}
	base, err := strconv.Atoi(m[4])
	if err != nil {
		return nil, true, ErrInvalidBase
	}
	return &PackedPayload{
		Encoded:     m[1],
		AlphabetKey: m[2],
		Offset:      offset,
		Base:        base,
	}, true, nil
}

// DecodePayload reverses the positional base-conversion cipher. Tokens are
// delimited by the sentinel character at the base-th position of the alphabet
// key; each token character is substituted by its index within the key, the
// resulting digit string is read as a base-`Base` number, and the offset is
// subtracted to obtain a code point. Malformed code points decode to U+0000
// instead of failing the whole pass, matching upstream behavior.
func DecodePayload(p *PackedPayload) (string, error) {
	key := []rune(p.AlphabetKey)
	if p.Base < 0 || p.Base >= len(key) {
		return "", &BaseIndexError{Base: p.Base}
	}
	sentinel := key[p.Base]

	// First occurrence wins for repeated key characters.
	indexOf := make(map[rune]int, len(key))
	for i, r := range key {
		if _, seen := indexOf[r]; !seen {
			indexOf[r] = i
		}
	}

	tokens := strings.Split(p.Encoded, string(sentinel))
	if n := len(tokens); n > 0 && tokens[n-1] == "" {
		tokens = tokens[:n-1]
	}

	var out strings.Builder
	for _, token := range tokens {
		var digits strings.Builder
		for _, r := range token {
			idx, ok := indexOf[r]
			if !ok {
				idx = 0
			}
			digits.WriteString(strconv.Itoa(idx))
		}
		out.WriteRune(codePoint(readBase(digits.String(), p.Base), p.Offset))
	}
	return out.String(), nil
}

// readBase interprets a decimal-digit string as a number in the given base.
// Digit characters at or past the base contribute zero but still occupy a
// position, matching the observed decoder.
func readBase(digits string, base int) int64 {
	alphabet := decodeAlphabet
	if base < len(alphabet) {
		alphabet = alphabet[:base]
	}
	var value int64
	pow := int64(1)
	for i := len(digits) - 1; i >= 0; i-- {
		if idx := strings.IndexByte(alphabet, digits[i]); idx >= 0 {
			value += int64(idx) * pow
		}
		pow *= int64(base)
	}
	return value
}

func codePoint(value, offset int64) rune {
	code := value - offset
	if code < 0 || code > 0x10FFFF || (code >= 0xD800 && code <= 0xDFFF) {
		return '\x00'
	}
	return rune(code)
}
