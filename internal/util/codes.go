package util

import (
	"crypto/rand"
	"math/big"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RandomCode returns n characters drawn uniformly from an alphabet without look-alike characters.
func RandomCode(n int) (string, error) {
	var sb strings.Builder
	sb.Grow(n)
	limit := big.NewInt(int64(len(codeAlphabet)))
	for range n {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", errors.Wrap(err, "failed to read random source")
		}
		sb.WriteByte(codeAlphabet[idx.Int64()])
	}

	return sb.String(), nil
}

// ItemNumber returns a human readable item number such as TP-20260101-AB12CD.
func ItemNumber(now time.Time) (string, error) {
	suffix, err := RandomCode(6)
	if err != nil {
		return "", err
	}

	return "TP-" + now.UTC().Format("20060102") + "-" + suffix, nil
}

// SanitizeFilename keeps the base name of a client supplied file name with
// only letters, digits, dots, dashes and underscores, capped at 64 bytes.
func SanitizeFilename(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	var sb strings.Builder
	for _, r := range base {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			sb.WriteRune(unicode.ToLower(r))
		case r == '.' || r == '-' || r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	out := strings.Trim(sb.String(), "._")
	if len(out) > 64 {
		out = out[len(out)-64:]
	}
	if out == "" {
		return "file"
	}

	return out
}
