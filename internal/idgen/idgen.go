package idgen

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// GeneralFront is the catch-all front name that contributes no letter to
// service code prefixes.
const GeneralFront = "General"

// MaxAllocationRetries bounds how many times a generated identifier is
// re-derived after losing a uniqueness race to a concurrent writer.
const MaxAllocationRetries = 3

// serviceCodeWidth is the zero-padded digit count of a service code tail.
const serviceCodeWidth = 4

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// ServiceCodePrefix derives the code prefix for a client/front pair: the
// first two letters of the client name (accents folded, digits and spaces
// skipped, uppercased) plus the first letter of the front. The front letter
// is omitted for an empty or general front. Prefixes never contain digits so
// the numeric consecutive is always separable from the prefix.
func ServiceCodePrefix(clientName, front string) (string, error) {
	name := letterRunes(foldAccents(clientName))
	if len(name) < 2 {
		return "", fmt.Errorf("client name %q too short for a code prefix", clientName)
	}
	prefix := strings.ToUpper(string(name[:2]))

	front = strings.TrimSpace(front)
	if front != "" && !strings.EqualFold(front, GeneralFront) {
		letters := letterRunes(foldAccents(front))
		if len(letters) == 0 {
			return "", fmt.Errorf("front %q produces no prefix letter", front)
		}
		prefix += strings.ToUpper(string(letters[:1]))
	}
	return prefix, nil
}

// FormatServiceCode renders the final code for a prefix and consecutive.
func FormatServiceCode(prefix string, consecutive int) string {
	return fmt.Sprintf("%s%0*d", prefix, serviceCodeWidth, consecutive)
}

// MaxServiceCodeSuffix returns the highest consecutive among codes carrying
// the prefix. Only tails with the exact four-digit shape FormatServiceCode
// emits count, so codes under a longer overlapping prefix never pollute the
// scan.
func MaxServiceCodeSuffix(prefix string, codes []string) int {
	max := 0
	for _, code := range codes {
		if !strings.HasPrefix(code, prefix) {
			continue
		}
		tail := code[len(prefix):]
		if len(tail) != serviceCodeWidth {
			continue
		}
		n, err := strconv.Atoi(tail)
		if err == nil && n > max {
			max = n
		}
	}
	return max
}

// NextConsecutive returns the consecutive that follows the highest suffix
// seen so far; maxSuffix is 0 when no code with the prefix exists yet.
func NextConsecutive(maxSuffix int) int {
	if maxSuffix < 0 {
		maxSuffix = 0
	}
	return maxSuffix + 1
}

// FormatEntityCode renders a generated vehicle or tire code: prefix, a
// three-digit consecutive and a caller-chosen suffix split off by an
// underscore. An empty suffix falls back to the consecutive itself.
func FormatEntityCode(prefix string, consecutive int, suffix string) string {
	suffix = strings.TrimSpace(suffix)
	if suffix == "" {
		suffix = strconv.Itoa(consecutive)
	}
	return fmt.Sprintf("%s%03d_%s", prefix, consecutive, suffix)
}

// MaxEntitySuffix returns the highest numeric segment sitting between the
// prefix and the first underscore among the given codes. Codes under a
// different prefix or without a parsable segment are skipped.
func MaxEntitySuffix(prefix string, codes []string) int {
	max := 0
	for _, code := range codes {
		if !strings.HasPrefix(code, prefix) {
			continue
		}
		segment := code[len(prefix):]
		if i := strings.IndexByte(segment, '_'); i >= 0 {
			segment = segment[:i]
		}
		n, err := strconv.Atoi(segment)
		if err == nil && n > max {
			max = n
		}
	}
	return max
}

// UserCodePrefix derives a username prefix from the first token of a full
// name: three accent-folded uppercase letters, padded with X when the token
// is shorter.
func UserCodePrefix(fullName string) (string, error) {
	first, _, _ := strings.Cut(strings.TrimSpace(fullName), " ")
	letters := letterRunes(foldAccents(first))
	if len(letters) == 0 {
		return "", fmt.Errorf("full name %q produces no username prefix", fullName)
	}
	if len(letters) > 3 {
		letters = letters[:3]
	}
	for len(letters) < 3 {
		letters = append(letters, 'X')
	}
	return strings.ToUpper(string(letters)), nil
}

// FormatUserCode renders a generated username.
func FormatUserCode(prefix string, consecutive int) string {
	return fmt.Sprintf("%s%03d", prefix, consecutive)
}

// MaxNumericSuffix returns the highest integer tail among values sharing the
// prefix; values with non-numeric tails are skipped.
func MaxNumericSuffix(prefix string, values []string) int {
	max := 0
	for _, v := range values {
		if !strings.HasPrefix(v, prefix) {
			continue
		}
		n, err := strconv.Atoi(v[len(prefix):])
		if err == nil && n > max {
			max = n
		}
	}
	return max
}

// letterRunes keeps only the letters, by rune, so prefix slicing can never
// split a multi-byte character.
func letterRunes(value string) []rune {
	var out []rune
	for _, r := range value {
		if unicode.IsLetter(r) {
			out = append(out, r)
		}
	}
	return out
}

func foldAccents(value string) string {
	folded, _, err := transform.String(foldTransformer, value)
	if err != nil {
		return value
	}
	var b strings.Builder
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
