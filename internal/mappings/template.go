package mappings

import (
	"fmt"
	"strconv"
	"strings"
)

// maxPlaceholder scans text once for well-formed `{{N}}` placeholders
// (N >= 1) and returns the highest N found. Malformed `{{` sequences that
// don't close as `{{N}}` are not errors — they are left as literal text,
// per §4.3/§9 ("reject malformed `{{` sequences by treating them as
// literal text if they don't form a valid `{{N}}`").
func maxPlaceholder(text string) (int, error) {
	max := 0
	i := 0
	for i < len(text) {
		if text[i] != '{' || i+1 >= len(text) || text[i+1] != '{' {
			i++
			continue
		}
		end := strings.Index(text[i+2:], "}}")
		if end < 0 {
			i += 2
			continue
		}
		digits := text[i+2 : i+2+end]
		n, err := strconv.Atoi(digits)
		if err != nil || n < 1 {
			i++
			continue
		}
		if n > max {
			max = n
		}
		i = i + 2 + end + 2
	}
	return max, nil
}

// Expand substitutes `{{N}}` occurrences (1-based) in t.Text with args[N-1],
// leaving all other text verbatim. The caller must supply exactly
// t.MaxPlaceholder arguments (§4.3's "exactly max_placeholder arguments are
// required").
func (t Template) Expand(args []string) (string, error) {
	if len(args) != t.MaxPlaceholder {
		return "", fmt.Errorf("template expects %d argument(s), got %d", t.MaxPlaceholder, len(args))
	}
	var sb strings.Builder
	text := t.Text
	i := 0
	for i < len(text) {
		if text[i] != '{' || i+1 >= len(text) || text[i+1] != '{' {
			sb.WriteByte(text[i])
			i++
			continue
		}
		end := strings.Index(text[i+2:], "}}")
		if end < 0 {
			sb.WriteByte(text[i])
			i++
			continue
		}
		digits := text[i+2 : i+2+end]
		n, err := strconv.Atoi(digits)
		if err != nil || n < 1 || n > len(args) {
			sb.WriteByte(text[i])
			i++
			continue
		}
		sb.WriteString(args[n-1])
		i = i + 2 + end + 2
	}
	return sb.String(), nil
}
