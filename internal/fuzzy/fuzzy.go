package fuzzy

import "regexp"

// Default cutoffs used by the conversation flows. Venue names are longer and
// noisier than the closed vocabularies, so they match at a lower bar.
const (
	// DefaultCutoff is the minimum similarity for closed small vocabularies
	// such as motivation levels and activities.
	DefaultCutoff = 0.6
	// VenueCutoff is the minimum similarity for venue names.
	VenueCutoff = 0.5
)

// Ratio computes the Ratcliff/Obershelp similarity between two strings:
// twice the total length of matched blocks divided by the combined length.
// Both inputs are expected to already be normalized. The result is in [0, 1];
// two empty strings are considered identical.
func Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	matched := matchingBlocks(ra, rb)
	return 2 * float64(matched) / float64(total)
}

// matchingBlocks returns the total length of the recursively longest matching
// blocks between a and b: the longest common substring is found, then the
// regions to its left and to its right are matched independently.
func matchingBlocks(a, b []rune) int {
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	matched := size
	matched += matchingBlocks(a[:ai], b[:bi])
	matched += matchingBlocks(a[ai+size:], b[bi+size:])
	return matched
}

// longestCommonSubstring finds the longest run of runes common to a and b,
// returning its start in each and its length. Earlier positions win ties.
func longestCommonSubstring(a, b []rune) (ai, bi, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	// lengths[j] holds the length of the common suffix ending at a[i], b[j]
	// from the previous row of the dynamic program.
	lengths := make([]int, len(b)+1)
	for i := range a {
		prev := 0
		for j := range b {
			cur := lengths[j+1]
			if a[i] == b[j] {
				lengths[j+1] = prev + 1
				if lengths[j+1] > size {
					size = lengths[j+1]
					ai = i - size + 1
					bi = j - size + 1
				}
			} else {
				lengths[j+1] = 0
			}
			prev = cur
		}
	}
	return ai, bi, size
}

// ClosestMatch normalizes the input and every candidate, scores each pair,
// and returns the candidate (in its original spelling) with the highest
// ratio when that ratio reaches the cutoff. Ties are broken by candidate
// order: the first wins. The second return value is false on a miss.
func ClosestMatch(input string, candidates []string, cutoff float64) (string, bool) {
	t := Normalize(input)
	if t == "" {
		return "", false
	}
	best := ""
	bestScore := 0.0
	found := false
	for _, cand := range candidates {
		score := Ratio(t, Normalize(cand))
		if score >= cutoff && score > bestScore {
			best = cand
			bestScore = score
			found = true
		}
	}
	return best, found
}

// YesNo is the tri-state result of parsing an affirmation.
type YesNo int

const (
	// Unknown means the text matched neither set and must be re-asked.
	Unknown YesNo = iota
	// Yes means the text exactly matched an affirmative token.
	Yes
	// No means the text exactly matched a negative token.
	No
)

var yesTokens = []string{"si", "sí", "ok", "dale", "confirmo", "confirmar", "yes", "s"}
var noTokens = []string{"no", "n", "cancelar", "nah", "paso"}

// ParseYesNo parses a tolerant yes/no answer. The normalized text must
// exactly equal one of the fixed tokens; anything else is Unknown, never a
// guess.
func ParseYesNo(text string) YesNo {
	t := Normalize(text)
	for _, y := range yesTokens {
		if t == Normalize(y) {
			return Yes
		}
	}
	for _, n := range noTokens {
		if t == n {
			return No
		}
	}
	return Unknown
}

// IsAffirmative reports whether the text parses as an affirmative token.
func IsAffirmative(text string) bool {
	return ParseYesNo(text) == Yes
}

// option12Pattern accepts a single digit 1 or 2 with the usual decorations:
// "1", "1)", "1 .", "1-", " 2 )". It is anchored so multi-digit strings such
// as "11" or "12" never match; booking ids and phone-like input must not be
// mistaken for menu options.
var option12Pattern = regexp.MustCompile(`^([12])(?:\s*[\)\.\-]?\s*)$`)

// ParseOption12 returns 1 or 2 when the text is exactly that numbered
// option, and 0 otherwise.
func ParseOption12(text string) int {
	m := option12Pattern.FindStringSubmatch(Normalize(text))
	if m == nil {
		return 0
	}
	return int(m[1][0] - '0')
}
