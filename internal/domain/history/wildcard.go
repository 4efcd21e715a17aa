package history

// MatchWildcard reports whether s matches pattern, where '*' matches any run
// of characters (including none) and '?' matches exactly one. Matching is
// case-sensitive and works on runes.
func MatchWildcard(pattern, s string) bool {
	p, str := []rune(pattern), []rune(s)

	var (
		pi, si   int
		starPI   = -1
		starNext int
	)

	for si < len(str) {
		switch {
		case pi < len(p) && (p[pi] == '?' || p[pi] == str[si]):
			pi++
			si++
		case pi < len(p) && p[pi] == '*':
			starPI = pi
			starNext = si
			pi++
		case starPI >= 0:
			// Let the last star swallow one more character and retry.
			starNext++
			si = starNext
			pi = starPI + 1
		default:
			return false
		}
	}

	for pi < len(p) && p[pi] == '*' {
		pi++
	}

	return pi == len(p)
}
