package rule

// Source supplies the strings rules match against. Implementations are lazy:
// content extraction (possibly OCR) only runs if some rule targets it.
type Source interface {
	Content() string
	Filename() string
	Metadata() string
}

// Match iterates rules in declaration order and returns the first rule whose
// pattern produces at least MinOccurrences non-overlapping matches on its
// target string, together with the match count. First match wins; later rules
// are never evaluated. A rule with MinOccurrences <= 0 wins as soon as it is
// reached, since any count satisfies it.
func Match(rules []Rule, src Source) (*Rule, int, bool) {
	for i := range rules {
		r := &rules[i]
		var target string
		switch r.TargetKind {
		case TargetFilename:
			target = src.Filename()
		case TargetMetadata:
			target = src.Metadata()
		default:
			target = src.Content()
		}
		count := len(r.Pattern.FindAllString(target, -1))
		if count >= r.MinOccurrences {
			return r, count, true
		}
	}
	return nil, 0, false
}
