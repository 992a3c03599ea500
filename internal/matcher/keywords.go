package matcher

import (
	"strings"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// DefaultKeywords is the ordered keyword list of the keyword tier. Earlier
// keywords take precedence: the first keyword that yields any compatible
// record wins.
var DefaultKeywords = []string{
	"steel", "concrete", "timber", "plasterboard", "insulation",
	"glass", "aluminium", "aluminum", "brick", "masonry", "carpet", "vinyl",
	"copper", "pvc", "roofing", "cladding", "ceiling", "louvre", "louver",
	"window", "door", "frame", "panel",
}

// fieldSeparator joins scanned fields so that no keyword can match across
// the boundary between two fields.
const fieldSeparator = "\x00"

// KeywordScanner finds which keywords of an ordered list occur in a text
// using a single Aho-Corasick pass.
type KeywordScanner struct {
	mu       sync.Mutex
	keywords []string
	matcher  *ahocorasick.Matcher
}

// NewKeywordScanner builds the automaton for keywords. Keywords are
// lower-cased; blanks are dropped.
func NewKeywordScanner(keywords []string) *KeywordScanner {
	kws := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			kws = append(kws, kw)
		}
	}
	s := &KeywordScanner{keywords: kws}
	if len(kws) > 0 {
		s.matcher = ahocorasick.NewStringMatcher(kws)
	}
	return s
}

// Keywords returns the scanner's keywords in precedence order.
func (s *KeywordScanner) Keywords() []string {
	return s.keywords
}

// Scan returns, for each keyword position, whether it occurs in any field.
func (s *KeywordScanner) Scan(fields ...string) []bool {
	present := make([]bool, len(s.keywords))
	if s.matcher == nil {
		return present
	}

	lowered := make([]string, len(fields))
	for i, f := range fields {
		lowered[i] = strings.ToLower(f)
	}
	text := []byte(strings.Join(lowered, fieldSeparator))

	// The automaton keeps per-call state, so calls are serialised.
	s.mu.Lock()
	hits := s.matcher.Match(text)
	s.mu.Unlock()

	for _, idx := range hits {
		if idx >= 0 && idx < len(present) {
			present[idx] = true
		}
	}
	return present
}
