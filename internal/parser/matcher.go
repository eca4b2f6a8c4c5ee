package parser

import (
	"iter"
	"regexp"
)

// MatchKind tells which statement layout produced a Match.
type MatchKind int

const (
	// KindFull is the layout carrying a reference code and a date code.
	KindFull MatchKind = iota
	// KindReduced is the layout with only the two dates, description and amount.
	KindReduced
)

func (k MatchKind) String() string {
	switch k {
	case KindFull:
		return "full"
	case KindReduced:
		return "reduced"
	default:
		return "unknown"
	}
}

// Match is a raw transaction tuple as found in the page text.
// ReferenceCode and DateCode are only set when Kind is KindFull.
type Match struct {
	Kind             MatchKind
	ReferenceCode    string
	DateCode         string
	OperationDate    string
	RegistrationDate string
	Description      string
	Amount           string
}

// ws matches ASCII whitespace and Unicode space separators such as the
// no-break space PDF text extractors emit between columns.
const ws = `[\s\p{Zs}]`

// Full layout:
// REFERENCE(20+ digits)  DATECODE(8 digits)  DD/MM/YYYY  DD/MM/YYYY  DESCRIPTION  AMOUNT(1234,56)
var primaryPattern = regexp.MustCompile(
	`(?m)(?P<ref>\d{20,})` + ws + `+(?P<datecode>\d{8})` + ws + `+` +
		`(?P<opdate>\d{2}/\d{2}/\d{4})` + ws + `+(?P<regdate>\d{2}/\d{2}/\d{4})` + ws + `+` +
		`(?P<desc>.+?)` + ws + `+(?P<amount>\d+,\d{2})(?:` + ws + `|$)`,
)

// Reduced layout: DD/MM/YYYY  DD/MM/YYYY  DESCRIPTION  AMOUNT
var fallbackPattern = regexp.MustCompile(
	`(?m)(?P<opdate>\d{2}/\d{2}/\d{4})` + ws + `+(?P<regdate>\d{2}/\d{2}/\d{4})` + ws + `+` +
		`(?P<desc>.+?)` + ws + `+(?P<amount>\d+,\d{2})(?:` + ws + `|$)`,
)

// PrimaryMatches yields every full-layout tuple in text.
func PrimaryMatches(text string) iter.Seq[Match] {
	return scan(primaryPattern, KindFull, text)
}

// FallbackMatches yields every reduced-layout tuple in text.
func FallbackMatches(text string) iter.Seq[Match] {
	return scan(fallbackPattern, KindReduced, text)
}

// MatchBlock returns the full-layout tuples of text, or the reduced-layout
// tuples when there are none. The two layouts are never mixed for a block.
func MatchBlock(text string) []Match {
	var matches []Match
	for m := range PrimaryMatches(text) {
		matches = append(matches, m)
	}
	if len(matches) > 0 {
		return matches
	}
	for m := range FallbackMatches(text) {
		matches = append(matches, m)
	}
	return matches
}

func scan(re *regexp.Regexp, kind MatchKind, text string) iter.Seq[Match] {
	return func(yield func(Match) bool) {
		if text == "" {
			return
		}
		for _, sub := range re.FindAllStringSubmatch(text, -1) {
			m := Match{Kind: kind}
			for i, name := range re.SubexpNames() {
				switch name {
				case "ref":
					m.ReferenceCode = sub[i]
				case "datecode":
					m.DateCode = sub[i]
				case "opdate":
					m.OperationDate = sub[i]
				case "regdate":
					m.RegistrationDate = sub[i]
				case "desc":
					m.Description = sub[i]
				case "amount":
					m.Amount = sub[i]
				}
			}
			if !yield(m) {
				return
			}
		}
	}
}
