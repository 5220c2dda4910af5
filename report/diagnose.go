package report

import (
	"fmt"
	"path"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/FrenchMajesty/dns-sequence-classifier/sequence"
)

// Reasons for sequences whose shape is known to be hard to classify.
// The patterns were observed on traces of DNSSEC-validating resolvers.
const (
	ReasonSingleDomain    = "R001 Single Domain. A + DNSKEY"
	ReasonWWWRedirect     = "R002 Single Domain with www redirect. A + DNSKEY + A (for www)"
	ReasonTwoDomains      = "R003 Two domains for website. (A + DNSKEY) * 2"
	ReasonTwoDomainsCNAME = "R005 Two domains for website second is CNAME."
	ReasonAkamai          = "R006 www redirect + Akamai"
	ReasonAkamaiNoDNSSEC  = "R006 www redirect + Akamai on 3rd-LVL domain without DNSSEC"
	ReasonUnreachable     = "R007 Unreachable Name Server"
	ReasonLoadFailed      = "R008 Domain did not load properly and the browser searched for it on the error page."
)

// ReasonSinglePacket describes a sequence holding one response of magnitude m
func ReasonSinglePacket(m uint16) string {
	if m == 0 || m > 6 {
		return "R004 A single packet of unknown size."
	}
	return fmt.Sprintf("R004 Single packet of size %d.", m)
}

var sizePatterns = []struct {
	sizes  []uint16
	reason string
}{
	{[]uint16{1, 2}, ReasonSingleDomain},
	{[]uint16{1, 2, 1}, ReasonWWWRedirect},
	{[]uint16{1, 2, 1, 2}, ReasonTwoDomains},
	{[]uint16{1, 2, 1, 1, 2, 2}, ReasonTwoDomainsCNAME},
	{[]uint16{1, 2, 1, 1, 1, 2, 2}, ReasonAkamai},
	{[]uint16{1, 1, 1, 1, 2, 2}, ReasonAkamaiNoDNSSEC},
}

// Diagnoser explains misclassifications by recognizing degenerate sequences
type Diagnoser struct {
	// Failed holds base names of sequence ids whose page load is known to have failed
	Failed mapset.Set[string]
}

// NewDiagnoser creates a Diagnoser that flags the given failed ids
func NewDiagnoser(failed ...string) *Diagnoser {
	return &Diagnoser{Failed: mapset.NewSet(failed...)}
}

// Diagnose returns the known reason s is hard to classify, or "" if none applies
func (d *Diagnoser) Diagnose(s *sequence.Sequence) string {
	if s == nil {
		return ""
	}
	if d != nil && d.Failed != nil && d.Failed.Contains(path.Base(s.ID())) {
		return ReasonLoadFailed
	}

	var sizes []uint16
	for _, t := range s.Tokens() {
		if !t.IsGap() {
			sizes = append(sizes, t.Magnitude)
		}
	}
	switch len(sizes) {
	case 0:
		return ""
	case 1:
		return ReasonSinglePacket(sizes[0])
	}

	for _, p := range sizePatterns {
		if slices.Equal(sizes, p.sizes) {
			return p.reason
		}
	}

	if unreachable(s.Tokens()) {
		return ReasonUnreachable
	}
	return ""
}

// unreachable matches S01 (G S01)*: many minimal responses and never a DNSKEY
func unreachable(tokens []sequence.Token) bool {
	if len(tokens)%2 == 0 {
		return false
	}
	for i, t := range tokens {
		if i%2 == 0 {
			if t.IsGap() || t.Magnitude != 1 {
				return false
			}
		} else if !t.IsGap() {
			return false
		}
	}
	return true
}
