package trace

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/zap"

	"github.com/FrenchMajesty/dns-sequence-classifier/sequence"
)

// Marker names the capture harness resolves to delimit one page load
const (
	StartMarker = "start.example."
	EndMarker   = "end.example."
)

var (
	// ErrNoStartMarker is returned when the trace never answered the start marker
	ErrNoStartMarker = errors.New("no client response for the start marker")

	// ErrNoResolverQuery is returned when no forwarded type A query was answered
	ErrNoResolverQuery = errors.New("no forwarded query of type A")
)

// MessageKind is the role of a message as seen by the recursive resolver
type MessageKind uint8

const (
	ClientQuery MessageKind = iota
	ClientResponse
	ForwarderQuery
	ForwarderResponse
)

func (k MessageKind) String() string {
	switch k {
	case ClientQuery:
		return "client_query"
	case ClientResponse:
		return "client_response"
	case ForwarderQuery:
		return "forwarder_query"
	case ForwarderResponse:
		return "forwarder_response"
	default:
		return "unknown"
	}
}

// Message is one decoded DNS message logged by the resolver
type Message struct {
	Time time.Time
	Kind MessageKind
	Msg  *dns.Msg
}

func (m Message) question() (dns.Question, bool) {
	if m.Msg == nil || len(m.Msg.Question) == 0 {
		return dns.Question{}, false
	}
	return m.Msg.Question[0], true
}

func (m Message) asks(kind MessageKind, name string) bool {
	if m.Kind != kind {
		return false
	}
	q, ok := m.question()
	return ok && strings.EqualFold(q.Name, name)
}

// Window orders msgs by time and returns the messages strictly between the
// client response for StartMarker and the first client query for EndMarker.
// Without an end marker the window runs to the end of the trace.
func Window(msgs []Message) ([]Message, error) {
	sorted := slices.Clone(msgs)
	slices.SortStableFunc(sorted, func(a, b Message) int {
		return a.Time.Compare(b.Time)
	})

	start := slices.IndexFunc(sorted, func(m Message) bool {
		return m.asks(ClientResponse, StartMarker)
	})
	if start < 0 {
		return nil, ErrNoStartMarker
	}

	window := sorted[start+1:]
	if end := slices.IndexFunc(window, func(m Message) bool {
		return m.asks(ClientQuery, EndMarker)
	}); end >= 0 {
		window = window[:end]
	}
	return window, nil
}

type matchKey struct {
	name  string
	qtype uint16
	id    uint16
}

// Extractor builds sequences from resolver message logs
type Extractor struct {
	// Quantizer maps sizes and gaps to magnitudes. If nil, uses DefaultQuantizer.
	Quantizer Quantizer

	// Mode simulates a countermeasure. Zero is ModeNormal.
	Mode Mode

	Logger *zap.Logger
}

func (e *Extractor) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// Transactions pairs forwarder queries with their responses and returns one
// response transaction per pair, ordered by response time. Noise from trust
// anchor signaling and the capture VM's own update checks is dropped.
func (e *Extractor) Transactions(msgs []Message) ([]Transaction, error) {
	log := e.logger()
	pending := make(map[matchKey]Message)
	var (
		txs      []Transaction
		resolved bool
	)

	for _, m := range msgs {
		q, ok := m.question()
		if !ok {
			continue
		}
		key := matchKey{name: strings.ToLower(q.Name), qtype: q.Qtype, id: m.Msg.Id}

		switch m.Kind {
		case ForwarderQuery:
			if _, dup := pending[key]; dup {
				log.Debug("duplicate forwarder query", zap.String("qname", q.Name), zap.String("qtype", dns.TypeToString[q.Qtype]))
			}
			pending[key] = m

		case ForwarderResponse:
			if _, ok := pending[key]; !ok {
				log.Debug("unmatched forwarder response", zap.String("qname", q.Name), zap.String("qtype", dns.TypeToString[q.Qtype]))
				continue
			}
			delete(pending, key)

			if isNoise(q) {
				continue
			}
			if q.Qtype == dns.TypeA {
				resolved = true
			}
			txs = append(txs, Transaction{Time: m.Time, Size: m.Msg.Len(), Direction: Response})
		}
	}

	for key := range pending {
		log.Debug("unanswered forwarder query", zap.String("qname", key.name))
	}

	if len(txs) == 0 {
		return nil, ErrNoTransactions
	}
	if !resolved {
		return nil, ErrNoResolverQuery
	}

	slices.SortStableFunc(txs, func(a, b Transaction) int {
		return a.Time.Compare(b.Time)
	})
	return txs, nil
}

// Sequence windows msgs, extracts transactions and quantizes them into a sequence
func (e *Extractor) Sequence(id string, msgs []Message) (*sequence.Sequence, error) {
	window, err := Window(msgs)
	if err != nil {
		return nil, fmt.Errorf("trace %s: %w", id, err)
	}

	txs, err := e.Transactions(window)
	if err != nil {
		return nil, fmt.Errorf("trace %s: %w", id, err)
	}

	q := e.Quantizer
	if q == nil {
		q = DefaultQuantizer()
	}
	return BuildSequence(id, txs, q, e.Mode)
}

func isNoise(q dns.Question) bool {
	name := strings.ToLower(q.Name)
	if q.Qtype == dns.TypeNULL && strings.HasPrefix(name, "_ta") {
		return true
	}
	return strings.HasSuffix(name, "fedoraproject.org.")
}
