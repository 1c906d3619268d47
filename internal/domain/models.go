package domain

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Domain contains the core deal models shared by scrapers, storage, and notifiers.

// CodeUnspecified marks a Failure without a meaningful numeric code.
const CodeUnspecified = -1

// Listing is a successfully scraped deal. Price and Expiration are optional;
// nil means "absent", which is distinct from zero and equal only to nil when
// comparing identities.
type Listing struct {
	Source     string     `json:"source"`
	Name       string     `json:"name"`
	URL        string     `json:"url"`
	Price      *float64   `json:"price,omitempty"`
	Expiration *time.Time `json:"expiration,omitempty"`
}

// Failure is a scrape error surfaced to operators through the digest.
// Failures are never deduplicated or persisted.
type Failure struct {
	Source  string `json:"source"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Result is the tagged union produced by scrapers: exactly one of Listing or
// Failure is set, and Source always carries the originating scraper id.
type Result struct {
	Source  string   `json:"source"`
	Listing *Listing `json:"listing,omitempty"`
	Failure *Failure `json:"failure,omitempty"`
}

// ListingResult wraps a listing as a Result tagged with its source.
func ListingResult(l Listing) Result {
	return Result{Source: l.Source, Listing: &l}
}

// FailureResult builds a failure Result. A code <= 0 is normalized to
// CodeUnspecified.
func FailureResult(source, message string, code int) Result {
	if code <= 0 {
		code = CodeUnspecified
	}
	return Result{
		Source:  source,
		Failure: &Failure{Source: source, Message: message, Code: code},
	}
}

// IsFailure reports whether the result carries a Failure.
func (r Result) IsFailure() bool { return r.Failure != nil }

// Fingerprint is the exact-match identity of a Listing: the 5-tuple
// (source, name, url, price, expiration) with absent optionals encoded as a
// distinguished null. A changed price or expiration yields a different
// fingerprint and is reported as a new deal.
type Fingerprint struct {
	Source     string
	Name       string
	URL        string
	Price      string
	Expiration string
}

const fingerprintNull = "null"

// Fingerprint derives the dedup identity of the listing.
func (l Listing) Fingerprint() Fingerprint {
	fp := Fingerprint{
		Source:     l.Source,
		Name:       l.Name,
		URL:        l.URL,
		Price:      fingerprintNull,
		Expiration: fingerprintNull,
	}
	if l.Price != nil {
		fp.Price = strconv.FormatFloat(*l.Price, 'f', -1, 64)
	}
	if l.Expiration != nil {
		fp.Expiration = l.Expiration.UTC().Format(time.RFC3339Nano)
	}
	return fp
}

// Key renders a stable byte encoding of the fingerprint, suitable as a
// key-value store key. Fields are joined with an ASCII unit separator.
func (f Fingerprint) Key() []byte {
	return []byte(strings.Join([]string{f.Source, f.Name, f.URL, f.Price, f.Expiration}, "\x1f"))
}

// Digest is the per-run collection of kept results grouped by source id,
// preserving each scraper's emission order. It is what every notifier
// receives.
type Digest map[string][]Result

// Sources returns the digest's source ids in lexical order for deterministic
// rendering.
func (d Digest) Sources() []string {
	out := make([]string, 0, len(d))
	for src := range d {
		out = append(out, src)
	}
	sort.Strings(out)
	return out
}

// Listings returns every listing in the digest.
func (d Digest) Listings() []Listing {
	var out []Listing
	for _, src := range d.Sources() {
		for _, r := range d[src] {
			if r.Listing != nil {
				out = append(out, *r.Listing)
			}
		}
	}
	return out
}

// Counts returns the number of listings and failures across all sources.
func (d Digest) Counts() (listings, failures int) {
	for _, results := range d {
		for _, r := range results {
			if r.IsFailure() {
				failures++
			} else if r.Listing != nil {
				listings++
			}
		}
	}
	return listings, failures
}
