package domain

import (
	"testing"
	"time"
)

func ptrFloat(v float64) *float64 { return &v }

func ptrTime(v time.Time) *time.Time { return &v }

func TestFingerprintMatchesOnIdenticalFields(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	l1 := Listing{Source: "a", Name: "Game X", URL: "url1", Price: ptrFloat(9.99), Expiration: ptrTime(exp)}
	l2 := Listing{Source: "a", Name: "Game X", URL: "url1", Price: ptrFloat(9.99), Expiration: ptrTime(exp)}

	if l1.Fingerprint() != l2.Fingerprint() {
		t.Fatalf("expected identical fingerprints, got %+v vs %+v", l1.Fingerprint(), l2.Fingerprint())
	}
	if string(l1.Fingerprint().Key()) != string(l2.Fingerprint().Key()) {
		t.Fatalf("expected identical keys")
	}
}

func TestFingerprintChangesWithPriceOrExpiration(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	base := Listing{Source: "a", Name: "Game X", URL: "url1", Price: ptrFloat(9.99), Expiration: ptrTime(exp)}

	cases := []struct {
		name  string
		other Listing
	}{
		{"different price", Listing{Source: "a", Name: "Game X", URL: "url1", Price: ptrFloat(4.99), Expiration: ptrTime(exp)}},
		{"nil price", Listing{Source: "a", Name: "Game X", URL: "url1", Expiration: ptrTime(exp)}},
		{"different expiration", Listing{Source: "a", Name: "Game X", URL: "url1", Price: ptrFloat(9.99), Expiration: ptrTime(exp.Add(time.Hour))}},
		{"nil expiration", Listing{Source: "a", Name: "Game X", URL: "url1", Price: ptrFloat(9.99)}},
	}
	for _, tc := range cases {
		if base.Fingerprint() == tc.other.Fingerprint() {
			t.Errorf("%s: expected distinct fingerprints", tc.name)
		}
	}
}

func TestFingerprintNullIsNotZero(t *testing.T) {
	withNil := Listing{Source: "a", Name: "n", URL: "u"}
	withZeroPrice := Listing{Source: "a", Name: "n", URL: "u", Price: ptrFloat(0)}

	if withNil.Fingerprint() == withZeroPrice.Fingerprint() {
		t.Fatalf("nil price must not equal zero price")
	}

	otherNil := Listing{Source: "a", Name: "n", URL: "u"}
	if withNil.Fingerprint() != otherNil.Fingerprint() {
		t.Fatalf("nil must equal nil")
	}
}

func TestFailureResultDefaultsCode(t *testing.T) {
	r := FailureResult("src", "boom", 0)
	if !r.IsFailure() {
		t.Fatalf("expected failure result")
	}
	if r.Failure.Code != CodeUnspecified {
		t.Fatalf("expected code %d, got %d", CodeUnspecified, r.Failure.Code)
	}

	r = FailureResult("src", "timeout", 504)
	if r.Failure.Code != 504 {
		t.Fatalf("expected code 504, got %d", r.Failure.Code)
	}
	if r.Source != "src" || r.Failure.Source != "src" {
		t.Fatalf("source missing from failure result")
	}
}

func TestDigestCountsAndSources(t *testing.T) {
	d := Digest{
		"b": {FailureResult("b", "timeout", 504)},
		"a": {
			ListingResult(Listing{Source: "a", Name: "Game X", URL: "url1"}),
			ListingResult(Listing{Source: "a", Name: "Game Y", URL: "url2"}),
		},
	}

	listings, failures := d.Counts()
	if listings != 2 || failures != 1 {
		t.Fatalf("counts = (%d, %d), want (2, 1)", listings, failures)
	}

	sources := d.Sources()
	if len(sources) != 2 || sources[0] != "a" || sources[1] != "b" {
		t.Fatalf("sources = %v, want [a b]", sources)
	}

	all := d.Listings()
	if len(all) != 2 || all[0].Name != "Game X" || all[1].Name != "Game Y" {
		t.Fatalf("unexpected listings %+v", all)
	}
}
