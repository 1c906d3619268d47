package storage

import (
	"testing"
	"time"

	"github.com/diegogliarte/web-hunter/internal/domain"
)

func testListing() domain.Listing {
	price := 9.99
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	return domain.Listing{
		Source:     "humble_bundle",
		Name:       "Game X",
		URL:        "https://example.com/game-x",
		Price:      &price,
		Expiration: &exp,
	}
}

func openTestStore(t *testing.T) *boltStore {
	t.Helper()
	raw, err := openBolt(t.TempDir() + "/deals.db")
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := raw.(*boltStore)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)
	l := testListing()
	fp := l.Fingerprint()

	exists, err := store.Exists(fp)
	if err != nil || exists {
		t.Fatalf("expected fresh listing, exists=%v err=%v", exists, err)
	}

	if err := store.Insert(l); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	rec, found, err := store.Get(fp)
	if err != nil || !found {
		t.Fatalf("Get after insert: found=%v err=%v", found, err)
	}
	if rec.Sent {
		t.Fatalf("freshly inserted record must have sent=false")
	}
	if rec.CreatedAt.IsZero() {
		t.Fatalf("created_at must be assigned on insert")
	}
	if rec.Listing.Name != l.Name || rec.Listing.URL != l.URL {
		t.Fatalf("stored listing mismatch: %+v", rec.Listing)
	}

	if err := store.MarkSent(fp); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}

	rec2, _, err := store.Get(fp)
	if err != nil {
		t.Fatalf("Get after mark: %v", err)
	}
	if !rec2.Sent {
		t.Fatalf("expected sent=true after MarkSent")
	}
	if !rec2.CreatedAt.Equal(rec.CreatedAt) {
		t.Fatalf("created_at changed by MarkSent: %v vs %v", rec2.CreatedAt, rec.CreatedAt)
	}
	if rec2.Listing.Fingerprint() != rec.Listing.Fingerprint() {
		t.Fatalf("listing fields changed by MarkSent")
	}
}

func TestExistsIgnoresUnsentRecords(t *testing.T) {
	store := openTestStore(t)
	l := testListing()

	if err := store.Insert(l); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	// Inserted but not delivered: the next run must still attempt delivery.
	exists, err := store.Exists(l.Fingerprint())
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Fatalf("unsent record must not count as existing")
	}

	if err := store.MarkSent(l.Fingerprint()); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	exists, err = store.Exists(l.Fingerprint())
	if err != nil || !exists {
		t.Fatalf("sent record should exist, exists=%v err=%v", exists, err)
	}
}

func TestMarkSentIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	l := testListing()

	if err := store.Insert(l); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := store.MarkSent(l.Fingerprint()); err != nil {
		t.Fatalf("first MarkSent: %v", err)
	}
	first, _, err := store.Get(l.Fingerprint())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if err := store.MarkSent(l.Fingerprint()); err != nil {
		t.Fatalf("second MarkSent: %v", err)
	}
	second, _, err := store.Get(l.Fingerprint())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if first.Sent != second.Sent || !first.CreatedAt.Equal(second.CreatedAt) ||
		first.Listing.Fingerprint() != second.Listing.Fingerprint() {
		t.Fatalf("second MarkSent changed state: %+v vs %+v", first, second)
	}
}

func TestMarkSentMissingFingerprintIsNoop(t *testing.T) {
	store := openTestStore(t)

	if err := store.MarkSent(testListing().Fingerprint()); err != nil {
		t.Fatalf("MarkSent on missing fingerprint must not error: %v", err)
	}
}

func TestReinsertPreservesOriginalRecord(t *testing.T) {
	store := openTestStore(t)
	l := testListing()

	if err := store.Insert(l); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	first, _, err := store.Get(l.Fingerprint())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	// Crash-recovery path: the same listing is re-inserted before it was
	// ever marked sent.
	store.now = func() time.Time { return time.Now().Add(time.Hour) }
	if err := store.Insert(l); err != nil {
		t.Fatalf("re-Insert: %v", err)
	}

	second, _, err := store.Get(l.Fingerprint())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("re-insert must not touch created_at: %v vs %v", second.CreatedAt, first.CreatedAt)
	}
}

func TestChangedPriceIsANewRecord(t *testing.T) {
	store := openTestStore(t)
	l := testListing()

	if err := store.Insert(l); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := store.MarkSent(l.Fingerprint()); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}

	discounted := l
	price := 4.99
	discounted.Price = &price

	exists, err := store.Exists(discounted.Fingerprint())
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Fatalf("changed price must be treated as a new entity")
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "")
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.Insert(testListing()); err != nil {
		t.Fatalf("noop store Insert: %v", err)
	}
	exists, err := store.Exists(testListing().Fingerprint())
	if err != nil || exists {
		t.Fatalf("noop store must never report existing, exists=%v err=%v", exists, err)
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", ""); err == nil {
		t.Fatalf("expected error for unsupported storage type")
	}
}
