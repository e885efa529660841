package boundary

import (
	"context"
	"errors"
	"testing"

	"github.com/olereon/galleryharvest/internal/models"
)

type fakeExtractor struct {
	records map[string]models.MetadataRecord
	fails   map[string]int
}

func (f *fakeExtractor) Extract(_ context.Context, containerID string) (models.MetadataRecord, error) {
	if f.fails[containerID] > 0 {
		f.fails[containerID]--
		return models.MetadataRecord{}, errors.New("transient extraction failure")
	}
	rec, ok := f.records[containerID]
	if !ok {
		return models.MetadataRecord{}, errors.New("no such container")
	}
	return rec, nil
}

type fakeSeenIndex struct {
	seen map[string]struct{}
}

func (f fakeSeenIndex) Contains(creationTime string) bool {
	_, ok := f.seen[creationTime]
	return ok
}

func TestScanForStartFromFindsExactMatch(t *testing.T) {
	extractor := &fakeExtractor{records: map[string]models.MetadataRecord{
		"a__0": {CreationTime: "24 Aug 2025 10:00:00"},
		"a__1": {CreationTime: "24 Aug 2025 11:00:00"},
		"a__2": {CreationTime: "24 Aug 2025 12:00:00"},
	}}
	r := New(extractor, nil)

	res, found := r.scanForStartFrom(context.Background(), []string{"a__0", "a__1", "a__2"}, map[string]struct{}{}, "24 Aug 2025 11:00:00")
	if !found {
		t.Fatalf("expected a match")
	}
	if res.ContainerID != "a__1" {
		t.Fatalf("expected a__1, got %s", res.ContainerID)
	}
}

func TestScanForUnseenSkipsLoggedEntries(t *testing.T) {
	extractor := &fakeExtractor{records: map[string]models.MetadataRecord{
		"a__0": {CreationTime: "24 Aug 2025 10:00:00"},
		"a__1": {CreationTime: "24 Aug 2025 11:00:00"},
	}}
	r := New(extractor, nil)
	seen := fakeSeenIndex{seen: map[string]struct{}{"24 Aug 2025 10:00:00": {}}}

	res, found := r.scanForUnseen(context.Background(), []string{"a__0", "a__1"}, map[string]struct{}{}, seen)
	if !found {
		t.Fatalf("expected a match")
	}
	if res.ContainerID != "a__1" {
		t.Fatalf("expected first unseen a__1, got %s", res.ContainerID)
	}
}

func TestExtractWithRetryToleratesOneTransientFailure(t *testing.T) {
	extractor := &fakeExtractor{
		records: map[string]models.MetadataRecord{"a__0": {CreationTime: "24 Aug 2025 10:00:00"}},
		fails:   map[string]int{"a__0": 1},
	}
	r := New(extractor, nil)

	rec, err := r.extractWithRetry(context.Background(), "a__0")
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if rec.CreationTime != "24 Aug 2025 10:00:00" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestExactComparator(t *testing.T) {
	c := ExactComparator{}
	if !c.Equal("24 Aug 2025 10:00:00", "24 Aug 2025 10:00:00") {
		t.Fatalf("expected exact match to be equal")
	}
	if c.Equal("24 Aug 2025 10:00:00", "24 aug 2025 10:00:00") {
		t.Fatalf("expected case-sensitive mismatch to be unequal")
	}
}
