// Package boundary implements the Boundary & Deduplication Resolver
// (spec.md §4.E): given a persistent log of previously seen artifacts, it
// locates the exact point in the gallery where fresh content begins.
// Grounded on boundary_scroll_manager.py's container-scan loop and
// detect_new_containers set-difference idiom.
package boundary

import (
	"context"
	"fmt"

	"github.com/olereon/galleryharvest/internal/models"
	"github.com/olereon/galleryharvest/internal/scroll"
)

// Comparator resolves Open Question (b) from spec.md: how "start_from"
// equality is judged. The default is exact string equality; the interface
// exists so a looser comparator (e.g. whitespace-insensitive) can be
// substituted without touching the resolver.
type Comparator interface {
	Equal(creationTime, startFrom string) bool
}

// ExactComparator implements Comparator by byte-for-byte string equality,
// the resolution this design settled on for Open Question (b) (see
// DESIGN.md).
type ExactComparator struct{}

func (ExactComparator) Equal(creationTime, startFrom string) bool {
	return creationTime == startFrom
}

// Extractor is the narrow slice of the Metadata Extractor (component C)
// the resolver depends on, kept as an interface so boundary can be unit
// tested against a fake and to avoid an import cycle with internal/extract.
type Extractor interface {
	Extract(ctx context.Context, containerID string) (models.MetadataRecord, error)
}

// SeenIndex is the narrow slice of the Download Log the resolver consults
// for mode 2 (first-unseen).
type SeenIndex interface {
	Contains(creationTime string) bool
}

// Result is what Resolve returns: either a found boundary container, or a
// reason it gave up.
type Result struct {
	Found        bool
	ContainerID  string
	CreationTime string
	Reason       string // end_of_gallery | cap_reached | cancelled, set when Found is false
}

// Resolver drives the two-mode boundary search spec.md §4.E describes.
type Resolver struct {
	extractor  Extractor
	comparator Comparator
}

func New(extractor Extractor, comparator Comparator) *Resolver {
	if comparator == nil {
		comparator = ExactComparator{}
	}
	return &Resolver{extractor: extractor, comparator: comparator}
}

// ResolveStartFrom implements mode 1: scan containers from the top of the
// gallery for one whose creation_time exactly matches startFrom, invoking
// the Scroll Manager to reveal more containers as needed, until found,
// end-of-gallery, or maxScrollAttempts is reached.
func (r *Resolver) ResolveStartFrom(ctx context.Context, driver scroll.Driver, mgr *scroll.Manager, startFrom string, targetDistance, maxScrollAttempts, maxConsecutiveFailures int) (Result, error) {
	scanned := make(map[string]struct{})

	containers, err := scroll.CaptureContainerIDs(driver)
	if err != nil {
		return Result{}, fmt.Errorf("capture initial containers: %w", err)
	}

	for {
		if res, found := r.scanForStartFrom(ctx, containers, scanned, startFrom); found {
			return res, nil
		}

		advance := mgr.AdvanceUntil(ctx, driver, targetDistance, maxScrollAttempts, maxConsecutiveFailures, func(fresh []string) bool {
			return len(fresh) > 0
		})
		containers = append(containers, advance.AllFreshContainers...)

		switch advance.Reason {
		case "cancelled":
			return Result{Found: false, Reason: "cancelled"}, nil
		case "end_of_gallery":
			if res, found := r.scanForStartFrom(ctx, advance.AllFreshContainers, scanned, startFrom); found {
				return res, nil
			}
			return Result{Found: false, Reason: "end_of_gallery"}, nil
		case "max_attempts", "max_consecutive_failures":
			if res, found := r.scanForStartFrom(ctx, advance.AllFreshContainers, scanned, startFrom); found {
				return res, nil
			}
			return Result{Found: false, Reason: "cap_reached"}, nil
		}
	}
}

func (r *Resolver) scanForStartFrom(ctx context.Context, containerIDs []string, scanned map[string]struct{}, startFrom string) (Result, bool) {
	for _, id := range containerIDs {
		if _, done := scanned[id]; done {
			continue
		}
		scanned[id] = struct{}{}

		record, err := r.extractWithRetry(ctx, id)
		if err != nil {
			continue // temporarily unknown, skip for now per spec.md §4.E robustness rule
		}
		if !record.Identifiable() {
			continue
		}
		if r.comparator.Equal(record.CreationTime, startFrom) {
			return Result{Found: true, ContainerID: id, CreationTime: record.CreationTime}, true
		}
	}
	return Result{}, false
}

// ResolveFirstUnseen implements mode 2: scan containers top-to-bottom,
// treating the first one whose creation_time is absent from the log as
// the boundary.
func (r *Resolver) ResolveFirstUnseen(ctx context.Context, driver scroll.Driver, mgr *scroll.Manager, seen SeenIndex, targetDistance, maxScrollAttempts, maxConsecutiveFailures int) (Result, error) {
	scanned := make(map[string]struct{})

	containers, err := scroll.CaptureContainerIDs(driver)
	if err != nil {
		return Result{}, fmt.Errorf("capture initial containers: %w", err)
	}

	for {
		if res, found := r.scanForUnseen(ctx, containers, scanned, seen); found {
			return res, nil
		}

		advance := mgr.AdvanceUntil(ctx, driver, targetDistance, maxScrollAttempts, maxConsecutiveFailures, func(fresh []string) bool {
			return len(fresh) > 0
		})

		switch advance.Reason {
		case "cancelled":
			return Result{Found: false, Reason: "cancelled"}, nil
		case "end_of_gallery":
			if res, found := r.scanForUnseen(ctx, advance.AllFreshContainers, scanned, seen); found {
				return res, nil
			}
			return Result{Found: false, Reason: "end_of_gallery"}, nil
		case "max_attempts", "max_consecutive_failures":
			if res, found := r.scanForUnseen(ctx, advance.AllFreshContainers, scanned, seen); found {
				return res, nil
			}
			return Result{Found: false, Reason: "cap_reached"}, nil
		default:
			containers = advance.AllFreshContainers
		}
	}
}

func (r *Resolver) scanForUnseen(ctx context.Context, containerIDs []string, scanned map[string]struct{}, seen SeenIndex) (Result, bool) {
	for _, id := range containerIDs {
		if _, done := scanned[id]; done {
			continue
		}
		scanned[id] = struct{}{}

		record, err := r.extractWithRetry(ctx, id)
		if err != nil {
			continue
		}
		if !record.Identifiable() {
			continue
		}
		if seen.Contains(record.CreationTime) {
			continue
		}
		return Result{Found: true, ContainerID: id, CreationTime: record.CreationTime}, true
	}
	return Result{}, false
}

// extractWithRetry retries a single extraction failure exactly once before
// giving up on a container, per spec.md §4.E's robustness clause: a single
// extraction failure must never be mistaken for end-of-data.
func (r *Resolver) extractWithRetry(ctx context.Context, containerID string) (models.MetadataRecord, error) {
	record, err := r.extractor.Extract(ctx, containerID)
	if err == nil {
		return record, nil
	}
	return r.extractor.Extract(ctx, containerID)
}
