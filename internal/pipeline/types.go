// Package pipeline implements the Pipeline Controller (component F): the
// state machine and harvest loop that ties the Browser Driver Adapter,
// Scroll Manager, Metadata Extractor, Download Log, and Boundary Resolver
// into one run. Shape grounded on internal/core/crawler.go's Crawler.Crawl
// orchestration, narrowed from a multi-mode batch crawl to a single
// cooperative-scheduler harvest (spec.md §5).
package pipeline

import (
	"io"

	"github.com/olereon/galleryharvest/internal/actions"
	"github.com/olereon/galleryharvest/internal/extract"
	"github.com/olereon/galleryharvest/internal/scroll"
)

// Driver is everything the controller needs from the Browser Driver
// Adapter: the scroll/extract surfaces the action interpreter also reads,
// plus the download-specific hooks the harvest loop drives directly.
type Driver interface {
	scroll.Driver
	extract.Driver
	actions.Driver

	OnDownload(sink DownloadSink) (stop func(), err error)
	CancelDownloads()
	Dirty() bool
	Recover() error
}

// DownloadSink mirrors internal/browser.DownloadSink's shape without
// importing internal/browser, keeping this package's Driver dependency
// expressed purely in terms of the method set it needs.
type DownloadSink func(suggestedName string, body io.Reader) error
