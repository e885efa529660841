package browser

import (
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/olereon/galleryharvest/internal/logging"
)

// DownloadSink receives one file the page initiates: a suggested name and
// the response body stream. Returning an error aborts that single
// download; it does not affect the session.
type DownloadSink func(suggestedName string, body io.Reader) error

// OnDownload registers sink for every subsequent download the page
// triggers, following the teacher's setupNetworkIntercept idiom
// (HijackRequests + NetworkResponseReceived) in internal/crawlers/dynamic.go.
func (s *Session) OnDownload(sink DownloadSink) (stop func(), err error) {
	router := s.page.HijackRequests()

	router.MustAdd("*", func(ctx *rod.Hijack) {
		ctx.MustLoadResponse()

		disposition := ctx.Response.Headers().Get("Content-Disposition")
		if disposition == "" {
			return
		}

		name := suggestedNameFrom(disposition, ctx.Request.URL().String())
		body := strings.NewReader(ctx.Response.Body())

		if sinkErr := sink(name, body); sinkErr != nil {
			logging.Errorf("download sink rejected %s: %v", name, sinkErr)
		}
	})

	go router.Run()

	return func() { _ = router.Stop() }, nil
}

// suggestedNameFrom extracts a filename from a Content-Disposition header,
// falling back to the URL's base path segment.
func suggestedNameFrom(disposition, requestURL string) string {
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		if name, ok := params["filename"]; ok && name != "" {
			return name
		}
	}
	return path.Base(requestURL)
}

// WaitNetworkResponse blocks until the page's next network response arrives
// and returns it. Responses are not filtered while waiting: when
// urlContains is non-empty and that first response's URL does not contain
// it, the response is returned with an ErrTimeout-wrapped error.
func (s *Session) WaitNetworkResponse(urlContains string) (proto.NetworkResponseReceived, error) {
	var event proto.NetworkResponseReceived
	wait := s.page.WaitEvent(&event)
	wait()
	if urlContains != "" && !strings.Contains(event.Response.URL, urlContains) {
		return event, fmt.Errorf("%w: response did not match %q", ErrTimeout, urlContains)
	}
	return event, nil
}
