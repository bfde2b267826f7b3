// Package tracker sends measurement-protocol hits to a collection endpoint.
//
// A Tracker owns a Configuration (tracking id, client id, endpoint and
// request options), validates each hit with package hit, serializes it with a
// Builder and hands the resulting Request to a Transport:
//
//	cfg := tracker.NewConfiguration()
//	cfg.SetTrackingID("UA-1234-1")
//
//	transport := tracker.NewHTTPTransport()
//	defer transport.Close(context.Background())
//
//	t := tracker.New(cfg,
//	    tracker.WithTransport(transport),
//	    tracker.WithOnTracked(func(ev tracker.Tracked) {
//	        // ev.Err is nil when the collector answered 2xx
//	    }),
//	)
//	t.StartSession()
//	if _, err := t.Track(ctx, hit.New(hit.PageView, hit.P(hit.DocumentPath, hit.Text("/")))); err != nil {
//	    log.Println(tracker.CodeOf(err))
//	}
//
// Track returns validation failures synchronously and never sends an invalid
// hit. Delivery is asynchronous: every submitted hit produces exactly one
// Tracked event, whether or not the collector accepted it.
//
// # Wire format
//
// Parameters are percent-encoded (space is %20) and keep the order they were
// added in. The hit type comes first, then caller parameters, then v, tid and
// cid, then aip, sc and z when applicable. POST bodies over 8192 bytes and
// GET URLs over 2000 bytes are flagged with a PayloadTooLargeError in
// Request.Warning but are still sent.
package tracker
