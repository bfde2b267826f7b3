// Package hit models measurement-protocol hits and validates them against a
// static parameter catalog.
//
// A hit is a hit type plus an ordered list of wire-keyed parameters:
//
//	h := hit.New(hit.Event,
//	    hit.P(hit.EventCategory, hit.Text("video")),
//	    hit.P(hit.EventAction, hit.Text("play")),
//	    hit.P(hit.EventValue, hit.Int(42)),
//	    hit.Dimension(3, "premium"),
//	)
//	if err := h.Validate(); err != nil {
//	    // errors.Is(err, hit.ErrInvalidParameterType), ...
//	}
//
// # Catalog
//
// Every recognized parameter has exactly one Descriptor giving its wire key,
// value kind, byte limit, the hit types it may appear in and whether it is
// required. Custom dimensions and metrics are pattern entries matching
// cd1..cd200 and cm1..cm200. Keys outside the catalog are not rejected; they
// are forwarded as-is so newer protocol parameters keep working.
//
// # Value kinds
//
// Boolean parameters accept only "1" and "0". Integer parameters must
// round-trip through signed 64-bit parsing. Currency parameters are decimals
// with a mandatory point and two to six fractional digits ("-55.00",
// "1000.000001").
package hit
