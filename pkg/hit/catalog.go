package hit

import (
	"strconv"
	"strings"
)

// MaxCustomIndex is the highest custom dimension / metric slot.
const MaxCustomIndex = 200

// Descriptor describes one catalog parameter.
type Descriptor struct {
	Param     Param
	Key       string  // wire name; prefix only for indexed params
	Kind      Kind
	MaxLength int     // in bytes; 0 means unbounded
	Allowed   HitType // hit types the parameter may appear in
	Required  bool
}

// Indexed reports whether the descriptor matches keys of the form Key+N.
func (d Descriptor) Indexed() bool { return d.Param.indexed() }

func entry(p Param, key string, kind Kind, maxLen int, allowed HitType, required bool) Descriptor {
	return Descriptor{Param: p, Key: key, Kind: kind, MaxLength: maxLen, Allowed: allowed, Required: required}
}

// catalog is indexed by Param. It is never modified after package init.
var catalog = [paramCount]Descriptor{
	entry(ProtocolVersion, "v", KindText, 0, AllTypes, true),
	entry(TrackingID, "tid", KindText, 0, AllTypes, true),
	entry(AnonymizeIP, "aip", KindBoolean, 0, AllTypes, false),
	entry(QueueTime, "qt", KindInteger, 0, AllTypes, false),
	entry(CacheBuster, "z", KindInteger, 0, AllTypes, false),
	entry(ClientID, "cid", KindText, 0, AllTypes, true),
	entry(SessionControl, "sc", KindText, 0, AllTypes, false),
	entry(DocumentReferrer, "dr", KindText, 2048, AllTypes, false),
	entry(CampaignName, "cn", KindText, 100, AllTypes, false),
	entry(CampaignSource, "cs", KindText, 100, AllTypes, false),
	entry(CampaignMedium, "cm", KindText, 50, AllTypes, false),
	entry(CampaignKeyword, "ck", KindText, 500, AllTypes, false),
	entry(CampaignContent, "cc", KindText, 500, AllTypes, false),
	entry(CampaignID, "ci", KindText, 100, AllTypes, false),
	entry(GoogleAdWordsID, "gclid", KindText, 0, AllTypes, false),
	entry(GoogleDisplayAdsID, "dclid", KindText, 0, AllTypes, false),
	entry(ScreenResolution, "sr", KindText, 20, AllTypes, false),
	entry(ViewportSize, "vp", KindText, 20, AllTypes, false),
	entry(DocumentEncoding, "de", KindText, 20, AllTypes, false),
	entry(ScreenColors, "sd", KindText, 20, AllTypes, false),
	entry(UserLanguage, "ul", KindText, 20, AllTypes, false),
	entry(JavaEnabled, "je", KindBoolean, 0, AllTypes, false),
	entry(FlashVersion, "fl", KindText, 20, AllTypes, false),
	entry(HitTypeParam, "t", KindText, 0, AllTypes, true),
	entry(NonInteractionHit, "ni", KindBoolean, 0, AllTypes, false),
	entry(DocumentLocationURL, "dl", KindText, 2048, AllTypes, false),
	entry(DocumentHostName, "dh", KindText, 100, AllTypes, false),
	entry(DocumentPath, "dp", KindText, 2048, AllTypes, false),
	entry(DocumentTitle, "dt", KindText, 1500, AllTypes, false),
	entry(ContentDescription, "cd", KindText, 2048, AllTypes, false),
	entry(LinkID, "linkid", KindText, 0, AllTypes, false),
	entry(ApplicationName, "an", KindText, 100, AllTypes, false),
	entry(ApplicationVersion, "av", KindText, 100, AllTypes, false),
	entry(EventCategory, "ec", KindText, 150, Event, false),
	entry(EventAction, "ea", KindText, 500, Event, false),
	entry(EventLabel, "el", KindText, 500, Event, false),
	entry(EventValue, "ev", KindInteger, 0, Event, false),
	entry(TransactionID, "ti", KindText, 500, Transaction|Item, true),
	entry(TransactionAffiliation, "ta", KindText, 500, Transaction, false),
	entry(TransactionRevenue, "tr", KindCurrency, 0, Transaction, false),
	entry(TransactionShipping, "ts", KindCurrency, 0, Transaction, false),
	entry(TransactionTax, "tt", KindCurrency, 0, Transaction, false),
	entry(ItemName, "in", KindText, 500, Item, true),
	entry(ItemPrice, "ip", KindCurrency, 0, Item, false),
	entry(ItemQuantity, "iq", KindInteger, 0, Item, false),
	entry(ItemCode, "ic", KindText, 500, Item, false),
	entry(ItemCategory, "iv", KindText, 500, Item, false),
	entry(CurrencyCode, "cu", KindText, 10, Transaction|Item, false),
	entry(SocialNetwork, "sn", KindText, 50, Social, true),
	entry(SocialAction, "sa", KindText, 50, Social, true),
	entry(SocialActionTarget, "st", KindText, 2048, Social, true),
	entry(UserTimingCategory, "utc", KindText, 150, Timing, false),
	entry(UserTimingVariableName, "utv", KindText, 500, Timing, false),
	entry(UserTimingTime, "utt", KindInteger, 0, Timing, false),
	entry(UserTimingLabel, "utl", KindText, 500, Timing, false),
	entry(PageLoadTime, "plt", KindInteger, 0, Timing, false),
	entry(DNSTime, "dns", KindInteger, 0, Timing, false),
	entry(PageDownloadTime, "pdt", KindInteger, 0, Timing, false),
	entry(RedirectResponseTime, "rrt", KindInteger, 0, Timing, false),
	entry(TCPConnectTime, "tcp", KindInteger, 0, Timing, false),
	entry(ServerResponseTime, "srt", KindInteger, 0, Timing, false),
	entry(ExceptionDescription, "exd", KindText, 150, Exception, false),
	entry(IsExceptionFatal, "exf", KindBoolean, 0, Exception, false),
	entry(CustomDimension, "cd", KindText, 150, AllTypes, false),
	entry(CustomMetric, "cm", KindInteger, 0, AllTypes, false),
	entry(ExperimentID, "xid", KindText, 40, AllTypes, false),
	entry(ExperimentVariant, "xvar", KindText, 0, AllTypes, false),
}

var (
	byKey             map[string]Param
	requiredByHitType map[HitType][]Param
)

func init() {
	byKey = make(map[string]Param, len(catalog))
	requiredByHitType = make(map[HitType][]Param)
	for i, d := range catalog {
		if d.Param != Param(i) {
			panic("hit: catalog entry " + d.Key + " out of order")
		}
		if d.Indexed() {
			continue
		}
		byKey[d.Key] = d.Param

		// Universal required params (v, tid, cid, t) are injected by the
		// request builder; only hit-type specific ones are checked here.
		if d.Required && d.Allowed != AllTypes {
			for _, t := range d.Allowed.Types() {
				requiredByHitType[t] = append(requiredByHitType[t], d.Param)
			}
		}
	}
}

// Lookup resolves a wire key to its descriptor. Exact keys win over the
// indexed cd<N>/cm<N> patterns, so "cd" is the content description and
// "cd3" is custom dimension 3. It returns false for unknown keys and for
// indexed keys whose slot is outside 1..200.
func Lookup(key string) (Descriptor, bool) {
	d, _, ok := resolve(key)
	return d, ok
}

// lookupIndexed matches cd<N> / cm<N>. known is true when key has an indexed
// prefix followed only by digits; valid additionally requires 1 <= N <= 200
// without leading zeros.
func lookupIndexed(key string) (d Descriptor, known, valid bool) {
	for _, p := range []Param{CustomDimension, CustomMetric} {
		prefix := catalog[p].Key
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		suffix := key[len(prefix):]
		if suffix == "" || strings.TrimLeft(suffix, "0123456789") != "" {
			continue
		}
		n, err := strconv.Atoi(suffix)
		valid = err == nil && suffix[0] != '0' && n >= 1 && n <= MaxCustomIndex
		return catalog[p], true, valid
	}
	return Descriptor{}, false, false
}

// IsAllowed reports whether key may be sent with hits of type t. Unknown keys
// are always allowed.
func IsAllowed(key string, t HitType) bool {
	d, known, _ := resolve(key)
	if !known {
		return true
	}
	return d.Allowed.Contains(t)
}

// resolve is Lookup for the validator: known reports whether the key belongs
// to the catalog at all, slotOK whether an indexed key has a usable slot.
func resolve(key string) (d Descriptor, known, slotOK bool) {
	if p, ok := byKey[key]; ok {
		return catalog[p], true, true
	}
	return lookupIndexed(key)
}

// Descriptors returns a copy of the catalog in declaration order.
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(catalog))
	copy(out, catalog[:])
	return out
}

// RequiredFor returns the hit-type specific parameters that must be present
// on hits of type t.
func RequiredFor(t HitType) []Param {
	req := requiredByHitType[t]
	out := make([]Param, len(req))
	copy(out, req)
	return out
}
