package hit

// Param enumerates every parameter the catalog knows about.
type Param int

const (
	// General
	ProtocolVersion Param = iota
	TrackingID
	AnonymizeIP
	QueueTime
	CacheBuster
	// Visitor
	ClientID
	// Session
	SessionControl
	// Traffic sources
	DocumentReferrer
	CampaignName
	CampaignSource
	CampaignMedium
	CampaignKeyword
	CampaignContent
	CampaignID
	GoogleAdWordsID
	GoogleDisplayAdsID
	// System info
	ScreenResolution
	ViewportSize
	DocumentEncoding
	ScreenColors
	UserLanguage
	JavaEnabled
	FlashVersion
	// Hit
	HitTypeParam
	NonInteractionHit
	// Content information
	DocumentLocationURL
	DocumentHostName
	DocumentPath
	DocumentTitle
	ContentDescription
	LinkID
	// App tracking
	ApplicationName
	ApplicationVersion
	// Event tracking
	EventCategory
	EventAction
	EventLabel
	EventValue
	// E-commerce
	TransactionID
	TransactionAffiliation
	TransactionRevenue
	TransactionShipping
	TransactionTax
	ItemName
	ItemPrice
	ItemQuantity
	ItemCode
	ItemCategory
	CurrencyCode
	// Social interactions
	SocialNetwork
	SocialAction
	SocialActionTarget
	// Timing
	UserTimingCategory
	UserTimingVariableName
	UserTimingTime
	UserTimingLabel
	PageLoadTime
	DNSTime
	PageDownloadTime
	RedirectResponseTime
	TCPConnectTime
	ServerResponseTime
	// Exceptions
	ExceptionDescription
	IsExceptionFatal
	// Custom dimensions / metrics (indexed)
	CustomDimension
	CustomMetric
	// Content experiments
	ExperimentID
	ExperimentVariant

	paramCount
)

// Key returns the wire name of p. For the indexed params CustomDimension and
// CustomMetric it returns the prefix ("cd", "cm"); use Dimension or Metric to
// build a concrete key.
func (p Param) Key() string {
	if p < 0 || p >= paramCount {
		return ""
	}
	return catalog[p].Key
}

func (p Param) String() string {
	if k := p.Key(); k != "" {
		return k
	}
	return "Param(?)"
}

// Descriptor returns the catalog entry for p.
func (p Param) Descriptor() Descriptor {
	return catalog[p]
}

// indexed reports whether p is a pattern entry keyed by prefix plus slot number.
func (p Param) indexed() bool {
	return p == CustomDimension || p == CustomMetric
}
