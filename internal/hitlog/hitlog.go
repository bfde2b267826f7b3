// Package hitlog keeps a bounded, indexed history of tracked hits.
package hitlog

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/usestring/gatrack/pkg/hit"
	"github.com/usestring/gatrack/pkg/tracker"
)

// Status is the delivery state of a logged hit.
type Status string

const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
)

// Param is a logged key/value pair.
type Param struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Record is one tracked hit.
type Record struct {
	ID          string     `json:"id"`
	HitType     string     `json:"hit_type"`
	Params      []Param    `json:"params"`
	Method      string     `json:"method"`
	URL         string     `json:"url"`
	Payload     string     `json:"payload"`
	Size        int        `json:"size"`
	Warning     string     `json:"warning,omitempty"`
	Status      Status     `json:"status"`
	StatusCode  int        `json:"status_code,omitempty"`
	Error       string     `json:"error,omitempty"`
	ErrorCode   string     `json:"error_code,omitempty"`
	Handle      uint64     `json:"handle,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Map returns the record as generic JSON data (for jq evaluation).
func (r *Record) Map() (map[string]any, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Filter narrows Recent. Empty fields match everything.
type Filter struct {
	HitType string
	Status  Status
}

// Log is an LRU-bounded hit history with Roaring bitmap indexes by hit type
// and status. It is safe for concurrent use.
type Log struct {
	// mu guards the indexes. Every cache mutation happens with mu held so
	// the eviction callback can update the indexes without locking.
	mu sync.RWMutex

	cache     *lru.Cache[uint32, *Record]
	nextDocID uint32
	byRequest map[*tracker.Request]uint32
	requestOf map[uint32]*tracker.Request

	all      *roaring.Bitmap
	byType   map[string]*roaring.Bitmap
	byStatus map[Status]*roaring.Bitmap

	now func() time.Time
}

// New creates a Log holding at most maxItems records.
func New(maxItems int) (*Log, error) {
	l := &Log{
		byRequest: make(map[*tracker.Request]uint32),
		requestOf: make(map[uint32]*tracker.Request),
		all:       roaring.New(),
		byType:    make(map[string]*roaring.Bitmap),
		byStatus:  make(map[Status]*roaring.Bitmap),
		now:       time.Now,
	}
	c, err := lru.NewWithEvict[uint32, *Record](maxItems, l.evicted)
	if err != nil {
		return nil, err
	}
	l.cache = c
	return l, nil
}

// Submitted records a hit that is about to be delivered. It matches
// tracker.WithOnSubmit.
func (l *Log) Submitted(h *hit.Hit, req *tracker.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()

	docID := l.nextDocID
	l.nextDocID++

	params := h.Parameters()
	rec := &Record{
		ID:          FormatID(docID),
		HitType:     h.Type.String(),
		Params:      make([]Param, 0, len(params)),
		Method:      req.Method,
		URL:         req.URL,
		Payload:     req.Payload,
		Size:        req.Size,
		Status:      StatusPending,
		SubmittedAt: l.now(),
	}
	for _, p := range params {
		rec.Params = append(rec.Params, Param{Key: p.Key, Value: p.Value.String()})
	}
	if req.Warning != nil {
		rec.Warning = req.Warning.Error()
	}

	l.byRequest[req] = docID
	l.requestOf[docID] = req
	l.all.Add(docID)
	addToBitmap(l.byType, rec.HitType, docID)
	addToBitmap(l.byStatus, rec.Status, docID)
	l.cache.Add(docID, rec)
}

// Tracked stores the delivery outcome. It matches tracker.WithOnTracked.
func (l *Log) Tracked(ev tracker.Tracked) {
	l.mu.Lock()
	defer l.mu.Unlock()

	docID, ok := l.byRequest[ev.Request]
	if !ok {
		return
	}
	rec, ok := l.cache.Peek(docID)
	if !ok {
		return
	}

	done := l.now()
	next := *rec
	next.Handle = uint64(ev.Handle)
	next.CompletedAt = &done
	next.StatusCode = ev.StatusCode
	next.Status = StatusDelivered
	if ev.Err != nil {
		next.Status = StatusFailed
		next.Error = ev.Err.Error()
		next.ErrorCode = tracker.CodeOf(ev.Err).String()
	}

	removeFromBitmap(l.byStatus, rec.Status, docID)
	addToBitmap(l.byStatus, next.Status, docID)
	// Records are replaced, never mutated, so readers may hold the old one.
	l.cache.Add(docID, &next)
}

// IDOf returns the record id assigned to req.
func (l *Log) IDOf(req *tracker.Request) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	docID, ok := l.byRequest[req]
	if !ok {
		return "", false
	}
	return FormatID(docID), true
}

// Get returns a record by id.
func (l *Log) Get(id string) (*Record, bool) {
	docID, ok := ParseID(id)
	if !ok {
		return nil, false
	}
	return l.cache.Get(docID)
}

// Recent returns up to limit records matching f, newest first. A limit of
// zero or less returns every match.
func (l *Log) Recent(f Filter, limit int) []*Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	bm := l.all.Clone()
	if f.HitType != "" {
		bm.And(bitmapOrEmpty(l.byType[f.HitType]))
	}
	if f.Status != "" {
		bm.And(bitmapOrEmpty(l.byStatus[f.Status]))
	}

	out := make([]*Record, 0, min(int(bm.GetCardinality()), max(limit, 0)))
	it := bm.ReverseIterator()
	for it.HasNext() {
		if limit > 0 && len(out) >= limit {
			break
		}
		if rec, ok := l.cache.Peek(it.Next()); ok {
			out = append(out, rec)
		}
	}
	return out
}

// Stats summarizes the log.
type Stats struct {
	Total    int            `json:"total"`
	ByType   map[string]int `json:"by_hit_type"`
	ByStatus map[Status]int `json:"by_status"`
}

// Stats returns per hit type and per status counts.
func (l *Log) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Stats{
		Total:    int(l.all.GetCardinality()),
		ByType:   make(map[string]int, len(l.byType)),
		ByStatus: make(map[Status]int, len(l.byStatus)),
	}
	for k, bm := range l.byType {
		s.ByType[k] = int(bm.GetCardinality())
	}
	for k, bm := range l.byStatus {
		s.ByStatus[k] = int(bm.GetCardinality())
	}
	return s
}

// Len returns the number of records held.
func (l *Log) Len() int {
	return l.cache.Len()
}

// evicted drops an evicted record from the indexes. Called with l.mu held.
func (l *Log) evicted(docID uint32, rec *Record) {
	l.all.Remove(docID)
	removeFromBitmap(l.byType, rec.HitType, docID)
	removeFromBitmap(l.byStatus, rec.Status, docID)
	if req, ok := l.requestOf[docID]; ok {
		delete(l.byRequest, req)
		delete(l.requestOf, docID)
	}
}

// FormatID renders a document id as a record id.
func FormatID(docID uint32) string {
	return "hit-" + strconv.FormatUint(uint64(docID), 10)
}

// ParseID is the inverse of FormatID.
func ParseID(id string) (uint32, bool) {
	const prefix = "hit-"
	if len(id) <= len(prefix) || id[:len(prefix)] != prefix {
		return 0, false
	}
	n, err := strconv.ParseUint(id[len(prefix):], 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

func addToBitmap[K comparable](m map[K]*roaring.Bitmap, key K, docID uint32) {
	bm, ok := m[key]
	if !ok {
		bm = roaring.New()
		m[key] = bm
	}
	bm.Add(docID)
}

func removeFromBitmap[K comparable](m map[K]*roaring.Bitmap, key K, docID uint32) {
	bm, ok := m[key]
	if !ok {
		return
	}
	bm.Remove(docID)
	if bm.IsEmpty() {
		delete(m, key)
	}
}

func bitmapOrEmpty(bm *roaring.Bitmap) *roaring.Bitmap {
	if bm == nil {
		return roaring.New()
	}
	return bm
}
