package tools

import (
	"github.com/usestring/gatrack/internal/config"
	"github.com/usestring/gatrack/internal/hitlog"
	"github.com/usestring/gatrack/internal/query"
	"github.com/usestring/gatrack/internal/schema"
	"github.com/usestring/gatrack/pkg/tracker"
)

// Deps contains all dependencies needed by tool handlers.
//
// HitLog must be attached to Tracker (tracker.WithOnSubmit(HitLog.Submitted)
// and tracker.WithOnTracked(HitLog.Tracked)) for ga_track_hit to report ids
// and outcomes.
type Deps struct {
	Tracker *tracker.Tracker
	HitLog  *hitlog.Log
	Query   *query.Engine
	Schema  *schema.Validator
	Config  *config.Config
}
