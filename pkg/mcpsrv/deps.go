package mcpsrv

import "github.com/usestring/gatrack/internal/mcp/tools"

// Deps is what custom tools get from WithDepsTool: the tracker that sends
// hits, the hit log fed by it, the jq engine and the JSON hit validator.
// Builtin tools receive the same values.
type Deps = tools.Deps
