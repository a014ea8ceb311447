package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tabdeck/tabdeck/internal/bundle"
	"github.com/tabdeck/tabdeck/internal/importer"
	"github.com/tabdeck/tabdeck/internal/logger"
	"github.com/tabdeck/tabdeck/internal/persist"
	"github.com/tabdeck/tabdeck/internal/schema"
	"github.com/tabdeck/tabdeck/internal/state"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedHosts []string         // Host headers allowed to access the server

	RedisClient *redis.Client          // Redis client connection, used by readiness checks
	Registry    schema.ThemeRegistry   // Known preset theme keys
	Live        *state.Live            // In-memory live document
	Adapter     *persist.Adapter       // Storage adapter (load/save/reset/usage)
	Codec       *bundle.Codec          // Archive codec (export/import)
	Importer    *importer.Orchestrator // Import flow orchestration
}

// Now returns the injected clock, falling back to time.Now.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
