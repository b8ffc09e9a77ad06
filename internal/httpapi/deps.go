package httpapi

import (
	"database/sql"
	"sync/atomic"
	"time"

	"jobboard-engine/internal/config"
	"jobboard-engine/internal/events"
	"jobboard-engine/internal/poll"
	"jobboard-engine/internal/scrape"
	"jobboard-engine/internal/secrets"
	"jobboard-engine/internal/tracker"
)

// SessionStore is the slice of the session manager the API touches.
type SessionStore interface {
	Session() (secrets.Session, bool)
	SetSession(secrets.Session) error
	Logout() error
}

type Deps struct {
	Tracker *tracker.Store

	// DB backs the import page cache and the company-by-domain lookup.
	// Nil disables both.
	DB *sql.DB

	Hub *events.Hub

	CfgVal *atomic.Value // stores config.Config

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	Syncer    *poll.Syncer
	Snapshots *poll.SnapshotWriter
	Importer  *scrape.Importer
	Sessions  SessionStore

	Now func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}

func (d Deps) config() config.Config {
	if d.CfgVal == nil {
		return config.Default()
	}
	if c, ok := d.CfgVal.Load().(config.Config); ok {
		return c
	}
	return config.Default()
}
