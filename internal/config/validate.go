package config

import (
	"fmt"
	"net/url"
	"strings"

	"jobboard-engine/internal/domain"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a trimmed copy of cfg and everything wrong
// with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	out.Remote.Kind = strings.ToLower(strings.TrimSpace(out.Remote.Kind))
	out.Remote.BaseURL = strings.TrimRight(strings.TrimSpace(out.Remote.BaseURL), "/")
	out.Remote.SupabaseURL = strings.TrimSpace(out.Remote.SupabaseURL)
	out.Board.StageSet = strings.ToLower(strings.TrimSpace(out.Board.StageSet))
	if len(out.Board.Stages) > 0 {
		out.Board.Stages = append([]domain.StageDef(nil), out.Board.Stages...)
		for i := range out.Board.Stages {
			s := &out.Board.Stages[i]
			s.ID = domain.Stage(strings.TrimSpace(string(s.ID)))
			s.Label = strings.TrimSpace(s.Label)
			s.Role = domain.Role(strings.ToLower(strings.TrimSpace(string(s.Role))))
		}
	}

	// ---- Validation rules ----

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	switch out.Remote.Kind {
	case RemoteHTTP:
		if out.Remote.BaseURL == "" {
			res.addErr("remote.base_url is required when remote.kind=http")
		} else if u, err := url.Parse(out.Remote.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			res.addErr("remote.base_url %q is not an absolute URL", out.Remote.BaseURL)
		} else if u.Scheme == "http" && !isLoopback(u.Hostname()) {
			res.addWarn("remote.base_url uses plain http; the session token will travel unencrypted.")
		}
	case RemoteSupabase:
		if out.Remote.SupabaseURL == "" {
			res.addErr("remote.supabase_url is required when remote.kind=supabase")
		}
		if strings.TrimSpace(out.Remote.SupabaseKey) == "" {
			res.addWarn("remote.supabase_key is empty; set SUPABASE_KEY in the environment.")
		}
	default:
		res.addErr("remote.kind must be http or supabase (got %q)", out.Remote.Kind)
	}
	if out.Remote.TimeoutSeconds < 0 {
		res.addErr("remote.timeout_seconds must be >= 0")
	}
	if out.Remote.RequestsPerSecond < 0 {
		res.addErr("remote.requests_per_second must be >= 0")
	}

	// stages
	if len(out.Board.Stages) > 0 {
		if out.Board.StageSet != "" && out.Board.StageSet != "default" {
			res.addWarn("board.stages is set; board.stage_set %q is ignored.", out.Board.StageSet)
		}
		seen := map[domain.Stage]bool{}
		wish := 0
		for i, s := range out.Board.Stages {
			if s.ID == "" {
				res.addErr("board.stages[%d].id is required", i)
			} else if seen[s.ID] {
				res.addErr("board.stages[%d].id %q is duplicated", i, s.ID)
			}
			seen[s.ID] = true
			if !s.Role.Valid() {
				res.addErr("board.stages[%d].role must be wishlist, applied, interview, offered or rejected", i)
			}
			if s.Role == domain.RoleWishlist {
				wish++
			}
		}
		if wish > 1 {
			res.addErr("board.stages may have at most one wishlist stage (got %d)", wish)
		}
	} else if _, ok := domain.StageSetByName(out.Board.StageSet); !ok {
		res.addErr("board.stage_set must be default or split (got %q)", out.Board.StageSet)
	}

	if out.Analytics.StaleDays <= 0 {
		res.addErr("analytics.stale_days must be > 0")
	}

	// sync sanity
	if out.Sync.RefetchSeconds < 0 {
		res.addErr("sync.refetch_seconds must be >= 0")
	} else if out.Sync.RefetchSeconds > 0 && out.Sync.RefetchSeconds < 10 {
		res.addWarn("sync.refetch_seconds is very low (%d) and may cause rate limits.", out.Sync.RefetchSeconds)
	}
	if out.Sync.SnapshotSeconds < 0 {
		res.addErr("sync.snapshot_seconds must be >= 0")
	} else if out.Sync.SnapshotSeconds == 0 {
		res.addWarn("sync.snapshot_seconds is 0; the board is only saved on shutdown.")
	}

	if strings.TrimSpace(out.Auth.KeyringAccount) == "" {
		res.addErr("auth.keyring_account is required")
	}

	return out, res
}

func isLoopback(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}
