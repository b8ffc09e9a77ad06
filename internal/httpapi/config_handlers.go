package httpapi

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"reflect"
	"sync/atomic"

	"jobboard-engine/internal/config"
)

const redacted = "********"

type ConfigHandler struct {
	CfgVal      *atomic.Value // stores config.Config
	UserCfgPath string
	LoadCfg     func() (config.Config, error)
}

type configResp struct {
	Config config.Config `json:"config"`
	// RestartRequired is set when a saved change only applies on the
	// next engine start (stages, remote backend, port).
	RestartRequired bool `json:"restart_required,omitempty"`
}

func redact(c config.Config) config.Config {
	if c.Remote.SupabaseKey != "" {
		c.Remote.SupabaseKey = redacted
	}
	return c
}

func (h ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	cur := h.CfgVal.Load().(config.Config)
	writeJSON(w, configResp{Config: redact(cur)})
}

func (h ConfigHandler) Put(w http.ResponseWriter, r *http.Request) {
	var incoming config.Config
	if err := decodeBody(r, &incoming); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	cur := h.CfgVal.Load().(config.Config)
	if incoming.Remote.SupabaseKey == redacted {
		incoming.Remote.SupabaseKey = cur.Remote.SupabaseKey
	}

	normalized, vr := config.NormalizeAndValidate(incoming)
	if !vr.OK() {
		// structured errors so the UI can show them per field
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(vr)
		return
	}

	if err := config.SaveAtomic(h.UserCfgPath, normalized); err != nil {
		WriteError(w, r, http.StatusInternalServerError, CodeInternal, err.Error())
		return
	}

	saved, err := h.LoadCfg()
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, CodeInternal, "saved but reload failed: "+err.Error())
		return
	}
	h.CfgVal.Store(saved)

	restart := !reflect.DeepEqual(cur.Board, saved.Board) ||
		cur.Remote != saved.Remote ||
		cur.App.Port != saved.App.Port
	writeJSON(w, configResp{Config: redact(saved), RestartRequired: restart})
}

func (h ConfigHandler) Path(w http.ResponseWriter, r *http.Request) {
	abs, _ := filepath.Abs(h.UserCfgPath)
	writeJSON(w, map[string]any{"path": abs})
}

func (h ConfigHandler) Validate(w http.ResponseWriter, r *http.Request) {
	cur := h.CfgVal.Load().(config.Config)
	_, vr := config.NormalizeAndValidate(cur)
	writeJSON(w, vr)
}
