// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"jobboard-engine/internal/domain"
)

const (
	RemoteHTTP     = "http"
	RemoteSupabase = "supabase"
)

type Remote struct {
	Kind              string  `yaml:"kind" json:"kind"`
	BaseURL           string  `yaml:"base_url" json:"base_url"`
	TimeoutSeconds    int     `yaml:"timeout_seconds" json:"timeout_seconds"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`
	SupabaseURL       string  `yaml:"supabase_url" json:"supabase_url"`
	SupabaseKey       string  `yaml:"supabase_key" json:"supabase_key"`
}

type Board struct {
	// StageSet names a built-in set; Stages, when present, wins.
	StageSet string            `yaml:"stage_set" json:"stage_set"`
	Stages   []domain.StageDef `yaml:"stages,omitempty" json:"stages,omitempty"`
}

type Config struct {
	App struct {
		Port    int    `yaml:"port" json:"port"`
		DataDir string `yaml:"data_dir" json:"data_dir"`
	} `yaml:"app" json:"app"`

	Remote Remote `yaml:"remote" json:"remote"`
	Board  Board  `yaml:"board" json:"board"`

	Analytics struct {
		StaleDays int `yaml:"stale_days" json:"stale_days"`
	} `yaml:"analytics" json:"analytics"`

	Sync struct {
		RefetchSeconds  int `yaml:"refetch_seconds" json:"refetch_seconds"`
		SnapshotSeconds int `yaml:"snapshot_seconds" json:"snapshot_seconds"`
	} `yaml:"sync" json:"sync"`

	Auth struct {
		KeyringAccount string `yaml:"keyring_account" json:"keyring_account"`
	} `yaml:"auth" json:"auth"`
}

// Default is the configuration used for keys a file leaves out.
func Default() Config {
	var cfg Config
	cfg.App.Port = 38471
	cfg.Remote.Kind = RemoteHTTP
	cfg.Remote.TimeoutSeconds = 20
	cfg.Board.StageSet = "default"
	cfg.Analytics.StaleDays = 14
	cfg.Sync.RefetchSeconds = 300
	cfg.Sync.SnapshotSeconds = 30
	cfg.Auth.KeyringAccount = "default"
	return cfg
}

func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

// StageSet builds the pipeline the board uses.
func (c Config) StageSet() (domain.StageSet, error) {
	if len(c.Board.Stages) > 0 {
		return domain.NewStageSet(c.Board.Stages)
	}
	ss, ok := domain.StageSetByName(c.Board.StageSet)
	if !ok {
		return domain.StageSet{}, fmt.Errorf("unknown board.stage_set %q", c.Board.StageSet)
	}
	return ss, nil
}

// ApplyEnv overrides file values with JOBBOARD_* and SUPABASE_*
// variables. Call it after loading .env.
func ApplyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("JOBBOARD_DATA_DIR")); v != "" {
		cfg.App.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv("JOBBOARD_API_URL")); v != "" {
		cfg.Remote.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("SUPABASE_URL")); v != "" {
		cfg.Remote.SupabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("SUPABASE_KEY")); v != "" {
		cfg.Remote.SupabaseKey = v
	}
}
