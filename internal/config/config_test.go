package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jobboard-engine/internal/domain"
	"jobboard-engine/internal/test"
)

func TestShippedDefaultConfigIsValid(t *testing.T) {
	t.Parallel()
	cfg, err := Load(filepath.Join("..", "..", "config", "config.yml"))
	test.AssertNotError(t, err, "load")
	_, res := NormalizeAndValidate(cfg)
	test.Assert(t, res.OK(), "shipped config has errors: "+strings.Join(res.Errors, "; "))
	ss, err := cfg.StageSet()
	test.AssertNotError(t, err, "stage set")
	test.AssertEquals(t, ss.Len(), 7)
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yml")
	test.AssertNotError(t, os.WriteFile(path, []byte("remote:\n  base_url: https://jobs.example.com\n"), 0o644), "write")
	cfg, err := Load(path)
	test.AssertNotError(t, err, "load")
	test.AssertEquals(t, cfg.App.Port, 38471)
	test.AssertEquals(t, cfg.Analytics.StaleDays, 14)
	test.AssertEquals(t, cfg.Remote.BaseURL, "https://jobs.example.com")
	test.AssertNotError(t, Validate(cfg), "validate")
}

func TestValidationErrors(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.App.Port = 70000
	cfg.Remote.BaseURL = ""
	cfg.Analytics.StaleDays = 0
	cfg.Board.Stages = []domain.StageDef{
		{ID: "wishlist", Role: domain.RoleWishlist},
		{ID: "wishlist", Role: domain.RoleWishlist},
		{ID: " ", Role: "limbo"},
	}
	_, res := NormalizeAndValidate(cfg)
	test.Assert(t, !res.OK(), "expected errors")
	all := strings.Join(res.Errors, "\n")
	for _, want := range []string{"app.port", "remote.base_url", "stale_days", "duplicated", "id is required", "role must be", "at most one wishlist"} {
		test.AssertContains(t, all, want)
	}
	test.AssertError(t, Validate(cfg), "validate")
}

func TestSupabaseKeyMayComeFromEnv(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Remote.Kind = " Supabase "
	cfg.Remote.SupabaseURL = "https://abc.supabase.co"
	out, res := NormalizeAndValidate(cfg)
	test.Assert(t, res.OK(), "unexpected errors: "+strings.Join(res.Errors, "; "))
	test.AssertEquals(t, out.Remote.Kind, RemoteSupabase)
	test.AssertEquals(t, len(res.Warnings), 1)
}

func TestSaveAtomicKeepsBackup(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yml")
	cfg := Default()
	cfg.Remote.BaseURL = "https://jobs.example.com"
	test.AssertNotError(t, SaveAtomic(path, cfg), "first save")
	cfg.Analytics.StaleDays = 21
	test.AssertNotError(t, SaveAtomic(path, cfg), "second save")

	got, err := Load(path)
	test.AssertNotError(t, err, "reload")
	test.AssertEquals(t, got.Analytics.StaleDays, 21)
	bak, err := Load(path + ".bak")
	test.AssertNotError(t, err, "backup")
	test.AssertEquals(t, bak.Analytics.StaleDays, 14)

	cfg.App.Port = 0
	test.AssertError(t, SaveAtomic(path, cfg), "invalid config must not be saved")
}

func TestOverlayStages(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfg := Default()
	test.AssertNotError(t, OverlayStages(&cfg, filepath.Join(dir, "missing.yml")), "missing overlay")
	test.AssertEquals(t, len(cfg.Board.Stages), 0)

	path := filepath.Join(dir, "stages.yml")
	body := "stages:\n  - {id: todo, role: wishlist}\n  - {id: sent, label: Sent, role: applied}\n  - {id: done, role: offered}\n"
	test.AssertNotError(t, os.WriteFile(path, []byte(body), 0o644), "write")
	test.AssertNotError(t, OverlayStages(&cfg, path), "overlay")
	ss, err := cfg.StageSet()
	test.AssertNotError(t, err, "stage set")
	test.AssertDeepEquals(t, ss.IDs(), []domain.Stage{"todo", "sent", "done"})
	test.AssertEquals(t, ss.RoleOf("done"), domain.RoleOffered)
}

func TestEnsureUserConfigCopiesOnce(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	def := filepath.Join(dir, "default.yml")
	test.AssertNotError(t, os.WriteFile(def, []byte("app:\n  port: 4000\n"), 0o644), "write")
	user, err := EnsureUserConfig(dir, def)
	test.AssertNotError(t, err, "ensure")
	test.AssertNotError(t, os.WriteFile(user, []byte("app:\n  port: 5000\n"), 0o644), "edit")
	again, err := EnsureUserConfig(dir, def)
	test.AssertNotError(t, err, "ensure again")
	cfg, err := Load(again)
	test.AssertNotError(t, err, "load")
	test.AssertEquals(t, cfg.App.Port, 5000)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("JOBBOARD_API_URL", "https://override.example.com")
	t.Setenv("SUPABASE_KEY", "anon-key")
	cfg := Default()
	ApplyEnv(&cfg)
	test.AssertEquals(t, cfg.Remote.BaseURL, "https://override.example.com")
	test.AssertEquals(t, cfg.Remote.SupabaseKey, "anon-key")
}
