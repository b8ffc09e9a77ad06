// config/overlay.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"jobboard-engine/internal/domain"
)

type StagesFile struct {
	Stages []domain.StageDef `yaml:"stages"`
}

// OverlayStages replaces the board stages with the ones listed in a
// stages.yml next to the user config.
func OverlayStages(cfg *Config, stagesPath string) error {
	b, err := os.ReadFile(stagesPath)
	if err != nil {
		// Missing stages file should not kill startup
		return nil
	}

	var sf StagesFile
	if err := yaml.Unmarshal(b, &sf); err != nil {
		return err
	}
	if len(sf.Stages) > 0 {
		cfg.Board.Stages = sf.Stages
	}
	return nil
}
