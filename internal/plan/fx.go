package plan

import (
	"github.com/fintutto/zugang/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("plan.table",
	fx.Provide(Provide),
)

func Provide(cfg config.Config, log *zap.Logger) (*Table, error) {
	table, err := Load(cfg.PlanConfigPath)
	if err != nil {
		return nil, err
	}
	log.Info("plan table loaded",
		zap.Strings("tiers", table.Order()),
	)
	return table, nil
}
