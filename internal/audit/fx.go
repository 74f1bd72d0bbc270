package audit

import (
	"github.com/fintutto/zugang/internal/audit/repository"
	"github.com/fintutto/zugang/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.recorder",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
