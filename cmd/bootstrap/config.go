package bootstrap

import (
	"courtbook/internal/pkg/config"

	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		config.LoadConfig,
		func(cfg config.Config) config.SchedulerConfig {
			return cfg.Scheduler
		},
	),
)
