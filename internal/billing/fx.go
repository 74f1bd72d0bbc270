package billing

import (
	"github.com/fintutto/zugang/internal/billing/adapters/fake"
	"github.com/fintutto/zugang/internal/billing/adapters/stripe"
	"github.com/fintutto/zugang/internal/billing/domain"
	"github.com/fintutto/zugang/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("billing.provider",
	fx.Provide(NewProvider),
)

func NewProvider(cfg config.Config, log *zap.Logger) domain.Provider {
	switch cfg.BillingProvider {
	case config.BillingProviderFake:
		log.Warn("using in-memory billing provider")
		return fake.New()
	default:
		return stripe.New(cfg.StripeAPIKey, cfg.StripeBaseURL, log)
	}
}
