package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fintutto/zugang/internal/audit/domain"
	"github.com/fintutto/zugang/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const writeTimeout = 3 * time.Second

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Recorder struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Recorder {
	return &Recorder{
		db:    p.DB,
		log:   p.Log.Named("audit.recorder"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

// Record writes the decision in the background. The request context is not
// reused so a canceled request cannot drop the audit row.
func (r *Recorder) Record(ctx context.Context, decision domain.AccessDecision) {
	decision.ID = r.genID.Generate()
	decision.CreatedAt = r.clock.Now()

	go func() {
		writeCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if err := r.repo.Create(writeCtx, r.db, &decision); err != nil {
			r.log.Error("failed to persist access decision",
				zap.String("operation", decision.Operation),
				zap.String("outcome", decision.Outcome),
				zap.Error(err),
			)
		}
	}()
}
