package migration

import (
	auditdomain "github.com/fintutto/zugang/internal/audit/domain"
	"github.com/fintutto/zugang/internal/config"
	identitydomain "github.com/fintutto/zugang/internal/identity/domain"
	organizationdomain "github.com/fintutto/zugang/internal/organization/domain"
	rbacdomain "github.com/fintutto/zugang/internal/rbac/domain"
	seatdomain "github.com/fintutto/zugang/internal/seat/domain"
	"github.com/fintutto/zugang/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// Versioned SQL targets postgres; other dialects (sqlite and mysql
		// for local setups) fall back to AutoMigrate.
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			if err := conn.AutoMigrate(
				&identitydomain.User{},
				&organizationdomain.Organization{},
				&organizationdomain.Membership{},
				&rbacdomain.Permission{},
				&rbacdomain.Role{},
				&rbacdomain.RolePermission{},
				&rbacdomain.Grant{},
				&seatdomain.Allocation{},
				&auditdomain.AccessDecision{},
			); err != nil {
				return err
			}
		}

		if err := seed.EnsurePermissionCatalog(conn); err != nil {
			return err
		}
		return seed.EnsureBootstrapAdmin(conn)
	}),
)
