package cmd

import (
	"os"

	"example.com/backstage/services/distribution/config"
	"example.com/backstage/services/distribution/internal/auth"
	"example.com/backstage/services/distribution/internal/database"
	"example.com/backstage/services/distribution/internal/models"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var seedAdminPassword string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations and seed baseline data",
	Long:  `Run schema migrations, then seed the permission resources, an Administrator role with full grants, and an admin user`,
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&seedAdminPassword, "admin-password", "", "password for the seeded admin user (skips admin seeding when empty)")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	db, readOnlyDB, err := database.Connect(cfg.DB)
	if err != nil {
		return err
	}
	defer database.Close(db)
	defer database.Close(readOnlyDB)

	if err := database.Migrate(db); err != nil {
		return err
	}
	log.Info().Msg("Migrations applied")

	if err := seedBaseline(db); err != nil {
		return err
	}

	log.Info().Msg("Baseline data seeded")
	return nil
}

// seedBaseline inserts the permission resources and the Administrator role.
// Re-running is harmless: rows that already exist are left untouched.
func seedBaseline(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		resources := []models.Resource{
			{ResourceKey: auth.ResourceUsers, DisplayName: "Users"},
			{ResourceKey: auth.ResourceRoles, DisplayName: "Roles"},
			{ResourceKey: auth.ResourceDailyDelivery, DisplayName: "Daily Deliveries"},
			{ResourceKey: auth.ResourceDeliveryMapping, DisplayName: "Delivery Mappings"},
			{ResourceKey: auth.ResourceCustomerCredit, DisplayName: "Customer Credit"},
			{ResourceKey: auth.ResourcePurchaseEntry, DisplayName: "Purchase Entries"},
			{ResourceKey: auth.ResourceStockRegister, DisplayName: "Stock Register"},
			{ResourceKey: auth.ResourceVehicleAssignment, DisplayName: "Vehicle Assignments"},
		}
		for i := range resources {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "resource_key"}},
				DoNothing: true,
			}).Create(&resources[i]).Error
			if err != nil {
				return err
			}
		}

		adminRole := models.Role{Name: "Administrator", Description: "Full access to all resources"}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&adminRole).Error
		if err != nil {
			return err
		}
		if adminRole.ID == 0 {
			if err := tx.Where("name = ?", "Administrator").First(&adminRole).Error; err != nil {
				return err
			}
		}

		var allResources []models.Resource
		if err := tx.Find(&allResources).Error; err != nil {
			return err
		}
		for _, res := range allResources {
			grant := models.RolePermission{
				RoleID:     adminRole.ID,
				ResourceID: res.ID,
				CanView:    true,
				CanCreate:  true,
				CanUpdate:  true,
				CanDelete:  true,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "role_id"}, {Name: "resource_id"}},
				DoNothing: true,
			}).Create(&grant).Error
			if err != nil {
				return err
			}
		}

		if seedAdminPassword != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(seedAdminPassword), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			admin := models.User{
				Username:     "admin",
				Email:        "admin@example.com",
				PasswordHash: string(hash),
				RoleID:       adminRole.ID,
				IsActive:     true,
			}
			err = tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "email"}},
				DoNothing: true,
			}).Create(&admin).Error
			if err != nil {
				return err
			}
		}

		return nil
	})
}
