package main

import (
	"log"
	"time"

	"rentdesk-billing/pkg/config"
	"rentdesk-billing/pkg/db"
	"rentdesk-billing/pkg/logger"
	"rentdesk-billing/services/account"
	"rentdesk-billing/services/catalog"
	"rentdesk-billing/services/checkout"
	"rentdesk-billing/services/entitlement"
	"rentdesk-billing/services/gateway"
	"rentdesk-billing/services/notification"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		fx.Provide(provideSnowflakeNode),
		fx.Invoke(seed),
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func seed(db *gorm.DB, node *snowflake.Node, shutdowner fx.Shutdowner) error {
	if err := db.AutoMigrate(
		&account.User{},
		&catalog.Package{},
		&catalog.SubscriptionPrice{},
		&gateway.Gateway{},
		&gateway.GatewayCurrency{},
		&gateway.Bank{},
		&gateway.Currency{},
		&checkout.SubscriptionOrder{},
		&entitlement.OwnerPackage{},
		&notification.EmailTemplate{},
		&notification.Setting{},
	); err != nil {
		return err
	}

	var currencies int64
	if err := db.Model(&gateway.Currency{}).Count(&currencies).Error; err != nil {
		return err
	}

	if currencies == 0 {
		if err := db.Create(&gateway.Currency{
			ID:        node.Generate().String(),
			Code:      "USD",
			Symbol:    "$",
			IsCurrent: true,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}).Error; err != nil {
			return err
		}
	}

	var trials int64
	if err := db.Model(&catalog.Package{}).Where("is_trial = ?", true).Count(&trials).Error; err != nil {
		return err
	}

	if trials == 0 {
		if err := db.Create(&catalog.Package{
			ID:             node.Generate().String(),
			Name:           "Trial",
			Slug:           "trial",
			Type:           catalog.TypeDefault,
			MonthlyPrice:   decimal.Zero,
			YearlyPrice:    decimal.Zero,
			MaxProperty:    1,
			MaxUnit:        5,
			MaxTenant:      5,
			MaxMaintainer:  1,
			MaxInvoice:     catalog.Unlimited,
			MaxAutoInvoice: catalog.Unlimited,
			Status:         catalog.Active,
			IsTrial:        true,
			IsDefault:      true,
			CreatedAt:      time.Now(),
			UpdatedAt:      time.Now(),
		}).Error; err != nil {
			return err
		}
	}

	// Gateways are owned by the platform admin; without one yet they are
	// seeded unowned and claimed on first admin setup.
	var adminID string
	var admin account.User
	if err := db.Where("role = ?", account.RoleAdmin).First(&admin).Error; err == nil {
		adminID = admin.ID
	}

	for _, slug := range []string{"bank", "cash", "stripe", "paypal", "mercadopago"} {
		var count int64
		if err := db.Model(&gateway.Gateway{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		if err := db.Create(&gateway.Gateway{
			ID:          node.Generate().String(),
			OwnerUserID: adminID,
			Slug:        slug,
			Title:       slug,
			Status:      gateway.Inactive,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}).Error; err != nil {
			return err
		}
	}

	zap.L().Info("billing seed completed")
	return shutdowner.Shutdown()
}
