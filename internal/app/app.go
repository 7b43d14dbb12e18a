package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/phenrril/marketplace/internal/adapters/cache/memory"
	"github.com/phenrril/marketplace/internal/adapters/export/xlsx"
	"github.com/phenrril/marketplace/internal/adapters/httpserver"
	"github.com/phenrril/marketplace/internal/adapters/repo/postgres"
	"github.com/phenrril/marketplace/internal/config"
	"github.com/phenrril/marketplace/internal/domain"
	"github.com/phenrril/marketplace/internal/usecase"
)

type App struct {
	DB     *gorm.DB
	Config config.Config

	ProductUC  *usecase.ProductUC
	OrderUC    *usecase.OrderUC
	AddressUC  *usecase.AddressUC
	SettingsUC *usecase.SettingsUC

	Users    domain.UserRepo
	Settings *postgres.SettingRepo
}

func NewApp(db *gorm.DB, cfg config.Config) (*App, error) {
	if db == nil {
		return nil, errors.New("base de datos nil")
	}
	prodRepo := postgres.NewProductRepo(db)
	orderRepo := postgres.NewOrderRepo(db)
	addrRepo := postgres.NewAddressRepo(db)
	settingRepo := postgres.NewSettingRepo(db)
	userRepo := postgres.NewUserRepo(db)
	tx := postgres.NewTxManager(db)

	regions := domain.RegionDefaults{State: cfg.AddressDefaultState, Country: cfg.AddressDefaultCountry}

	a := &App{DB: db, Config: cfg, Users: userRepo, Settings: settingRepo}
	a.SettingsUC = &usecase.SettingsUC{
		Settings: settingRepo,
		Cache:    memory.New(cfg.SettingsCacheTTL),
		TTL:      cfg.SettingsCacheTTL,
	}
	a.ProductUC = &usecase.ProductUC{Products: prodRepo}
	a.AddressUC = &usecase.AddressUC{Tx: tx, Addresses: addrRepo, Regions: regions}
	a.OrderUC = &usecase.OrderUC{
		Tx:                      tx,
		Orders:                  orderRepo,
		Settings:                a.SettingsUC,
		Numbers:                 usecase.NewOrderNumberGenerator(),
		Exporter:                xlsx.NewWriter(),
		Regions:                 regions,
		NumberAttempts:          cfg.OrderNumberAttempts,
		TrustClientVariantPrice: cfg.TrustClientVariantPrice,
	}
	return a, nil
}

func (a *App) HTTPHandler() http.Handler {
	return httpserver.New(httpserver.Deps{
		Products:  a.ProductUC,
		Orders:    a.OrderUC,
		Addresses: a.AddressUC,
		Settings:  a.SettingsUC,
		Auth:      httpserver.NewAuthenticator(a.Config.JWTSecret, a.Users),
	})
}

func (a *App) MigrateAndSeed(ctx context.Context) error {
	if err := a.DB.AutoMigrate(
		&domain.Category{}, &domain.ProductType{}, &domain.Product{}, &domain.Image{},
		&domain.User{}, &domain.Address{}, &domain.Order{}, &domain.OrderItem{}, &domain.Setting{},
	); err != nil {
		return err
	}

	if err := a.Settings.SeedDefaults(ctx, defaultSettings(a.Config)); err != nil {
		return fmt.Errorf("seed de settings: %w", err)
	}

	if !a.Config.IsProduction() {
		var n int64
		if err := a.DB.Model(&domain.Product{}).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return seedProducts(ctx, a.ProductUC)
		}
	}
	return nil
}

func defaultSettings(cfg config.Config) []domain.Setting {
	return []domain.Setting{
		{Key: domain.SettingDeliveryEnabled, Value: "true", Type: domain.SettingTypeBoolean, Description: "Charge and offer home delivery"},
		{Key: domain.SettingDeliveryFee, Value: cfg.DeliveryFeeDefault.StringFixed(2), Type: domain.SettingTypeNumber, Description: "Flat delivery fee"},
		{Key: domain.SettingFreeDeliveryThreshold, Value: cfg.FreeDeliveryThresholdDefault.StringFixed(2), Type: domain.SettingTypeNumber, Description: "Subtotal from which delivery is free"},
	}
}

func seedProducts(ctx context.Context, uc *usecase.ProductUC) error {
	yes, no := true, false
	prods := []domain.Product{
		{Name: "Tomatoes", Price: decimal.NewFromInt(100), Unit: "kg", IsAvailable: true,
			Specifications: map[string]any{"origin": "Santa Fe"}},
		{Name: "Potatoes", Price: decimal.NewFromInt(60), Unit: "kg", IsAvailable: true},
		{Name: "Honey", Price: decimal.NewFromInt(200), Unit: "jar", IsAvailable: true,
			Variants: []domain.ProductVariant{
				{Name: "Small", Price: decimal.NewFromInt(200), IsAvailable: &yes},
				{Name: "Large", Price: decimal.NewFromInt(300), IsAvailable: &yes},
				{Name: "Family", Price: decimal.NewFromInt(520), IsAvailable: &no},
			}},
		{Name: "Goat Cheese", Price: decimal.NewFromInt(450), Unit: "unit", IsAvailable: false},
	}
	for i := range prods {
		if err := uc.Create(ctx, &prods[i]); err != nil {
			return fmt.Errorf("seed de producto %s: %w", prods[i].Name, err)
		}
	}
	return nil
}
