package seed

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"stockbook/internal/db"
	applog "stockbook/internal/log"
	"stockbook/models"
)

// New returns an in-memory sqlite database seeded with a representative
// demo business. Used when no DATABASE_URL is configured and by tests that
// want realistic data.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising demo database")

	database, err := gorm.Open(sqlite.Open("file:stockbook-demo?mode=memory&cache=shared"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(database); err != nil {
		return nil, err
	}

	if err := Apply(ctx, database); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "demo database ready")
	return database, nil
}

// Apply inserts the demo business into the given database.
func Apply(ctx context.Context, database *gorm.DB) error {
	applog.Debug(ctx, "seeding demo business")

	password, err := bcrypt.GenerateFromPassword([]byte("stockbook"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &models.User{
		Name:         "Ade Balogun",
		Email:        "ade@stockbook.app",
		PasswordHash: string(password),
		Role:         models.RoleAdmin,
	}
	if err := database.WithContext(ctx).Create(admin).Error; err != nil {
		return err
	}

	business := &models.Business{
		Name:            "Mama Ade Kitchen",
		Address:         "14 Allen Avenue, Ikeja",
		OwnerID:         admin.ID,
		ManagerPasscode: "204317",
	}
	if err := database.WithContext(ctx).Create(business).Error; err != nil {
		return err
	}

	if err := database.WithContext(ctx).Model(admin).Update("business_id", business.ID).Error; err != nil {
		return err
	}

	staff := &models.User{
		Name:         "Chidi Okafor",
		Email:        "chidi@stockbook.app",
		PasswordHash: string(password),
		Role:         models.RoleStaff,
		BusinessID:   &business.ID,
	}
	if err := database.WithContext(ctx).Create(staff).Error; err != nil {
		return err
	}

	sugar := models.InventoryItem{BusinessID: business.ID, Name: "Sugar", Unit: "kg", Quantity: 10, Threshold: 2}
	rice := models.InventoryItem{BusinessID: business.ID, Name: "Rice", Unit: "kg", Quantity: 25, Threshold: 5}
	oil := models.InventoryItem{BusinessID: business.ID, Name: "Vegetable Oil", Unit: "L", Quantity: 8, Threshold: 3}

	for _, item := range []*models.InventoryItem{&sugar, &rice, &oil} {
		if err := database.WithContext(ctx).Create(item).Error; err != nil {
			return err
		}
	}

	cake := models.PredefinedOrder{
		BusinessID: business.ID,
		Name:       "Cake",
		Type:       models.TemplateTypeDish,
	}
	jollof := models.PredefinedOrder{
		BusinessID: business.ID,
		Name:       "Jollof Rice",
		Type:       models.TemplateTypeDish,
	}
	for _, template := range []*models.PredefinedOrder{&cake, &jollof} {
		if err := database.WithContext(ctx).Create(template).Error; err != nil {
			return err
		}
	}

	lines := []models.TemplateLine{
		{OrderID: cake.ID, ItemID: sugar.ID, QuantityPerOrder: 2},
		{OrderID: jollof.ID, ItemID: rice.ID, QuantityPerOrder: 1.5},
		{OrderID: jollof.ID, ItemID: oil.ID, QuantityPerOrder: 1},
	}
	for _, line := range lines {
		lineCopy := line
		if err := database.WithContext(ctx).Create(&lineCopy).Error; err != nil {
			return err
		}
	}

	order := models.Order{
		BusinessID:      business.ID,
		UserID:          staff.ID,
		OrderTemplateID: jollof.ID,
		Quantity:        2,
	}
	if err := database.WithContext(ctx).Create(&order).Error; err != nil {
		return err
	}

	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	usage := models.InventoryLog{
		BusinessID: business.ID,
		UserID:     staff.ID,
		ItemID:     rice.ID,
		Date:       yesterday,
		StartQty:   27,
		UsedQty:    2,
	}
	if err := database.WithContext(ctx).Create(&usage).Error; err != nil {
		return err
	}

	shopping := models.ShoppingListEntry{
		BusinessID:        business.ID,
		ItemID:            oil.ID,
		SuggestedQuantity: 5,
	}
	if err := database.WithContext(ctx).Create(&shopping).Error; err != nil {
		return err
	}

	applog.Debug(ctx, "demo business seeded", "businessID", business.ID)
	return nil
}
