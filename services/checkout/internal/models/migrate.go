package models

import (
	"github.com/Skotchmaster/storefront/pkg/outbox"
	"gorm.io/gorm"
)

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&ProductType{},
		&Product{},
		&Inventory{},
		&Bundle{},
		&BundleProduct{},
		&Cart{},
		&CartItem{},
		&DiscountCode{},
		&Location{},
		&Order{},
		&OrderItem{},
		&outbox.Event{},
	)
}
