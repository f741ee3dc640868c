package model

// All lists every persisted model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&Company{},
		&User{},
		&Billboard{},
		&Client{},
		&Supplier{},
		&ProductService{},
		&StockMovement{},
		&Project{},
		&Quote{},
		&DeliveryNote{},
		&Invoice{},
		&PurchaseOrder{},
		&Item{},
		&Payment{},
		&TransactionCategory{},
		&TransactionNature{},
		&Receipt{},
		&Dibursement{},
		&DeletionRequest{},
	}
}
