package models

// All lists every persisted model, in dependency order, for sqlite-backed
// tests and local AutoMigrate runs.
func All() []any {
	return []any{
		&Category{},
		&Product{},
		&User{},
		&Address{},
		&Cart{},
		&CartLine{},
		&WishlistItem{},
		&Order{},
		&OrderLine{},
		&Transaction{},
		&OutboxEvent{},
	}
}
