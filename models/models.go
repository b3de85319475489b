package models

// All tables in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Zone{},
		&Table{},
		&Customer{},
		&MenuCategory{},
		&MenuItem{},
		&Discount{},
		&Order{},
		&OrderItem{},
		&KitchenTicket{},
		&Invoice{},
		&Payment{},
		&Reservation{},
		&Ingredient{},
		&InventoryMovement{},
		&Notification{},
	}
}
