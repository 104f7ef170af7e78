package model

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&Privilege{}, &Role{}, &User{},
		&Size{}, &Brand{}, &Category{}, &ProductType{},
		&Product{}, &ProductSize{}, &StockBatch{},
		&Customer{}, &Transaction{}, &TransactionItem{},
		&NotificationLog{}, &Notification{},
	}
}
