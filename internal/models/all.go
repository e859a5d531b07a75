package models

// All lists every model, in dependency order, for auto-migration in tests.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Account{},
		&Transaction{},
		&FixedDeposit{},
		&LoginDetail{},
		&InterestAccrual{},
		&AuditLog{},
	}
}
