package repository

// AllEntities lists every table owned by this module, in dependency order.
// Tests migrate sqlite with it; production uses the SQL migrations.
func AllEntities() []interface{} {
	return []interface{}{
		&TenantEntity{},
		&ConversationEntity{},
		&MessageEntity{},
		&ScheduledMessageEntity{},
		&DeliveryAttemptEntity{},
	}
}
