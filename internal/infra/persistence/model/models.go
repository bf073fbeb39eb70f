package model

// All lists every table in dependency order for auto migration.
func All() []any {
	return []any{
		&UserModel{},
		&ItemModel{},
		&ItemImageModel{},
		&LedgerEntryModel{},
		&OrderModel{},
		&OrderItemModel{},
		&CartItemModel{},
		&PointsEventModel{},
		&WishlistSubscriptionModel{},
		&WishlistMatchModel{},
		&NotificationModel{},
		&NotificationPreferenceModel{},
		&ReferralModel{},
		&AuditLogModel{},
		&DeviceModel{},
	}
}
