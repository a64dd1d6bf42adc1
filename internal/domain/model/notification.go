package model

// Events pushed to a user's notification channel.
const (
	EventAccessGranted       = "access-granted"
	EventRedeemSucceeded     = "redeem-succeeded"
	EventPurchaseSucceeded   = "purchase-succeeded"
	EventProgressUpdated     = "progress-updated"
	EventEntitlementExpiring = "entitlement-expiring"
)

// NotificationKindExpiring is the kind recorded in the notification log for
// expiry reminders.
const NotificationKindExpiring = "expiring"
