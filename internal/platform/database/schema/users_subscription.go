package schema

// UserSubscriptionTable represents the 'users.subscription' table
type UserSubscriptionTable struct {
	Table        string
	SubscriberID string
	ChannelID    string
	CreatedAt    string
}

// UserSubscription is the schema definition for users.subscription
var UserSubscription = UserSubscriptionTable{
	Table:        "users.subscription",
	SubscriberID: "subscriberid",
	ChannelID:    "channelid",
	CreatedAt:    "createdat",
}

// Columns returns all standard column names
func (t UserSubscriptionTable) Columns() []string {
	return []string{t.SubscriberID, t.ChannelID, t.CreatedAt}
}
