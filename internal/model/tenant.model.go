package model

// Tenant is an institution using the inbox. ChannelRef identifies the tenant's
// sending channel at the messaging gateway.
type Tenant struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	APIKey     string `json:"-"`
	ChannelRef string `json:"channel_ref"`
	Active     bool   `json:"active"`
}

func (Tenant) TableName() string { return "tenants" }
