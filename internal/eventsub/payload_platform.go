package eventsub

import "time"

// StreamOnlineV1 is stream.online.
type StreamOnlineV1 struct {
	event
	Broadcaster
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	StartedAt time.Time `json:"started_at"`
}

// StreamOfflineV1 is stream.offline.
type StreamOfflineV1 struct {
	event
	Broadcaster
}

// UserUpdateV1 is user.update. Email is only present with user:read:email.
type UserUpdateV1 struct {
	event
	User
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified"`
	Description   string `json:"description"`
}

// UserAuthorizationGrantV1 is user.authorization.grant.
type UserAuthorizationGrantV1 struct {
	event
	User
	ClientID string `json:"client_id"`
}

// UserAuthorizationRevokeV1 is user.authorization.revoke. The user fields
// are null when the user has since been deleted.
type UserAuthorizationRevokeV1 struct {
	event
	ClientID  string  `json:"client_id"`
	UserID    string  `json:"user_id"`
	UserLogin *string `json:"user_login"`
	UserName  *string `json:"user_name"`
}

// ShardStatus is the transport state of a disabled conduit shard.
type ShardStatus struct {
	Method         string     `json:"method"`
	Callback       string     `json:"callback,omitempty"`
	SessionID      string     `json:"session_id,omitempty"`
	ConnectedAt    *time.Time `json:"connected_at,omitempty"`
	DisconnectedAt *time.Time `json:"disconnected_at,omitempty"`
}

// ConduitShardDisabledV1 is conduit.shard.disabled.
type ConduitShardDisabledV1 struct {
	event
	ConduitID string      `json:"conduit_id"`
	ShardID   string      `json:"shard_id"`
	Status    string      `json:"status"`
	Transport ShardStatus `json:"transport"`
}

// ExtensionProduct is the product bought in an extension bits transaction.
type ExtensionProduct struct {
	Name          string `json:"name"`
	SKU           string `json:"sku"`
	Bits          int    `json:"bits"`
	InDevelopment bool   `json:"in_development"`
}

// ExtensionBitsTransactionCreateV1 is extension.bits_transaction.create.
type ExtensionBitsTransactionCreateV1 struct {
	event
	Broadcaster
	User
	ExtensionClientID string           `json:"extension_client_id"`
	ID                string           `json:"id"`
	Product           ExtensionProduct `json:"product"`
}
