package eventsub

import "time"

// ChannelUpdateV1 is channel.update version 1.
type ChannelUpdateV1 struct {
	event
	Broadcaster
	Title        string `json:"title"`
	Language     string `json:"language"`
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	IsMature     bool   `json:"is_mature"`
}

// ChannelUpdateV2 is channel.update version 2.
type ChannelUpdateV2 struct {
	event
	Broadcaster
	Title                       string   `json:"title"`
	Language                    string   `json:"language"`
	CategoryID                  string   `json:"category_id"`
	CategoryName                string   `json:"category_name"`
	ContentClassificationLabels []string `json:"content_classification_labels"`
}

// ChannelFollowV1 is channel.follow version 1.
type ChannelFollowV1 struct {
	event
	User
	Broadcaster
	FollowedAt time.Time `json:"followed_at"`
}

// ChannelFollowV2 is channel.follow version 2. The payload matches version
// 1; the condition additionally requires a moderator.
type ChannelFollowV2 ChannelFollowV1

// ChannelSubscribeV1 is channel.subscribe.
type ChannelSubscribeV1 struct {
	event
	User
	Broadcaster
	Tier   string `json:"tier"`
	IsGift bool   `json:"is_gift"`
}

// ChannelSubscriptionEndV1 is channel.subscription.end.
type ChannelSubscriptionEndV1 ChannelSubscribeV1

// ChannelSubscriptionGiftV1 is channel.subscription.gift.
type ChannelSubscriptionGiftV1 struct {
	event
	Broadcaster
	UserID          *string `json:"user_id"`
	UserLogin       *string `json:"user_login"`
	UserName        *string `json:"user_name"`
	Total           int     `json:"total"`
	Tier            string  `json:"tier"`
	CumulativeTotal *int    `json:"cumulative_total"`
	IsAnonymous     bool    `json:"is_anonymous"`
}

// ChannelSubscriptionMessageV1 is channel.subscription.message.
type ChannelSubscriptionMessageV1 struct {
	event
	User
	Broadcaster
	Tier             string   `json:"tier"`
	Message          RichText `json:"message"`
	CumulativeMonths int      `json:"cumulative_months"`
	StreakMonths     *int     `json:"streak_months"`
	DurationMonths   int      `json:"duration_months"`
}

// ChannelCheerV1 is channel.cheer.
type ChannelCheerV1 struct {
	event
	Broadcaster
	IsAnonymous bool    `json:"is_anonymous"`
	UserID      *string `json:"user_id"`
	UserLogin   *string `json:"user_login"`
	UserName    *string `json:"user_name"`
	Message     string  `json:"message"`
	Bits        int     `json:"bits"`
}

// ChannelRaidV1 is channel.raid.
type ChannelRaidV1 struct {
	event
	FromBroadcasterUserID    string `json:"from_broadcaster_user_id"`
	FromBroadcasterUserLogin string `json:"from_broadcaster_user_login"`
	FromBroadcasterUserName  string `json:"from_broadcaster_user_name"`
	ToBroadcasterUserID      string `json:"to_broadcaster_user_id"`
	ToBroadcasterUserLogin   string `json:"to_broadcaster_user_login"`
	ToBroadcasterUserName    string `json:"to_broadcaster_user_name"`
	Viewers                  int    `json:"viewers"`
}

// ChannelBanV1 is channel.ban.
type ChannelBanV1 struct {
	event
	User
	Broadcaster
	Moderator
	Reason      string     `json:"reason"`
	BannedAt    time.Time  `json:"banned_at"`
	EndsAt      *time.Time `json:"ends_at"`
	IsPermanent bool       `json:"is_permanent"`
}

// ChannelUnbanV1 is channel.unban.
type ChannelUnbanV1 struct {
	event
	User
	Broadcaster
	Moderator
}

// ChannelModeratorAddV1 is channel.moderator.add.
type ChannelModeratorAddV1 struct {
	event
	Broadcaster
	User
}

// ChannelModeratorRemoveV1 is channel.moderator.remove.
type ChannelModeratorRemoveV1 ChannelModeratorAddV1

// ChannelVIPAddV1 is channel.vip.add.
type ChannelVIPAddV1 ChannelModeratorAddV1

// ChannelVIPRemoveV1 is channel.vip.remove.
type ChannelVIPRemoveV1 ChannelModeratorAddV1

// ChannelAdBreakBeginV1 is channel.ad_break.begin.
type ChannelAdBreakBeginV1 struct {
	event
	Broadcaster
	Requester
	DurationSeconds int       `json:"duration_seconds"`
	StartedAt       time.Time `json:"started_at"`
	IsAutomatic     bool      `json:"is_automatic"`
}

// ChannelBitsUseV1 is channel.bits.use.
type ChannelBitsUseV1 struct {
	event
	Broadcaster
	User
	Bits    int          `json:"bits"`
	Type    string       `json:"type"`
	Message *Message     `json:"message"`
	PowerUp *BitsPowerUp `json:"power_up"`
}

// BitsPowerUp describes a Power-up purchased with bits.
type BitsPowerUp struct {
	Type            string `json:"type"`
	Emote           *Emote `json:"emote"`
	MessageEffectID string `json:"message_effect_id,omitempty"`
}

// ChannelShoutoutCreateV1 is channel.shoutout.create.
type ChannelShoutoutCreateV1 struct {
	event
	Broadcaster
	Moderator
	ToBroadcasterUserID    string    `json:"to_broadcaster_user_id"`
	ToBroadcasterUserLogin string    `json:"to_broadcaster_user_login"`
	ToBroadcasterUserName  string    `json:"to_broadcaster_user_name"`
	ViewerCount            int       `json:"viewer_count"`
	StartedAt              time.Time `json:"started_at"`
	CooldownEndsAt         time.Time `json:"cooldown_ends_at"`
	TargetCooldownEndsAt   time.Time `json:"target_cooldown_ends_at"`
}

// ChannelShoutoutReceiveV1 is channel.shoutout.receive.
type ChannelShoutoutReceiveV1 struct {
	event
	Broadcaster
	FromBroadcasterUserID    string    `json:"from_broadcaster_user_id"`
	FromBroadcasterUserLogin string    `json:"from_broadcaster_user_login"`
	FromBroadcasterUserName  string    `json:"from_broadcaster_user_name"`
	ViewerCount              int       `json:"viewer_count"`
	StartedAt                time.Time `json:"started_at"`
}

// SharedChatParticipant is a channel taking part in a shared chat session.
type SharedChatParticipant struct {
	BroadcasterUserID    string `json:"broadcaster_user_id"`
	BroadcasterUserName  string `json:"broadcaster_user_name"`
	BroadcasterUserLogin string `json:"broadcaster_user_login"`
}

// ChannelSharedChatBeginV1 is channel.shared_chat.begin.
type ChannelSharedChatBeginV1 struct {
	event
	Broadcaster
	SessionID                string                  `json:"session_id"`
	HostBroadcasterUserID    string                  `json:"host_broadcaster_user_id"`
	HostBroadcasterUserLogin string                  `json:"host_broadcaster_user_login"`
	HostBroadcasterUserName  string                  `json:"host_broadcaster_user_name"`
	Participants             []SharedChatParticipant `json:"participants"`
}

// ChannelSharedChatUpdateV1 is channel.shared_chat.update.
type ChannelSharedChatUpdateV1 ChannelSharedChatBeginV1

// ChannelSharedChatEndV1 is channel.shared_chat.end.
type ChannelSharedChatEndV1 struct {
	event
	Broadcaster
	SessionID                string `json:"session_id"`
	HostBroadcasterUserID    string `json:"host_broadcaster_user_id"`
	HostBroadcasterUserLogin string `json:"host_broadcaster_user_login"`
	HostBroadcasterUserName  string `json:"host_broadcaster_user_name"`
}

// ChannelShieldModeBeginV1 is channel.shield_mode.begin.
type ChannelShieldModeBeginV1 struct {
	event
	Broadcaster
	Moderator
	StartedAt time.Time `json:"started_at"`
}

// ChannelShieldModeEndV1 is channel.shield_mode.end.
type ChannelShieldModeEndV1 struct {
	event
	Broadcaster
	Moderator
	EndedAt time.Time `json:"ended_at"`
}

// ChannelWarningAcknowledgeV1 is channel.warning.acknowledge.
type ChannelWarningAcknowledgeV1 struct {
	event
	Broadcaster
	User
}

// ChannelWarningSendV1 is channel.warning.send.
type ChannelWarningSendV1 struct {
	event
	Broadcaster
	Moderator
	User
	Reason         *string  `json:"reason"`
	ChatRulesCited []string `json:"chat_rules_cited"`
}

// ChannelSuspiciousUserMessageV1 is channel.suspicious_user.message.
type ChannelSuspiciousUserMessageV1 struct {
	event
	Broadcaster
	User
	LowTrustStatus       string            `json:"low_trust_status"`
	SharedBanChannelIDs  []string          `json:"shared_ban_channel_ids"`
	Types                []string          `json:"types"`
	BanEvasionEvaluation string            `json:"ban_evasion_evaluation"`
	Message              SuspiciousMessage `json:"message"`
}

// SuspiciousMessage is a chat message sent by a suspicious user.
type SuspiciousMessage struct {
	MessageID string `json:"message_id"`
	Message
}

// ChannelSuspiciousUserUpdateV1 is channel.suspicious_user.update.
type ChannelSuspiciousUserUpdateV1 struct {
	event
	Broadcaster
	Moderator
	User
	LowTrustStatus string `json:"low_trust_status"`
}

// ChannelUnbanRequestCreateV1 is channel.unban_request.create.
type ChannelUnbanRequestCreateV1 struct {
	event
	Broadcaster
	User
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ChannelUnbanRequestResolveV1 is channel.unban_request.resolve.
type ChannelUnbanRequestResolveV1 struct {
	event
	Broadcaster
	Moderator
	User
	ID             string  `json:"id"`
	ResolutionText *string `json:"resolution_text"`
	Status         string  `json:"status"`
}

// ChannelModerateV1 is channel.moderate version 1. Action selects which of
// the optional detail objects is populated.
type ChannelModerateV1 struct {
	event
	Broadcaster
	Moderator
	Action       string          `json:"action"`
	Followers    *ModerateDetail `json:"followers"`
	Slow         *ModerateDetail `json:"slow"`
	VIP          *ModerateDetail `json:"vip"`
	Unvip        *ModerateDetail `json:"unvip"`
	Mod          *ModerateDetail `json:"mod"`
	Unmod        *ModerateDetail `json:"unmod"`
	Ban          *ModerateDetail `json:"ban"`
	Unban        *ModerateDetail `json:"unban"`
	Timeout      *ModerateDetail `json:"timeout"`
	Untimeout    *ModerateDetail `json:"untimeout"`
	Raid         *ModerateDetail `json:"raid"`
	Unraid       *ModerateDetail `json:"unraid"`
	Delete       *ModerateDetail `json:"delete"`
	AutomodTerms *ModerateDetail `json:"automod_terms"`
	UnbanRequest *ModerateDetail `json:"unban_request"`
}

// ChannelModerateV2 is channel.moderate version 2, which adds warnings.
type ChannelModerateV2 struct {
	event
	Broadcaster
	Moderator
	Action       string          `json:"action"`
	Followers    *ModerateDetail `json:"followers"`
	Slow         *ModerateDetail `json:"slow"`
	VIP          *ModerateDetail `json:"vip"`
	Unvip        *ModerateDetail `json:"unvip"`
	Mod          *ModerateDetail `json:"mod"`
	Unmod        *ModerateDetail `json:"unmod"`
	Ban          *ModerateDetail `json:"ban"`
	Unban        *ModerateDetail `json:"unban"`
	Timeout      *ModerateDetail `json:"timeout"`
	Untimeout    *ModerateDetail `json:"untimeout"`
	Raid         *ModerateDetail `json:"raid"`
	Unraid       *ModerateDetail `json:"unraid"`
	Delete       *ModerateDetail `json:"delete"`
	AutomodTerms *ModerateDetail `json:"automod_terms"`
	UnbanRequest *ModerateDetail `json:"unban_request"`
	Warn         *ModerateDetail `json:"warn"`
}

// ModerateDetail is the union of the per-action detail objects of
// channel.moderate; only the fields relevant to the action are set.
type ModerateDetail struct {
	UserID                string     `json:"user_id,omitempty"`
	UserLogin             string     `json:"user_login,omitempty"`
	UserName              string     `json:"user_name,omitempty"`
	Reason                string     `json:"reason,omitempty"`
	ExpiresAt             *time.Time `json:"expires_at,omitempty"`
	FollowDurationMinutes *int       `json:"follow_duration_minutes,omitempty"`
	WaitTimeSeconds       *int       `json:"wait_time_seconds,omitempty"`
	ViewerCount           *int       `json:"viewer_count,omitempty"`
	MessageID             string     `json:"message_id,omitempty"`
	MessageBody           string     `json:"message_body,omitempty"`
	Action                string     `json:"action,omitempty"`
	List                  string     `json:"list,omitempty"`
	Terms                 []string   `json:"terms,omitempty"`
	FromAutomod           *bool      `json:"from_automod,omitempty"`
	IsApproved            *bool      `json:"is_approved,omitempty"`
	ModeratorMessage      string     `json:"moderator_message,omitempty"`
	ChatRulesCited        []string   `json:"chat_rules_cited,omitempty"`
}
