package eventsub

import (
	"encoding/json"
	"time"
)

// ChannelChatClearV1 is channel.chat.clear.
type ChannelChatClearV1 struct {
	event
	Broadcaster
}

// ChannelChatClearUserMessagesV1 is channel.chat.clear_user_messages.
type ChannelChatClearUserMessagesV1 struct {
	event
	Broadcaster
	TargetUser
}

// Cheer is the bits attached to a chat message.
type Cheer struct {
	Bits int `json:"bits"`
}

// Reply identifies the parent of a threaded chat message.
type Reply struct {
	ParentMessageID   string `json:"parent_message_id"`
	ParentMessageBody string `json:"parent_message_body"`
	ParentUserID      string `json:"parent_user_id"`
	ParentUserName    string `json:"parent_user_name"`
	ParentUserLogin   string `json:"parent_user_login"`
	ThreadMessageID   string `json:"thread_message_id"`
	ThreadUserID      string `json:"thread_user_id"`
	ThreadUserName    string `json:"thread_user_name"`
	ThreadUserLogin   string `json:"thread_user_login"`
}

// ChannelChatMessageV1 is channel.chat.message.
type ChannelChatMessageV1 struct {
	event
	Broadcaster
	Chatter
	MessageID                   string  `json:"message_id"`
	Message                     Message `json:"message"`
	MessageType                 string  `json:"message_type"`
	Badges                      []Badge `json:"badges"`
	Cheer                       *Cheer  `json:"cheer"`
	Color                       string  `json:"color"`
	Reply                       *Reply  `json:"reply"`
	ChannelPointsCustomRewardID *string `json:"channel_points_custom_reward_id"`
	SourceBroadcasterUserID     *string `json:"source_broadcaster_user_id"`
	SourceBroadcasterUserLogin  *string `json:"source_broadcaster_user_login"`
	SourceBroadcasterUserName   *string `json:"source_broadcaster_user_name"`
	SourceMessageID             *string `json:"source_message_id"`
	SourceBadges                []Badge `json:"source_badges"`
}

// ChannelChatMessageDeleteV1 is channel.chat.message_delete.
type ChannelChatMessageDeleteV1 struct {
	event
	Broadcaster
	TargetUser
	MessageID string `json:"message_id"`
}

// ChannelChatNotificationV1 is channel.chat.notification. NoticeType selects
// which of the detail objects is set. The less common details, and the
// shared chat copies of every detail, are kept undecoded.
type ChannelChatNotificationV1 struct {
	event
	Broadcaster
	Chatter
	ChatterIsAnonymous         bool                `json:"chatter_is_anonymous"`
	Color                      string              `json:"color"`
	Badges                     []Badge             `json:"badges"`
	SystemMessage              string              `json:"system_message"`
	MessageID                  string              `json:"message_id"`
	Message                    Message             `json:"message"`
	NoticeType                 string              `json:"notice_type"`
	Sub                        *NoticeSub          `json:"sub"`
	Resub                      *NoticeResub        `json:"resub"`
	SubGift                    *NoticeSubGift      `json:"sub_gift"`
	CommunitySubGift           *json.RawMessage    `json:"community_sub_gift"`
	GiftPaidUpgrade            *json.RawMessage    `json:"gift_paid_upgrade"`
	PrimePaidUpgrade           *json.RawMessage    `json:"prime_paid_upgrade"`
	Raid                       *NoticeRaid         `json:"raid"`
	Unraid                     *json.RawMessage    `json:"unraid"`
	PayItForward               *json.RawMessage    `json:"pay_it_forward"`
	Announcement               *NoticeAnnouncement `json:"announcement"`
	BitsBadgeTier              *json.RawMessage    `json:"bits_badge_tier"`
	CharityDonation            *json.RawMessage    `json:"charity_donation"`
	SourceBroadcasterUserID    *string             `json:"source_broadcaster_user_id"`
	SourceBroadcasterUserLogin *string             `json:"source_broadcaster_user_login"`
	SourceBroadcasterUserName  *string             `json:"source_broadcaster_user_name"`
	SourceMessageID            *string             `json:"source_message_id"`
	SourceBadges               []Badge             `json:"source_badges"`
	SharedChatSub              *json.RawMessage    `json:"shared_chat_sub"`
	SharedChatResub            *json.RawMessage    `json:"shared_chat_resub"`
	SharedChatSubGift          *json.RawMessage    `json:"shared_chat_sub_gift"`
	SharedChatCommunitySubGift *json.RawMessage    `json:"shared_chat_community_sub_gift"`
	SharedChatGiftPaidUpgrade  *json.RawMessage    `json:"shared_chat_gift_paid_upgrade"`
	SharedChatPrimePaidUpgrade *json.RawMessage    `json:"shared_chat_prime_paid_upgrade"`
	SharedChatRaid             *json.RawMessage    `json:"shared_chat_raid"`
	SharedChatPayItForward     *json.RawMessage    `json:"shared_chat_pay_it_forward"`
	SharedChatAnnouncement     *json.RawMessage    `json:"shared_chat_announcement"`
}

// NoticeSub carries the sub notice details.
type NoticeSub struct {
	SubTier        string `json:"sub_tier"`
	IsPrime        bool   `json:"is_prime"`
	DurationMonths int    `json:"duration_months"`
}

// NoticeResub carries the resub notice details. The gifter fields are only
// set when IsGift is.
type NoticeResub struct {
	CumulativeMonths  int     `json:"cumulative_months"`
	DurationMonths    int     `json:"duration_months"`
	StreakMonths      *int    `json:"streak_months"`
	SubTier           string  `json:"sub_tier"`
	IsPrime           bool    `json:"is_prime"`
	IsGift            bool    `json:"is_gift"`
	GifterIsAnonymous *bool   `json:"gifter_is_anonymous"`
	GifterUserID      *string `json:"gifter_user_id"`
	GifterUserName    *string `json:"gifter_user_name"`
	GifterUserLogin   *string `json:"gifter_user_login"`
}

// NoticeSubGift carries the sub gift notice details.
type NoticeSubGift struct {
	DurationMonths     int     `json:"duration_months"`
	CumulativeTotal    *int    `json:"cumulative_total"`
	RecipientUserID    string  `json:"recipient_user_id"`
	RecipientUserName  string  `json:"recipient_user_name"`
	RecipientUserLogin string  `json:"recipient_user_login"`
	SubTier            string  `json:"sub_tier"`
	CommunityGiftID    *string `json:"community_gift_id"`
}

// NoticeRaid carries the raid notice details.
type NoticeRaid struct {
	UserID          string `json:"user_id"`
	UserName        string `json:"user_name"`
	UserLogin       string `json:"user_login"`
	ViewerCount     int    `json:"viewer_count"`
	ProfileImageURL string `json:"profile_image_url"`
}

// NoticeAnnouncement carries the announcement notice details.
type NoticeAnnouncement struct {
	Color string `json:"color"`
}

// ChannelChatUserMessageHoldV1 is channel.chat.user_message_hold.
type ChannelChatUserMessageHoldV1 struct {
	event
	Broadcaster
	User
	MessageID string  `json:"message_id"`
	Message   Message `json:"message"`
}

// ChannelChatUserMessageUpdateV1 is channel.chat.user_message_update.
type ChannelChatUserMessageUpdateV1 struct {
	event
	Broadcaster
	User
	Status    string  `json:"status"`
	MessageID string  `json:"message_id"`
	Message   Message `json:"message"`
}

// ChannelChatSettingsUpdateV1 is channel.chat_settings.update.
type ChannelChatSettingsUpdateV1 struct {
	event
	Broadcaster
	EmoteMode                   bool `json:"emote_mode"`
	FollowerMode                bool `json:"follower_mode"`
	FollowerModeDurationMinutes *int `json:"follower_mode_duration_minutes"`
	SlowMode                    bool `json:"slow_mode"`
	SlowModeWaitTimeSeconds     *int `json:"slow_mode_wait_time_seconds"`
	SubscriberMode              bool `json:"subscriber_mode"`
	UniqueChatMode              bool `json:"unique_chat_mode"`
}

// AutomodMessageHoldV1 is automod.message.hold version 1.
type AutomodMessageHoldV1 struct {
	event
	Broadcaster
	User
	MessageID string    `json:"message_id"`
	Message   Message   `json:"message"`
	Category  string    `json:"category"`
	Level     int       `json:"level"`
	HeldAt    time.Time `json:"held_at"`
}

// AutomodMessageHoldV2 is automod.message.hold version 2, which reports the
// reason (automod or blocked term) instead of a category.
type AutomodMessageHoldV2 struct {
	event
	Broadcaster
	User
	MessageID   string         `json:"message_id"`
	Message     Message        `json:"message"`
	Reason      string         `json:"reason"`
	Automod     *AutomodReason `json:"automod"`
	BlockedTerm *BlockedTerms  `json:"blocked_term"`
	HeldAt      time.Time      `json:"held_at"`
}

// AutomodReason explains an AutoMod hold.
type AutomodReason struct {
	Category   string     `json:"category"`
	Level      int        `json:"level"`
	Boundaries []Boundary `json:"boundaries"`
}

// Boundary is a span of message text, in code points.
type Boundary struct {
	StartPos int `json:"start_pos"`
	EndPos   int `json:"end_pos"`
}

// BlockedTerms lists the blocked terms that matched a held message.
type BlockedTerms struct {
	TermsFound []BlockedTerm `json:"terms_found"`
}

// BlockedTerm is one blocked term match. The owner is the channel whose
// term list it came from.
type BlockedTerm struct {
	TermID                    string   `json:"term_id"`
	Boundary                  Boundary `json:"boundary"`
	OwnerBroadcasterUserID    string   `json:"owner_broadcaster_user_id"`
	OwnerBroadcasterUserLogin string   `json:"owner_broadcaster_user_login"`
	OwnerBroadcasterUserName  string   `json:"owner_broadcaster_user_name"`
}

// AutomodMessageUpdateV1 is automod.message.update version 1.
type AutomodMessageUpdateV1 struct {
	event
	Broadcaster
	User
	Moderator
	MessageID string    `json:"message_id"`
	Message   Message   `json:"message"`
	Category  string    `json:"category"`
	Level     int       `json:"level"`
	Status    string    `json:"status"`
	HeldAt    time.Time `json:"held_at"`
}

// AutomodMessageUpdateV2 is automod.message.update version 2.
type AutomodMessageUpdateV2 struct {
	event
	Broadcaster
	User
	Moderator
	MessageID   string         `json:"message_id"`
	Message     Message        `json:"message"`
	Status      string         `json:"status"`
	Reason      string         `json:"reason"`
	Automod     *AutomodReason `json:"automod"`
	BlockedTerm *BlockedTerms  `json:"blocked_term"`
	HeldAt      time.Time      `json:"held_at"`
}

// AutomodSettingsUpdateV1 is automod.settings.update.
type AutomodSettingsUpdateV1 struct {
	event
	Broadcaster
	Moderator
	OverallLevel            *int `json:"overall_level"`
	Disability              int  `json:"disability"`
	Aggression              int  `json:"aggression"`
	SexualitySexOrGender    int  `json:"sexuality_sex_or_gender"`
	Misogyny                int  `json:"misogyny"`
	Bullying                int  `json:"bullying"`
	Swearing                int  `json:"swearing"`
	RaceEthnicityOrReligion int  `json:"race_ethnicity_or_religion"`
	SexBasedTerms           int  `json:"sex_based_terms"`
}

// AutomodTermsUpdateV1 is automod.terms.update.
type AutomodTermsUpdateV1 struct {
	event
	Broadcaster
	Moderator
	Action      string   `json:"action"`
	FromAutomod bool     `json:"from_automod"`
	Terms       []string `json:"terms"`
}

// UserWhisperMessageV1 is user.whisper.message.
type UserWhisperMessageV1 struct {
	event
	FromUserID    string `json:"from_user_id"`
	FromUserLogin string `json:"from_user_login"`
	FromUserName  string `json:"from_user_name"`
	ToUserID      string `json:"to_user_id"`
	ToUserLogin   string `json:"to_user_login"`
	ToUserName    string `json:"to_user_name"`
	WhisperID     string `json:"whisper_id"`
	Whisper       struct {
		Text string `json:"text"`
	} `json:"whisper"`
}
