package eventsub

import "time"

// ChannelPointsCustomRewardAddV1 is channel.channel_points_custom_reward.add.
type ChannelPointsCustomRewardAddV1 struct {
	event
	Broadcaster
	ID                                string         `json:"id"`
	IsEnabled                         bool           `json:"is_enabled"`
	IsPaused                          bool           `json:"is_paused"`
	IsInStock                         bool           `json:"is_in_stock"`
	Title                             string         `json:"title"`
	Cost                              int            `json:"cost"`
	Prompt                            string         `json:"prompt"`
	IsUserInputRequired               bool           `json:"is_user_input_required"`
	ShouldRedemptionsSkipRequestQueue bool           `json:"should_redemptions_skip_request_queue"`
	MaxPerStream                      MaxPerStream   `json:"max_per_stream"`
	MaxPerUserPerStream               MaxPerStream   `json:"max_per_user_per_stream"`
	BackgroundColor                   string         `json:"background_color"`
	Image                             *Image         `json:"image"`
	DefaultImage                      Image          `json:"default_image"`
	GlobalCooldown                    GlobalCooldown `json:"global_cooldown"`
	CooldownExpiresAt                 *time.Time     `json:"cooldown_expires_at"`
	RedemptionsRedeemedCurrentStream  *int           `json:"redemptions_redeemed_current_stream"`
}

// ChannelPointsCustomRewardUpdateV1 is channel.channel_points_custom_reward.update.
type ChannelPointsCustomRewardUpdateV1 ChannelPointsCustomRewardAddV1

// ChannelPointsCustomRewardRemoveV1 is channel.channel_points_custom_reward.remove.
type ChannelPointsCustomRewardRemoveV1 ChannelPointsCustomRewardAddV1

// ChannelPointsCustomRewardRedemptionAddV1 is
// channel.channel_points_custom_reward_redemption.add.
type ChannelPointsCustomRewardRedemptionAddV1 struct {
	event
	Broadcaster
	User
	ID         string        `json:"id"`
	UserInput  string        `json:"user_input"`
	Status     string        `json:"status"`
	Reward     RewardSummary `json:"reward"`
	RedeemedAt time.Time     `json:"redeemed_at"`
}

// ChannelPointsCustomRewardRedemptionUpdateV1 is
// channel.channel_points_custom_reward_redemption.update.
type ChannelPointsCustomRewardRedemptionUpdateV1 ChannelPointsCustomRewardRedemptionAddV1

// AutomaticReward is the reward attached to an automatic redemption.
type AutomaticReward struct {
	Type          string `json:"type"`
	Cost          int    `json:"cost"`
	UnlockedEmote *Emote `json:"unlocked_emote"`
}

// ChannelPointsAutomaticRewardRedemptionAddV1 is
// channel.channel_points_automatic_reward_redemption.add.
type ChannelPointsAutomaticRewardRedemptionAddV1 struct {
	event
	Broadcaster
	User
	ID         string          `json:"id"`
	Reward     AutomaticReward `json:"reward"`
	Message    RichText        `json:"message"`
	UserInput  *string         `json:"user_input"`
	RedeemedAt time.Time       `json:"redeemed_at"`
}

// ChannelPollBeginV1 is channel.poll.begin.
type ChannelPollBeginV1 struct {
	event
	Broadcaster
	ID                  string        `json:"id"`
	Title               string        `json:"title"`
	Choices             []PollChoice  `json:"choices"`
	BitsVoting          VotingSetting `json:"bits_voting"`
	ChannelPointsVoting VotingSetting `json:"channel_points_voting"`
	StartedAt           time.Time     `json:"started_at"`
	EndsAt              time.Time     `json:"ends_at"`
}

// ChannelPollProgressV1 is channel.poll.progress.
type ChannelPollProgressV1 ChannelPollBeginV1

// ChannelPollEndV1 is channel.poll.end.
type ChannelPollEndV1 struct {
	event
	Broadcaster
	ID                  string        `json:"id"`
	Title               string        `json:"title"`
	Choices             []PollChoice  `json:"choices"`
	BitsVoting          VotingSetting `json:"bits_voting"`
	ChannelPointsVoting VotingSetting `json:"channel_points_voting"`
	Status              string        `json:"status"`
	StartedAt           time.Time     `json:"started_at"`
	EndedAt             time.Time     `json:"ended_at"`
}

// ChannelPredictionBeginV1 is channel.prediction.begin.
type ChannelPredictionBeginV1 struct {
	event
	Broadcaster
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Outcomes  []Outcome `json:"outcomes"`
	StartedAt time.Time `json:"started_at"`
	LocksAt   time.Time `json:"locks_at"`
}

// ChannelPredictionProgressV1 is channel.prediction.progress.
type ChannelPredictionProgressV1 ChannelPredictionBeginV1

// ChannelPredictionLockV1 is channel.prediction.lock.
type ChannelPredictionLockV1 struct {
	event
	Broadcaster
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Outcomes  []Outcome `json:"outcomes"`
	StartedAt time.Time `json:"started_at"`
	LockedAt  time.Time `json:"locked_at"`
}

// ChannelPredictionEndV1 is channel.prediction.end.
type ChannelPredictionEndV1 struct {
	event
	Broadcaster
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	WinningOutcomeID *string   `json:"winning_outcome_id"`
	Outcomes         []Outcome `json:"outcomes"`
	Status           string    `json:"status"`
	StartedAt        time.Time `json:"started_at"`
	EndedAt          time.Time `json:"ended_at"`
}

// ChannelGoalBeginV1 is channel.goal.begin.
type ChannelGoalBeginV1 struct {
	event
	Broadcaster
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Description   string    `json:"description"`
	CurrentAmount int       `json:"current_amount"`
	TargetAmount  int       `json:"target_amount"`
	StartedAt     time.Time `json:"started_at"`
}

// ChannelGoalProgressV1 is channel.goal.progress.
type ChannelGoalProgressV1 ChannelGoalBeginV1

// ChannelGoalEndV1 is channel.goal.end.
type ChannelGoalEndV1 struct {
	event
	Broadcaster
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Description   string    `json:"description"`
	IsAchieved    bool      `json:"is_achieved"`
	CurrentAmount int       `json:"current_amount"`
	TargetAmount  int       `json:"target_amount"`
	StartedAt     time.Time `json:"started_at"`
	EndedAt       time.Time `json:"ended_at"`
}

// ChannelHypeTrainBeginV1 is channel.hype_train.begin.
type ChannelHypeTrainBeginV1 struct {
	event
	Broadcaster
	ID               string         `json:"id"`
	Total            int            `json:"total"`
	Progress         int            `json:"progress"`
	Goal             int            `json:"goal"`
	TopContributions []Contribution `json:"top_contributions"`
	LastContribution Contribution   `json:"last_contribution"`
	Level            int            `json:"level"`
	StartedAt        time.Time      `json:"started_at"`
	ExpiresAt        time.Time      `json:"expires_at"`
}

// ChannelHypeTrainProgressV1 is channel.hype_train.progress.
type ChannelHypeTrainProgressV1 ChannelHypeTrainBeginV1

// ChannelHypeTrainEndV1 is channel.hype_train.end.
type ChannelHypeTrainEndV1 struct {
	event
	Broadcaster
	ID               string         `json:"id"`
	Level            int            `json:"level"`
	Total            int            `json:"total"`
	TopContributions []Contribution `json:"top_contributions"`
	StartedAt        time.Time      `json:"started_at"`
	EndedAt          time.Time      `json:"ended_at"`
	CooldownEndsAt   time.Time      `json:"cooldown_ends_at"`
}

// ChannelCharityCampaignDonateV1 is channel.charity_campaign.donate.
type ChannelCharityCampaignDonateV1 struct {
	event
	Broadcaster
	User
	ID                 string `json:"id"`
	CampaignID         string `json:"campaign_id"`
	CharityName        string `json:"charity_name"`
	CharityDescription string `json:"charity_description"`
	CharityLogo        string `json:"charity_logo"`
	CharityWebsite     string `json:"charity_website"`
	Amount             Amount `json:"amount"`
}

// ChannelCharityCampaignProgressV1 is channel.charity_campaign.progress.
type ChannelCharityCampaignProgressV1 struct {
	event
	Broadcaster
	ID                 string `json:"id"`
	CharityName        string `json:"charity_name"`
	CharityDescription string `json:"charity_description"`
	CharityLogo        string `json:"charity_logo"`
	CharityWebsite     string `json:"charity_website"`
	CurrentAmount      Amount `json:"current_amount"`
	TargetAmount       Amount `json:"target_amount"`
}

// ChannelCharityCampaignStartV1 is channel.charity_campaign.start.
type ChannelCharityCampaignStartV1 struct {
	event
	Broadcaster
	ID                 string    `json:"id"`
	CharityName        string    `json:"charity_name"`
	CharityDescription string    `json:"charity_description"`
	CharityLogo        string    `json:"charity_logo"`
	CharityWebsite     string    `json:"charity_website"`
	CurrentAmount      Amount    `json:"current_amount"`
	TargetAmount       Amount    `json:"target_amount"`
	StartedAt          time.Time `json:"started_at"`
}

// ChannelCharityCampaignStopV1 is channel.charity_campaign.stop.
type ChannelCharityCampaignStopV1 struct {
	event
	Broadcaster
	ID                 string    `json:"id"`
	CharityName        string    `json:"charity_name"`
	CharityDescription string    `json:"charity_description"`
	CharityLogo        string    `json:"charity_logo"`
	CharityWebsite     string    `json:"charity_website"`
	CurrentAmount      Amount    `json:"current_amount"`
	TargetAmount       Amount    `json:"target_amount"`
	StoppedAt          time.Time `json:"stopped_at"`
}

// GuestStarSession fields shared by the guest star session events.
type GuestStarSession struct {
	SessionID string `json:"session_id"`
}

// ChannelGuestStarSessionBeginBeta is channel.guest_star_session.begin.
type ChannelGuestStarSessionBeginBeta struct {
	event
	Broadcaster
	GuestStarSession
	StartedAt time.Time `json:"started_at"`
}

// ChannelGuestStarSessionEndBeta is channel.guest_star_session.end.
type ChannelGuestStarSessionEndBeta struct {
	event
	Broadcaster
	GuestStarSession
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

// ChannelGuestStarGuestUpdateBeta is channel.guest_star_guest.update.
type ChannelGuestStarGuestUpdateBeta struct {
	event
	Broadcaster
	GuestStarSession
	ModeratorUserID    *string `json:"moderator_user_id"`
	ModeratorUserLogin *string `json:"moderator_user_login"`
	ModeratorUserName  *string `json:"moderator_user_name"`
	GuestUserID        *string `json:"guest_user_id"`
	GuestUserLogin     *string `json:"guest_user_login"`
	GuestUserName      *string `json:"guest_user_name"`
	SlotID             *string `json:"slot_id"`
	State              *string `json:"state"`
	HostVideoEnabled   *bool   `json:"host_video_enabled"`
	HostAudioEnabled   *bool   `json:"host_audio_enabled"`
	HostVolume         *int    `json:"host_volume"`
}

// ChannelGuestStarSettingsUpdateBeta is channel.guest_star_settings.update.
type ChannelGuestStarSettingsUpdateBeta struct {
	event
	Broadcaster
	IsModeratorSendLiveEnabled  bool   `json:"is_moderator_send_live_enabled"`
	SlotCount                   int    `json:"slot_count"`
	IsBrowserSourceAudioEnabled bool   `json:"is_browser_source_audio_enabled"`
	GroupLayout                 string `json:"group_layout"`
}
