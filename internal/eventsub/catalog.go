package eventsub

// Condition schemas shared by the catalog.
var (
	condBroadcaster = ConditionSchema{
		ID:       "broadcaster",
		Required: []string{"broadcaster_user_id"},
	}
	condBroadcasterModerator = ConditionSchema{
		ID:       "broadcaster_moderator",
		Required: []string{"broadcaster_user_id", "moderator_user_id"},
	}
	condBroadcasterUser = ConditionSchema{
		ID:       "broadcaster_user",
		Required: []string{"broadcaster_user_id", "user_id"},
	}
	condReward = ConditionSchema{
		ID:       "reward",
		Required: []string{"broadcaster_user_id"},
		Optional: []string{"reward_id"},
	}
	condRaid = ConditionSchema{
		ID:    "raid",
		OneOf: []string{"from_broadcaster_user_id", "to_broadcaster_user_id"},
	}
	condClient = ConditionSchema{
		ID:       "client",
		Required: []string{"client_id"},
	}
	condUser = ConditionSchema{
		ID:       "user",
		Required: []string{"user_id"},
	}
	condConduit = ConditionSchema{
		ID:       "conduit",
		Required: []string{"client_id"},
		Optional: []string{"conduit_id"},
	}
	condExtension = ConditionSchema{
		ID:       "extension",
		Required: []string{"extension_client_id"},
	}
)

// OAuth scopes referenced by the catalog.
const (
	scopeBitsRead                  = "bits:read"
	scopeChannelModerate           = "channel:moderate"
	scopeChannelReadAds            = "channel:read:ads"
	scopeChannelReadCharity        = "channel:read:charity"
	scopeChannelReadGoals          = "channel:read:goals"
	scopeChannelReadGuestStar      = "channel:read:guest_star"
	scopeChannelManageGuestStar    = "channel:manage:guest_star"
	scopeChannelReadHypeTrain      = "channel:read:hype_train"
	scopeChannelReadPolls          = "channel:read:polls"
	scopeChannelManagePolls        = "channel:manage:polls"
	scopeChannelReadPredictions    = "channel:read:predictions"
	scopeChannelManagePredictions  = "channel:manage:predictions"
	scopeChannelReadRedemptions    = "channel:read:redemptions"
	scopeChannelManageRedemptions  = "channel:manage:redemptions"
	scopeChannelReadSubscriptions  = "channel:read:subscriptions"
	scopeChannelReadVIPs           = "channel:read:vips"
	scopeChannelManageVIPs         = "channel:manage:vips"
	scopeModerationRead            = "moderation:read"
	scopeModeratorManageAutomod    = "moderator:manage:automod"
	scopeModeratorReadAutomod      = "moderator:read:automod_settings"
	scopeModeratorManageAutomodSet = "moderator:manage:automod_settings"
	scopeModeratorReadBannedUsers  = "moderator:read:banned_users"
	scopeModeratorReadChatMessages = "moderator:read:chat_messages"
	scopeModeratorReadFollowers    = "moderator:read:followers"
	scopeModeratorReadGuestStar    = "moderator:read:guest_star"
	scopeModeratorManageGuestStar  = "moderator:manage:guest_star"
	scopeModeratorReadModerators   = "moderator:read:moderators"
	scopeModeratorReadShieldMode   = "moderator:read:shield_mode"
	scopeModeratorManageShieldMode = "moderator:manage:shield_mode"
	scopeModeratorReadShoutouts    = "moderator:read:shoutouts"
	scopeModeratorManageShoutouts  = "moderator:manage:shoutouts"
	scopeModeratorReadSuspicious   = "moderator:read:suspicious_users"
	scopeModeratorReadUnbanReqs    = "moderator:read:unban_requests"
	scopeModeratorManageUnbanReqs  = "moderator:manage:unban_requests"
	scopeModeratorReadWarnings     = "moderator:read:warnings"
	scopeModeratorManageWarnings   = "moderator:manage:warnings"
	scopeModeratorReadBlockedTerms = "moderator:read:blocked_terms"
	scopeModeratorManageChatSet    = "moderator:manage:chat_settings"
	scopeUserReadChat              = "user:read:chat"
	scopeUserReadWhispers          = "user:read:whispers"
	scopeUserManageWhispers        = "user:manage:whispers"
)

var (
	redemptionScopes = []string{scopeChannelReadRedemptions, scopeChannelManageRedemptions}
	guestStarScopes  = []string{scopeChannelReadGuestStar, scopeChannelManageGuestStar, scopeModeratorReadGuestStar, scopeModeratorManageGuestStar}
	pollScopes       = []string{scopeChannelReadPolls, scopeChannelManagePolls}
	predictionScopes = []string{scopeChannelReadPredictions, scopeChannelManagePredictions}
	moderateScopes   = []string{
		scopeModeratorReadBlockedTerms, scopeModeratorManageChatSet, scopeModeratorReadUnbanReqs,
		scopeModeratorReadBannedUsers, scopeModeratorReadChatMessages, scopeModeratorReadModerators,
		scopeChannelReadVIPs,
	}
)

// catalog is the static table of every subscription type this build can
// resolve. Keep entries grouped by type prefix.
func catalog() []Descriptor {
	return []Descriptor{
		describe[AutomodMessageHoldV1]("automod.message.hold", "1", condBroadcasterModerator, scopeModeratorManageAutomod),
		describe[AutomodMessageHoldV2]("automod.message.hold", "2", condBroadcasterModerator, scopeModeratorManageAutomod),
		describe[AutomodMessageUpdateV1]("automod.message.update", "1", condBroadcasterModerator, scopeModeratorManageAutomod),
		describe[AutomodMessageUpdateV2]("automod.message.update", "2", condBroadcasterModerator, scopeModeratorManageAutomod),
		describe[AutomodSettingsUpdateV1]("automod.settings.update", "1", condBroadcasterModerator, scopeModeratorReadAutomod, scopeModeratorManageAutomodSet),
		describe[AutomodTermsUpdateV1]("automod.terms.update", "1", condBroadcasterModerator, scopeModeratorManageAutomod),

		describe[ChannelAdBreakBeginV1]("channel.ad_break.begin", "1", condBroadcaster, scopeChannelReadAds),
		describe[ChannelBanV1]("channel.ban", "1", condBroadcaster, scopeChannelModerate),
		describe[ChannelBitsUseV1]("channel.bits.use", "1", condBroadcaster, scopeBitsRead),
		describe[ChannelPointsAutomaticRewardRedemptionAddV1]("channel.channel_points_automatic_reward_redemption.add", "1", condBroadcaster, redemptionScopes...),
		describe[ChannelPointsCustomRewardAddV1]("channel.channel_points_custom_reward.add", "1", condBroadcaster, redemptionScopes...),
		describe[ChannelPointsCustomRewardUpdateV1]("channel.channel_points_custom_reward.update", "1", condReward, redemptionScopes...),
		describe[ChannelPointsCustomRewardRemoveV1]("channel.channel_points_custom_reward.remove", "1", condReward, redemptionScopes...),
		describe[ChannelPointsCustomRewardRedemptionAddV1]("channel.channel_points_custom_reward_redemption.add", "1", condReward, redemptionScopes...),
		describe[ChannelPointsCustomRewardRedemptionUpdateV1]("channel.channel_points_custom_reward_redemption.update", "1", condReward, redemptionScopes...),
		describe[ChannelCharityCampaignDonateV1]("channel.charity_campaign.donate", "1", condBroadcaster, scopeChannelReadCharity),
		describe[ChannelCharityCampaignProgressV1]("channel.charity_campaign.progress", "1", condBroadcaster, scopeChannelReadCharity),
		describe[ChannelCharityCampaignStartV1]("channel.charity_campaign.start", "1", condBroadcaster, scopeChannelReadCharity),
		describe[ChannelCharityCampaignStopV1]("channel.charity_campaign.stop", "1", condBroadcaster, scopeChannelReadCharity),
		describe[ChannelChatClearV1]("channel.chat.clear", "1", condBroadcasterUser, scopeUserReadChat),
		describe[ChannelChatClearUserMessagesV1]("channel.chat.clear_user_messages", "1", condBroadcasterUser, scopeUserReadChat),
		describe[ChannelChatMessageV1]("channel.chat.message", "1", condBroadcasterUser, scopeUserReadChat),
		describe[ChannelChatMessageDeleteV1]("channel.chat.message_delete", "1", condBroadcasterUser, scopeUserReadChat),
		describe[ChannelChatNotificationV1]("channel.chat.notification", "1", condBroadcasterUser, scopeUserReadChat),
		describe[ChannelChatUserMessageHoldV1]("channel.chat.user_message_hold", "1", condBroadcasterUser, scopeUserReadChat),
		describe[ChannelChatUserMessageUpdateV1]("channel.chat.user_message_update", "1", condBroadcasterUser, scopeUserReadChat),
		describe[ChannelChatSettingsUpdateV1]("channel.chat_settings.update", "1", condBroadcasterUser, scopeUserReadChat),
		describe[ChannelCheerV1]("channel.cheer", "1", condBroadcaster, scopeBitsRead),
		describe[ChannelFollowV1]("channel.follow", "1", condBroadcaster),
		describe[ChannelFollowV2]("channel.follow", "2", condBroadcasterModerator, scopeModeratorReadFollowers),
		describe[ChannelGoalBeginV1]("channel.goal.begin", "1", condBroadcaster, scopeChannelReadGoals),
		describe[ChannelGoalProgressV1]("channel.goal.progress", "1", condBroadcaster, scopeChannelReadGoals),
		describe[ChannelGoalEndV1]("channel.goal.end", "1", condBroadcaster, scopeChannelReadGoals),
		describe[ChannelGuestStarGuestUpdateBeta]("channel.guest_star_guest.update", "beta", condBroadcasterModerator, guestStarScopes...),
		describe[ChannelGuestStarSessionBeginBeta]("channel.guest_star_session.begin", "beta", condBroadcasterModerator, guestStarScopes...),
		describe[ChannelGuestStarSessionEndBeta]("channel.guest_star_session.end", "beta", condBroadcasterModerator, guestStarScopes...),
		describe[ChannelGuestStarSettingsUpdateBeta]("channel.guest_star_settings.update", "beta", condBroadcasterModerator, guestStarScopes...),
		describe[ChannelHypeTrainBeginV1]("channel.hype_train.begin", "1", condBroadcaster, scopeChannelReadHypeTrain),
		describe[ChannelHypeTrainProgressV1]("channel.hype_train.progress", "1", condBroadcaster, scopeChannelReadHypeTrain),
		describe[ChannelHypeTrainEndV1]("channel.hype_train.end", "1", condBroadcaster, scopeChannelReadHypeTrain),
		describe[ChannelModerateV1]("channel.moderate", "1", condBroadcasterModerator, moderateScopes...),
		describe[ChannelModerateV2]("channel.moderate", "2", condBroadcasterModerator, append(moderateScopes, scopeModeratorReadWarnings)...),
		describe[ChannelModeratorAddV1]("channel.moderator.add", "1", condBroadcaster, scopeModerationRead),
		describe[ChannelModeratorRemoveV1]("channel.moderator.remove", "1", condBroadcaster, scopeModerationRead),
		describe[ChannelPollBeginV1]("channel.poll.begin", "1", condBroadcaster, pollScopes...),
		describe[ChannelPollProgressV1]("channel.poll.progress", "1", condBroadcaster, pollScopes...),
		describe[ChannelPollEndV1]("channel.poll.end", "1", condBroadcaster, pollScopes...),
		describe[ChannelPredictionBeginV1]("channel.prediction.begin", "1", condBroadcaster, predictionScopes...),
		describe[ChannelPredictionProgressV1]("channel.prediction.progress", "1", condBroadcaster, predictionScopes...),
		describe[ChannelPredictionLockV1]("channel.prediction.lock", "1", condBroadcaster, predictionScopes...),
		describe[ChannelPredictionEndV1]("channel.prediction.end", "1", condBroadcaster, predictionScopes...),
		describe[ChannelRaidV1]("channel.raid", "1", condRaid),
		describe[ChannelSharedChatBeginV1]("channel.shared_chat.begin", "1", condBroadcaster),
		describe[ChannelSharedChatUpdateV1]("channel.shared_chat.update", "1", condBroadcaster),
		describe[ChannelSharedChatEndV1]("channel.shared_chat.end", "1", condBroadcaster),
		describe[ChannelShieldModeBeginV1]("channel.shield_mode.begin", "1", condBroadcasterModerator, scopeModeratorReadShieldMode, scopeModeratorManageShieldMode),
		describe[ChannelShieldModeEndV1]("channel.shield_mode.end", "1", condBroadcasterModerator, scopeModeratorReadShieldMode, scopeModeratorManageShieldMode),
		describe[ChannelShoutoutCreateV1]("channel.shoutout.create", "1", condBroadcasterModerator, scopeModeratorReadShoutouts, scopeModeratorManageShoutouts),
		describe[ChannelShoutoutReceiveV1]("channel.shoutout.receive", "1", condBroadcasterModerator, scopeModeratorReadShoutouts, scopeModeratorManageShoutouts),
		describe[ChannelSubscribeV1]("channel.subscribe", "1", condBroadcaster, scopeChannelReadSubscriptions),
		describe[ChannelSubscriptionEndV1]("channel.subscription.end", "1", condBroadcaster, scopeChannelReadSubscriptions),
		describe[ChannelSubscriptionGiftV1]("channel.subscription.gift", "1", condBroadcaster, scopeChannelReadSubscriptions),
		describe[ChannelSubscriptionMessageV1]("channel.subscription.message", "1", condBroadcaster, scopeChannelReadSubscriptions),
		describe[ChannelSuspiciousUserMessageV1]("channel.suspicious_user.message", "1", condBroadcasterModerator, scopeModeratorReadSuspicious),
		describe[ChannelSuspiciousUserUpdateV1]("channel.suspicious_user.update", "1", condBroadcasterModerator, scopeModeratorReadSuspicious),
		describe[ChannelUnbanV1]("channel.unban", "1", condBroadcaster, scopeChannelModerate),
		describe[ChannelUnbanRequestCreateV1]("channel.unban_request.create", "1", condBroadcasterModerator, scopeModeratorReadUnbanReqs, scopeModeratorManageUnbanReqs),
		describe[ChannelUnbanRequestResolveV1]("channel.unban_request.resolve", "1", condBroadcasterModerator, scopeModeratorReadUnbanReqs, scopeModeratorManageUnbanReqs),
		describe[ChannelUpdateV1]("channel.update", "1", condBroadcaster),
		describe[ChannelUpdateV2]("channel.update", "2", condBroadcaster),
		describe[ChannelVIPAddV1]("channel.vip.add", "1", condBroadcaster, scopeChannelReadVIPs, scopeChannelManageVIPs),
		describe[ChannelVIPRemoveV1]("channel.vip.remove", "1", condBroadcaster, scopeChannelReadVIPs, scopeChannelManageVIPs),
		describe[ChannelWarningAcknowledgeV1]("channel.warning.acknowledge", "1", condBroadcasterModerator, scopeModeratorReadWarnings, scopeModeratorManageWarnings),
		describe[ChannelWarningSendV1]("channel.warning.send", "1", condBroadcasterModerator, scopeModeratorReadWarnings, scopeModeratorManageWarnings),

		describe[ConduitShardDisabledV1]("conduit.shard.disabled", "1", condConduit),
		describe[ExtensionBitsTransactionCreateV1]("extension.bits_transaction.create", "1", condExtension),

		describe[StreamOnlineV1]("stream.online", "1", condBroadcaster),
		describe[StreamOfflineV1]("stream.offline", "1", condBroadcaster),

		describe[UserAuthorizationGrantV1]("user.authorization.grant", "1", condClient),
		describe[UserAuthorizationRevokeV1]("user.authorization.revoke", "1", condClient),
		describe[UserUpdateV1]("user.update", "1", condUser),
		describe[UserWhisperMessageV1]("user.whisper.message", "1", condUser, scopeUserReadWhispers, scopeUserManageWhispers),
	}
}
