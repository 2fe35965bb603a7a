package eventsub

// Broadcaster identifies the channel an event belongs to.
type Broadcaster struct {
	BroadcasterUserID    string `json:"broadcaster_user_id"`
	BroadcasterUserLogin string `json:"broadcaster_user_login"`
	BroadcasterUserName  string `json:"broadcaster_user_name"`
}

// User identifies the user an event is about.
type User struct {
	UserID    string `json:"user_id"`
	UserLogin string `json:"user_login"`
	UserName  string `json:"user_name"`
}

// Moderator identifies the moderator who performed an action.
type Moderator struct {
	ModeratorUserID    string `json:"moderator_user_id"`
	ModeratorUserLogin string `json:"moderator_user_login"`
	ModeratorUserName  string `json:"moderator_user_name"`
}

// Requester identifies the user that asked for an action, as used by chat
// and moderation payloads.
type Requester struct {
	RequesterUserID    string `json:"requester_user_id"`
	RequesterUserLogin string `json:"requester_user_login"`
	RequesterUserName  string `json:"requester_user_name"`
}

// Chatter identifies the sender of a chat message.
type Chatter struct {
	ChatterUserID    string `json:"chatter_user_id"`
	ChatterUserLogin string `json:"chatter_user_login"`
	ChatterUserName  string `json:"chatter_user_name"`
}

// TargetUser identifies the user on the receiving end of an action.
type TargetUser struct {
	TargetUserID    string `json:"target_user_id"`
	TargetUserLogin string `json:"target_user_login"`
	TargetUserName  string `json:"target_user_name"`
}

// Emote is an emote reference inside a message.
type Emote struct {
	ID         string   `json:"id"`
	EmoteSetID string   `json:"emote_set_id"`
	OwnerID    string   `json:"owner_id,omitempty"`
	Format     []string `json:"format,omitempty"`
}

// Cheermote is a cheermote reference inside a message.
type Cheermote struct {
	Prefix string `json:"prefix"`
	Bits   int    `json:"bits"`
	Tier   int    `json:"tier"`
}

// Mention is a user mention inside a message.
type Mention struct {
	UserID    string `json:"user_id"`
	UserLogin string `json:"user_login"`
	UserName  string `json:"user_name"`
}

// Fragment is one part of a chat message. Only the reference matching Type
// is set; the others are sent as null.
type Fragment struct {
	Type      string     `json:"type"`
	Text      string     `json:"text"`
	Cheermote *Cheermote `json:"cheermote"`
	Emote     *Emote     `json:"emote"`
	Mention   *Mention   `json:"mention"`
}

// Message is a chat message with its fragments.
type Message struct {
	Text      string     `json:"text"`
	Fragments []Fragment `json:"fragments"`
}

// EmoteRange marks emote positions inside plain text.
type EmoteRange struct {
	Begin int    `json:"begin"`
	End   int    `json:"end"`
	ID    string `json:"id"`
}

// RichText is text with emote positions, as used by subscription and
// redemption payloads.
type RichText struct {
	Text   string       `json:"text"`
	Emotes []EmoteRange `json:"emotes"`
}

// Badge is a chat badge.
type Badge struct {
	SetID string `json:"set_id"`
	ID    string `json:"id"`
	Info  string `json:"info"`
}

// Image is a set of image URLs in increasing resolution.
type Image struct {
	URL1x string `json:"url_1x"`
	URL2x string `json:"url_2x"`
	URL4x string `json:"url_4x"`
}

// MaxPerStream is a redemption limit per stream.
type MaxPerStream struct {
	IsEnabled bool `json:"is_enabled"`
	Value     int  `json:"value"`
}

// GlobalCooldown is a redemption cooldown.
type GlobalCooldown struct {
	IsEnabled bool `json:"is_enabled"`
	Seconds   int  `json:"seconds"`
}

// RewardSummary is the reward attached to a redemption.
type RewardSummary struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Cost   int    `json:"cost"`
	Prompt string `json:"prompt"`
}

// PollChoice is one option of a poll.
type PollChoice struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	BitsVotes          int    `json:"bits_votes,omitempty"`
	ChannelPointsVotes int    `json:"channel_points_votes,omitempty"`
	Votes              int    `json:"votes,omitempty"`
}

// VotingSetting describes an additional voting method on a poll.
type VotingSetting struct {
	IsEnabled     bool `json:"is_enabled"`
	AmountPerVote int  `json:"amount_per_vote"`
}

// Predictor is a user who placed channel points on an outcome.
type Predictor struct {
	UserID            string `json:"user_id"`
	UserLogin         string `json:"user_login"`
	UserName          string `json:"user_name"`
	ChannelPointsWon  *int   `json:"channel_points_won"`
	ChannelPointsUsed int    `json:"channel_points_used"`
}

// Outcome is one outcome of a prediction.
type Outcome struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Color         string      `json:"color"`
	Users         int         `json:"users,omitempty"`
	ChannelPoints int         `json:"channel_points,omitempty"`
	TopPredictors []Predictor `json:"top_predictors,omitempty"`
}

// Contribution is a hype train contribution.
type Contribution struct {
	UserID    string `json:"user_id"`
	UserLogin string `json:"user_login"`
	UserName  string `json:"user_name"`
	Type      string `json:"type"`
	Total     int    `json:"total"`
}

// Amount is a currency amount expressed as value * 10^-decimal_places.
type Amount struct {
	Value         int    `json:"value"`
	DecimalPlaces int    `json:"decimal_places"`
	Currency      string `json:"currency"`
}
