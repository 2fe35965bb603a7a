package eventsub

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseNotification(t *testing.T, body string) *Notification {
	t.Helper()
	env, err := Parse([]byte(body))
	require.NoError(t, err)
	n, ok := env.(*Notification)
	require.True(t, ok, "got %T", env)
	return n
}

func TestResolveFollow(t *testing.T) {
	n := parseNotification(t, followBody)
	r := NewResolver(nil, ParserConfig{Strict: true}, nil)

	ev, err := r.Resolve(n)
	require.NoError(t, err)

	want := &ChannelFollowV2{
		User: User{
			UserID:    "1234",
			UserLogin: "cool_user",
			UserName:  "Cool_User",
		},
		Broadcaster: Broadcaster{
			BroadcasterUserID:    "1337",
			BroadcasterUserLogin: "cooler_user",
			BroadcasterUserName:  "Cooler_User",
		},
		FollowedAt: time.Date(2020, 7, 15, 18, 16, 11, 171067130, time.UTC),
	}
	if diff := cmp.Diff(want, ev, cmpopts.IgnoreUnexported(ChannelFollowV2{})); diff != "" {
		t.Errorf("Resolve mismatch (-want +got):\n%s", diff)
	}

	out, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, string(n.RawEvent), string(out))
}

func fixture(t *testing.T, d Descriptor) json.RawMessage {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", "events", d.Type+".v"+d.Version+".json"))
	require.NoError(t, err, "no fixture for %s", d.Key())
	return raw
}

// Every registered payload decodes strictly from a delivery in Twitch's
// shape and encodes back to the same document.
func TestResolveFixtures(t *testing.T) {
	r := NewResolver(nil, ParserConfig{Strict: true}, nil)
	for _, d := range Default().Descriptors() {
		t.Run(d.Key(), func(t *testing.T) {
			raw := fixture(t, d)

			ev, err := r.Resolve(&Notification{EventType: d.Type, Version: d.Version, RawEvent: raw})
			require.NoError(t, err)
			assert.IsType(t, d.New(), ev)

			out, err := json.Marshal(ev)
			require.NoError(t, err)
			assert.JSONEq(t, string(raw), string(out))
		})
	}
}

func TestFixturesMatchRegistry(t *testing.T) {
	keys := map[string]bool{}
	for _, d := range Default().Descriptors() {
		keys[d.Type+".v"+d.Version+".json"] = true
	}
	entries, err := os.ReadDir(filepath.Join("testdata", "events"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.True(t, keys[e.Name()], "fixture %s has no registered type", e.Name())
	}
	assert.Len(t, entries, len(keys))
}

func resolveFixture(t *testing.T, eventType, version string) Event {
	t.Helper()
	d, ok := Default().Lookup(eventType, version)
	require.True(t, ok)
	r := NewResolver(nil, ParserConfig{Strict: true}, nil)
	ev, err := r.Resolve(&Notification{EventType: eventType, Version: version, RawEvent: fixture(t, d)})
	require.NoError(t, err)
	return ev
}

func TestResolveVersionedPairs(t *testing.T) {
	t.Run("automod.message.hold", func(t *testing.T) {
		v1 := resolveFixture(t, "automod.message.hold", "1").(*AutomodMessageHoldV1)
		assert.Equal(t, "aggressive", v1.Category)
		assert.Equal(t, 5, v1.Level)
		require.Len(t, v1.Message.Fragments, 5)
		assert.Equal(t, &Cheermote{Prefix: "cheer", Bits: 100, Tier: 100}, v1.Message.Fragments[3].Cheermote)

		v2 := resolveFixture(t, "automod.message.hold", "2").(*AutomodMessageHoldV2)
		assert.Equal(t, "blocked_term", v2.Reason)
		assert.Nil(t, v2.Automod)
		require.NotNil(t, v2.BlockedTerm)
		require.Len(t, v2.BlockedTerm.TermsFound, 1)
		assert.Equal(t, Boundary{StartPos: 22, EndPos: 25}, v2.BlockedTerm.TermsFound[0].Boundary)
	})

	t.Run("channel.moderate", func(t *testing.T) {
		v1 := resolveFixture(t, "channel.moderate", "1").(*ChannelModerateV1)
		assert.Equal(t, "timeout", v1.Action)
		require.NotNil(t, v1.Timeout)
		assert.Equal(t, "spam", v1.Timeout.Reason)
		assert.Equal(t, time.Date(2024, 6, 3, 19, 6, 43, 356410000, time.UTC), *v1.Timeout.ExpiresAt)

		v2 := resolveFixture(t, "channel.moderate", "2").(*ChannelModerateV2)
		assert.Equal(t, "warn", v2.Action)
		require.NotNil(t, v2.Warn)
		assert.Equal(t, []string{"Rule 1"}, v2.Warn.ChatRulesCited)
		assert.Nil(t, v2.Timeout)
	})

	t.Run("channel.update", func(t *testing.T) {
		v1 := resolveFixture(t, "channel.update", "1").(*ChannelUpdateV1)
		assert.False(t, v1.IsMature)
		assert.Equal(t, "Grand Theft Auto", v1.CategoryName)

		v2 := resolveFixture(t, "channel.update", "2").(*ChannelUpdateV2)
		assert.Equal(t, []string{"MatureGame"}, v2.ContentClassificationLabels)
	})

	// A version 2 body lacks the members version 1 requires.
	t.Run("cross-version", func(t *testing.T) {
		d, _ := Default().Lookup("channel.update", "2")
		r := NewResolver(nil, ParserConfig{Strict: true}, nil)
		_, err := r.Resolve(&Notification{EventType: "channel.update", Version: "1", RawEvent: fixture(t, d)})
		var se *SchemaError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, []string{"is_mature"}, se.Missing)
	})
}

func TestResolveChatNotification(t *testing.T) {
	ev := resolveFixture(t, "channel.chat.notification", "1").(*ChannelChatNotificationV1)
	assert.Equal(t, "resub", ev.NoticeType)
	require.NotNil(t, ev.Resub)
	assert.Equal(t, 10, ev.Resub.CumulativeMonths)
	assert.Nil(t, ev.Resub.StreakMonths)
	assert.Nil(t, ev.Sub)
	assert.Nil(t, ev.SharedChatResub)
}

func TestResolveUnknownType(t *testing.T) {
	raw := json.RawMessage(`{"anything":{"goes":[1,2,3]}}`)
	r := NewResolver(nil, ParserConfig{Strict: true}, nil)

	ev, err := r.Resolve(&Notification{EventType: "some.future.type", Version: "2", RawEvent: raw})
	require.NoError(t, err)
	u, ok := ev.(*Unknown)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, "some.future.type", u.EventType)
	assert.Equal(t, "2", u.Version)

	out, err := json.Marshal(u)
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(out))
}

func TestResolveSchemaMismatch(t *testing.T) {
	r := NewResolver(nil, ParserConfig{}, nil)

	tests := []struct {
		name    string
		raw     string
		missing []string
	}{
		{"missing field", `{"user_id":"1","user_login":"a","user_name":"A","broadcaster_user_id":"2","broadcaster_user_login":"b","broadcaster_user_name":"B"}`, []string{"followed_at"}},
		{"wrong type", `{"user_id":1,"user_login":"a","user_name":"A","broadcaster_user_id":"2","broadcaster_user_login":"b","broadcaster_user_name":"B","followed_at":"2020-07-15T18:16:11Z"}`, nil},
		{"not an object", `[1,2,3]`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(&Notification{EventType: "channel.follow", Version: "1", RawEvent: json.RawMessage(tt.raw)})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSchemaMismatch)
			var se *SchemaError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, "channel.follow", se.EventType)
			assert.Equal(t, "1", se.Version)
			assert.Equal(t, tt.missing, se.Missing)
		})
	}
}

func TestResolveUnknownFieldStrictness(t *testing.T) {
	raw := json.RawMessage(`{"broadcaster_user_id":"1","broadcaster_user_login":"a","broadcaster_user_name":"A","shiny_new_field":true,"another_one":1}`)
	n := &Notification{EventType: "stream.offline", Version: "1", RawEvent: raw}

	strict := NewResolver(nil, ParserConfig{Strict: true}, nil)
	_, err := strict.Resolve(n)
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, []string{"another_one", "shiny_new_field"}, se.Fields)

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	lenient := NewResolver(nil, ParserConfig{}, log)

	for range 3 {
		ev, err := lenient.Resolve(n)
		require.NoError(t, err)
		off, ok := ev.(*StreamOfflineV1)
		require.True(t, ok)
		assert.Equal(t, "1", off.BroadcasterUserID)
	}
	assert.Equal(t, 1, strings.Count(buf.String(), "shiny_new_field"), "warning should be logged once")
	assert.Equal(t, 1, strings.Count(buf.String(), "another_one"), "every field should be warned about")
}

func TestResolveWarnsAboutNestedFields(t *testing.T) {
	raw := json.RawMessage(`{"user_id":"1","user_login":"a","user_name":"A","broadcaster_user_id":"2","broadcaster_user_login":"b","broadcaster_user_name":"B",` +
		`"id":"r-1","status":"unfulfilled","user_input":"","redeemed_at":"2020-07-15T17:16:03.17106713Z",` +
		`"reward":{"id":"rw-1","title":"t","cost":100,"prompt":"p","glow":"gold"},"queue_position":4}`)
	n := &Notification{EventType: "channel.channel_points_custom_reward_redemption.add", Version: "1", RawEvent: raw}

	var buf bytes.Buffer
	r := NewResolver(nil, ParserConfig{}, slog.New(slog.NewTextHandler(&buf, nil)))
	_, err := r.Resolve(n)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "field=queue_position")
	assert.Contains(t, buf.String(), "field=reward.glow")
}

func TestRevocationIsEvent(t *testing.T) {
	env, err := Parse([]byte(revocationBody))
	require.NoError(t, err)
	ev, ok := env.(Event)
	require.True(t, ok)

	typ, ver, ok := TypeOf(Default(), ev)
	require.True(t, ok)
	assert.Equal(t, "channel.follow", typ)
	assert.Equal(t, "2", ver)
}
