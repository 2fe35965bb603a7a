package eventsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryCoversCatalog(t *testing.T) {
	reg := Default()
	descs := catalog()
	require.Equal(t, len(descs), reg.Len())

	for _, d := range descs {
		got, ok := reg.Lookup(d.Type, d.Version)
		require.True(t, ok, d.Key())
		assert.Equal(t, d.Payload, got.Payload)

		back, ok := reg.DescriptorOf(d.New())
		require.True(t, ok, d.Key())
		assert.Equal(t, d.Key(), back.Key())
	}
}

func TestDescriptorsSorted(t *testing.T) {
	descs := Default().Descriptors()
	for i := 1; i < len(descs); i++ {
		prev, cur := descs[i-1], descs[i]
		assert.True(t, prev.Type < cur.Type || (prev.Type == cur.Type && prev.Version < cur.Version),
			"%s before %s", prev.Key(), cur.Key())
	}
}

func TestNewRegistryPanicsOnDuplicateKey(t *testing.T) {
	assert.Panics(t, func() {
		NewRegistry(
			describe[StreamOnlineV1]("stream.online", "1", condBroadcaster),
			describe[StreamOfflineV1]("stream.online", "1", condBroadcaster),
		)
	})
}

func TestNewRegistryPanicsOnSharedPayload(t *testing.T) {
	assert.Panics(t, func() {
		NewRegistry(
			describe[StreamOnlineV1]("stream.online", "1", condBroadcaster),
			describe[StreamOnlineV1]("stream.online", "2", condBroadcaster),
		)
	})
}

func TestLookupUnknown(t *testing.T) {
	_, ok := Default().Lookup("some.future.type", "2")
	assert.False(t, ok)
	_, ok = Default().Lookup("channel.follow", "3")
	assert.False(t, ok)
}

func TestConditionSchemaCheck(t *testing.T) {
	tests := []struct {
		name    string
		schema  ConditionSchema
		cond    map[string]string
		wantErr bool
	}{
		{"required present", condBroadcasterModerator, map[string]string{"broadcaster_user_id": "1", "moderator_user_id": "2"}, false},
		{"required missing", condBroadcasterModerator, map[string]string{"broadcaster_user_id": "1"}, true},
		{"optional allowed", condReward, map[string]string{"broadcaster_user_id": "1", "reward_id": "r"}, false},
		{"unexpected key", condBroadcaster, map[string]string{"broadcaster_user_id": "1", "user_id": "2"}, true},
		{"one of", condRaid, map[string]string{"to_broadcaster_user_id": "1"}, false},
		{"both of one of", condRaid, map[string]string{"to_broadcaster_user_id": "1", "from_broadcaster_user_id": "2"}, true},
		{"none of one of", condRaid, map[string]string{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Check(tt.cond)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDescriptorAuthorized(t *testing.T) {
	follow, ok := Default().Lookup("channel.follow", "2")
	require.True(t, ok)

	has := func(scopes ...string) func(string) bool {
		return func(s string) bool {
			for _, x := range scopes {
				if x == s {
					return true
				}
			}
			return false
		}
	}
	assert.True(t, follow.Authorized(has("moderator:read:followers")))
	assert.False(t, follow.Authorized(has("channel:read:polls")))

	online, ok := Default().Lookup("stream.online", "1")
	require.True(t, ok)
	assert.True(t, online.Authorized(has()))
}

func TestTypeOf(t *testing.T) {
	reg := Default()

	typ, ver, ok := TypeOf(reg, &ChannelFollowV2{})
	require.True(t, ok)
	assert.Equal(t, "channel.follow", typ)
	assert.Equal(t, "2", ver)

	typ, ver, ok = TypeOf(reg, &Unknown{EventType: "some.future.type", Version: "2"})
	require.True(t, ok)
	assert.Equal(t, "some.future.type", typ)
	assert.Equal(t, "2", ver)

	_, _, ok = TypeOf(NewRegistry(), &StreamOnlineV1{})
	assert.False(t, ok)
}
