package voice_test

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/pcmopus/internal/voice"
)

func TestMaxAttendedChannel(t *testing.T) {
	members := func(n int) []*discordgo.ThreadMember {
		return make([]*discordgo.ThreadMember, n)
	}

	table := []struct {
		name     string
		channels []*discordgo.Channel
		want     string
	}{
		{
			name:     "No channels should return nil",
			channels: nil,
			want:     "",
		},
		{
			name: "Text channels should be ignored",
			channels: []*discordgo.Channel{
				{ID: "text", Type: discordgo.ChannelTypeGuildText, Members: members(10)},
				{ID: "voice", Type: discordgo.ChannelTypeGuildVoice, Members: members(1)},
			},
			want: "voice",
		},
		{
			name: "The busiest voice channel should win",
			channels: []*discordgo.Channel{
				{ID: "quiet", Type: discordgo.ChannelTypeGuildVoice, Members: members(1)},
				{ID: "busy", Type: discordgo.ChannelTypeGuildVoice, Members: members(4)},
			},
			want: "busy",
		},
		{
			name: "An empty voice channel is still a candidate",
			channels: []*discordgo.Channel{
				{ID: "empty", Type: discordgo.ChannelTypeGuildVoice},
			},
			want: "empty",
		},
	}

	for _, tc := range table {
		t.Run(tc.name, func(t *testing.T) {
			got := voice.MaxAttendedChannel(tc.channels)
			if tc.want == "" {
				if got != nil {
					t.Errorf("expected nil, got %s", got.ID)
				}
				return
			}
			if got == nil || got.ID != tc.want {
				t.Errorf("expected %s, got %+v", tc.want, got)
			}
		})
	}
}

func TestResolveChannelExplicit(t *testing.T) {
	got, err := voice.ResolveChannel(nil, "guild", "chan")
	if err != nil {
		t.Fatalf("ResolveChannel() returned error: %v", err)
	}
	if got != "chan" {
		t.Errorf("ResolveChannel() = %s, want chan", got)
	}
}
