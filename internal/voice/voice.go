// Package voice plays encoded packet streams into Discord voice channels.
package voice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/pcmopus/internal/opus"
)

// NewSession creates a bot session that logs once it is ready. The caller
// opens and closes it.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("Bot is ready", "username", r.User.Username, "userID", r.User.ID)
	})
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates
	return s, nil
}

// MaxAttendedChannel returns the channel with the most members in it.
// This returns nil if no channel has any members.
func MaxAttendedChannel(channels []*discordgo.Channel) *discordgo.Channel {
	var maxAttendedChannel *discordgo.Channel
	maxAttended := -1

	for _, channel := range channels {
		if channel.Type != discordgo.ChannelTypeGuildVoice {
			continue
		}

		if len(channel.Members) > maxAttended {
			maxAttendedChannel = channel
			maxAttended = len(channel.Members)
		}
	}

	return maxAttendedChannel
}

type VoiceChannelFunc func(*discordgo.Session, *discordgo.VoiceConnection) error

// WithVoiceChannel is a utility function
// that joins a voice channel and executes a callback.
// It handles the voice state updates for you.
func WithVoiceChannel(s *discordgo.Session, guildID, channelID string, callback VoiceChannelFunc) error {
	slog.Debug("joining voice channel", "guildID", guildID, "channelID", channelID)
	voiceConn, err := s.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return fmt.Errorf("unable to join the voice channel: %w", err)
	}

	if err := voiceConn.Speaking(true); err != nil {
		return fmt.Errorf("error setting speaking state to 'true': %w", err)
	}
	defer func() {
		if err := voiceConn.Speaking(false); err != nil {
			slog.Error("failed to stop speaking", "error", err)
		}

		if err := voiceConn.Disconnect(); err != nil {
			slog.Error("failed to disconnect", "error", err)
		}
	}()

	if err = callback(s, voiceConn); err != nil {
		return fmt.Errorf("error executing callback: %w", err)
	}

	return nil
}

// ResolveChannel returns channelID if set, otherwise the busiest voice
// channel in the guild.
func ResolveChannel(s *discordgo.Session, guildID, channelID string) (string, error) {
	if channelID != "" {
		return channelID, nil
	}
	channels, err := s.GuildChannels(guildID)
	if err != nil {
		return "", fmt.Errorf("failed to get guild channels: %w", err)
	}
	channel := MaxAttendedChannel(channels)
	if channel == nil {
		return "", fmt.Errorf("guild %s has no voice channel", guildID)
	}
	return channel.ID, nil
}

// Play joins the channel and streams every packet from source. The packets
// must be 48 kHz stereo 20 ms Opus frames, which is what Discord expects.
func Play(ctx context.Context, s *discordgo.Session, guildID, channelID string, source opus.PacketSource) (int, error) {
	sent := 0
	err := WithVoiceChannel(s, guildID, channelID, func(_ *discordgo.Session, vc *discordgo.VoiceConnection) error {
		var err error
		sent, err = opus.StreamToVoice(ctx, source, vc.OpusSend)
		return err
	})
	if err != nil {
		return sent, fmt.Errorf("error occurred while playing sound: %w", err)
	}
	slog.Info("finished playing", "guildID", guildID, "channelID", channelID, "packets", sent)
	return sent, nil
}
