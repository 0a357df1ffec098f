package config

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

type DiscordConfig struct {
	Token   string `env:"DISCORD_TOKEN, required"`
	GuildID string `env:"DISCORD_GUILD_ID"`
	// ChannelID is optional; without it the busiest voice channel is used.
	ChannelID string `env:"DISCORD_CHANNEL_ID"`
}

func NewDiscordConfigFromEnv() (*DiscordConfig, error) {
	var cfg DiscordConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
