// Package discord is the chat-platform boundary: slash commands in,
// role grants, embeds and DMs out. The order/code core never touches
// a Discord type; it sees this package only through the notify
// collaborator interfaces.
package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/number27/premiumbot/internal/config"
	"github.com/number27/premiumbot/internal/orders"
)

const verifyEmoji = "✅"

// Gateway owns the Discord session and the command/reaction handlers.
type Gateway struct {
	session *discordgo.Session
	svc     *orders.Service
	cfg     *config.Config
	logger  *zap.Logger
}

// New builds the gateway and wires the event handlers; the session is
// not opened yet.
func New(cfg *config.Config, svc *orders.Service, logger *zap.Logger) (*Gateway, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsDirectMessages

	g := &Gateway{session: session, svc: svc, cfg: cfg, logger: logger}
	session.AddHandler(g.onReady)
	session.AddHandler(g.onInteraction)
	session.AddHandler(g.onReactionAdd)
	return g, nil
}

// Open connects to the gateway and registers the slash commands.
func (g *Gateway) Open() error {
	if err := g.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	appID := g.session.State.User.ID
	if _, err := g.session.ApplicationCommandBulkOverwrite(appID, g.cfg.GuildID, g.commandDefinitions()); err != nil {
		return fmt.Errorf("register commands: %w", err)
	}
	return nil
}

// Close tears the session down.
func (g *Gateway) Close() error { return g.session.Close() }

func (g *Gateway) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	g.logger.Info("discord session ready",
		zap.String("user", r.User.Username),
		zap.Int("guilds", len(r.Guilds)))
}

func (g *Gateway) commandDefinitions() []*discordgo.ApplicationCommand {
	planChoices := []*discordgo.ApplicationCommandOptionChoice{}
	for _, p := range g.svc.Plans() {
		planChoices = append(planChoices, &discordgo.ApplicationCommandOptionChoice{
			Name:  p.ID,
			Value: p.ID,
		})
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        "purchase",
			Description: "Purchase premium access",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "plan",
				Description: "Plan to purchase",
				Required:    true,
				Choices:     planChoices,
			}},
		},
		{
			Name:        "redeem",
			Description: "Redeem a premium code",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "code",
				Description: "Code to redeem",
				Required:    true,
			}},
		},
		{
			Name:        "manual_verify",
			Description: "[ADMIN] Manually verify an order",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "order_id",
					Description: "Order to verify",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "User who paid",
					Required:    true,
				},
			},
		},
		{
			Name:        "generate_codes",
			Description: "[ADMIN] Generate premium codes",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "plan",
					Description: "Plan the codes grant",
					Required:    true,
					Choices:     planChoices,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "count",
					Description: "How many codes (max 50)",
					Required:    false,
				},
			},
		},
		{
			Name:        "check_codes",
			Description: "[ADMIN] List available codes",
		},
	}
}

// interactionUserID works for both guild and DM invocations.
func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func (g *Gateway) respondEphemeral(i *discordgo.InteractionCreate, content string) {
	err := g.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		g.logger.Warn("interaction response failed", zap.Error(err))
	}
}

func (g *Gateway) followupEphemeral(i *discordgo.InteractionCreate, content string) {
	_, err := g.session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		g.logger.Warn("interaction followup failed", zap.Error(err))
	}
}
