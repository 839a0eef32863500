package discord

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/number27/premiumbot/internal/notify"
)

// Gateway implements notify.AccessGranter and notify.Messenger; the
// dispatcher drives these from outside the Discord event loop.

// GrantAccess adds the premium role to the guild member.
func (g *Gateway) GrantAccess(requesterID string) error {
	if err := g.session.GuildMemberRoleAdd(g.cfg.GuildID, requesterID, g.cfg.PremiumRoleID); err != nil {
		return fmt.Errorf("add premium role to %s: %w", requesterID, err)
	}
	return nil
}

// SendConfirmation DMs the requester that their order was verified.
func (g *Gateway) SendConfirmation(ev notify.Event) error {
	channel, err := g.session.UserChannelCreate(ev.RequesterID)
	if err != nil {
		return fmt.Errorf("open dm channel to %s: %w", ev.RequesterID, err)
	}
	var msg string
	if ev.CodeRedemption {
		msg = fmt.Sprintf(
			"✅ Code redeemed for plan **%s**! You now have premium access.\n"+
				"Follow the authorization channel instructions to register your HWID, then restart the game.",
			ev.PlanID)
	} else {
		msg = fmt.Sprintf(
			"🎉 Your purchase is confirmed! You now have premium access.\n\n"+
				"**Order details:**\n• Plan: %s\n• Amount: %s\n• Verified by: <@%s>\n\n"+
				"Follow the authorization channel instructions to register your HWID, then restart the game.",
			ev.PlanID, formatAmount(ev.Amount), ev.VerifiedBy)
	}
	if _, err := g.session.ChannelMessageSend(channel.ID, msg); err != nil {
		return fmt.Errorf("send dm to %s: %w", ev.RequesterID, err)
	}
	return nil
}

// AnnounceOrder posts the admin verification prompt embed and seeds
// the ✅ reaction admins confirm with.
func (g *Gateway) AnnounceOrder(ev notify.Event) error {
	embed := verificationEmbed(ev)
	msg, err := g.session.ChannelMessageSendEmbed(g.cfg.VerificationChannelID, embed)
	if err != nil {
		return fmt.Errorf("post verification embed for %s: %w", ev.OrderID, err)
	}
	if err := g.session.MessageReactionAdd(g.cfg.VerificationChannelID, msg.ID, verifyEmoji); err != nil {
		return fmt.Errorf("seed verify reaction on %s: %w", msg.ID, err)
	}
	return nil
}

const (
	embedTitlePending  = "🛒 Payment Verification Required"
	embedTitleDirect   = "💰 Direct Payment Received"
	embedTitleVerified = "✅ Payment Verified"

	fieldOrderID = "Order ID"

	colorPending  = 0xFFA500
	colorDirect   = 0x00FF00
	colorVerified = 0x2ECC71
)

func verificationEmbed(ev notify.Event) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Fields:    []*discordgo.MessageEmbedField{},
	}
	addField := func(name, value string, inline bool) {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: name, Value: value, Inline: inline,
		})
	}

	switch ev.Kind {
	case notify.KindDirectPayment:
		embed.Title = embedTitleDirect
		embed.Color = colorDirect
		embed.Description = "**⚡ Payment detected in-game! React with " + verifyEmoji + " to verify**"
		addField("Payer Name", "```"+ev.PayerName+"```", true)
		addField("Amount", "```"+formatAmount(ev.Amount)+"```", true)
		addField("Detected Plan", "```"+ev.PlanID+"```", true)
		addField(fieldOrderID, "```"+ev.OrderID+"```", false)
		addField("Status", "🟡 **Needs Verification**", false)
		addField("Action", "Ask the payer for their Discord ID and use `/manual_verify`", false)
	default:
		embed.Title = embedTitlePending
		embed.Color = colorPending
		embed.Description = "**React with " + verifyEmoji + " to verify this payment**"
		addField("Discord User", "<@"+ev.RequesterID+">", true)
		if ev.PayerName != "" {
			addField("Payer Name", "```"+ev.PayerName+"```", true)
		}
		addField("Amount", "```"+formatAmount(ev.Amount)+"```", true)
		addField("Plan", "```"+ev.PlanID+"```", true)
		addField(fieldOrderID, "```"+ev.OrderID+"```", false)
	}
	return embed
}

// orderIDFromEmbed digs the order id out of a verification embed.
func orderIDFromEmbed(embed *discordgo.MessageEmbed) string {
	if embed == nil {
		return ""
	}
	if embed.Title != embedTitlePending && embed.Title != embedTitleDirect {
		return ""
	}
	for _, f := range embed.Fields {
		if f.Name == fieldOrderID {
			return trimCodeBlock(f.Value)
		}
	}
	return ""
}

func trimCodeBlock(s string) string {
	for len(s) > 0 && s[0] == '`' {
		s = s[1:]
	}
	for len(s) > 0 && s[len(s)-1] == '`' {
		s = s[:len(s)-1]
	}
	return s
}

func verifiedEmbed(orig *discordgo.MessageEmbed, adminID string) *discordgo.MessageEmbed {
	out := *orig
	out.Title = embedTitleVerified
	out.Color = colorVerified
	out.Fields = append(out.Fields,
		&discordgo.MessageEmbedField{Name: "✅ Verified By", Value: "<@" + adminID + ">", Inline: true},
		&discordgo.MessageEmbedField{Name: "🕒 Verified At", Value: fmt.Sprintf("<t:%d:R>", time.Now().Unix()), Inline: true},
	)
	return &out
}
