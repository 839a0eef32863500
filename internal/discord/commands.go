package discord

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/number27/premiumbot/internal/codes"
	"github.com/number27/premiumbot/internal/orders"
)

// discordMessageLimit is the hard cap on one message's content.
const discordMessageLimit = 2000

func (g *Gateway) onInteraction(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	switch data.Name {
	case "purchase":
		g.handlePurchase(i, data)
	case "redeem":
		g.handleRedeem(i, data)
	case "manual_verify":
		g.handleManualVerify(i, data)
	case "generate_codes":
		g.handleGenerateCodes(i, data)
	case "check_codes":
		g.handleCheckCodes(i)
	}
}

func optionMap(data discordgo.ApplicationCommandInteractionData) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := map[string]*discordgo.ApplicationCommandInteractionDataOption{}
	for _, opt := range data.Options {
		m[opt.Name] = opt
	}
	return m
}

func (g *Gateway) handlePurchase(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	opts := optionMap(data)
	planOpt, ok := opts["plan"]
	if !ok {
		g.respondEphemeral(i, "❌ Missing plan")
		return
	}
	userID := interactionUserID(i)

	o, err := g.svc.CreatePurchase(userID, planOpt.StringValue())
	if err != nil {
		g.logger.Error("purchase failed", zap.String("user", userID), zap.Error(err))
		g.respondEphemeral(i, "❌ Error processing purchase")
		return
	}

	g.respondEphemeral(i, fmt.Sprintf(
		"💎 Payment instructions:\n\n"+
			"Send `%s` to `%s` in game.\n"+
			"Command: ```/pay %s %d```\n\n"+
			"Admins will see your order automatically, no need to ping them.\n"+
			"Order ID: `%s`",
		formatAmount(o.Amount), g.cfg.PaymentTarget, g.cfg.PaymentTarget, o.Amount, o.OrderID))
}

func (g *Gateway) handleRedeem(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	opts := optionMap(data)
	codeOpt, ok := opts["code"]
	if !ok {
		g.respondEphemeral(i, "❌ Missing code")
		return
	}
	userID := interactionUserID(i)

	o, _, err := g.svc.RedeemCode(userID, strings.TrimSpace(codeOpt.StringValue()))
	if err != nil {
		if errors.Is(err, codes.ErrInvalidCode) {
			g.respondEphemeral(i, "❌ Invalid or already redeemed code!")
			return
		}
		g.logger.Error("redeem failed", zap.String("user", userID), zap.Error(err))
		g.respondEphemeral(i, "❌ Error redeeming code")
		return
	}
	g.respondEphemeral(i, fmt.Sprintf("✅ Code accepted for plan **%s**! Premium access is on its way.", o.PlanID))
}

func (g *Gateway) handleManualVerify(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	adminID := interactionUserID(i)
	if !g.cfg.IsAdmin(adminID) {
		g.respondEphemeral(i, "❌ No permission!")
		return
	}
	opts := optionMap(data)
	orderOpt, okOrder := opts["order_id"]
	userOpt, okUser := opts["user"]
	if !okOrder || !okUser {
		g.respondEphemeral(i, "❌ Missing order_id or user")
		return
	}
	target := userOpt.UserValue(g.session)
	if target == nil {
		g.respondEphemeral(i, "❌ Unknown user")
		return
	}

	o, err := g.svc.ManualVerify(strings.TrimSpace(orderOpt.StringValue()), adminID, target.ID)
	switch {
	case errors.Is(err, orders.ErrNotFound):
		g.respondEphemeral(i, "❌ Order not found!")
		return
	case errors.Is(err, orders.ErrAlreadyVerified):
		g.respondEphemeral(i, "❌ Order already verified!")
		return
	case err != nil:
		g.logger.Error("manual verify failed", zap.Error(err))
		g.respondEphemeral(i, "❌ Error verifying order")
		return
	}

	g.respondEphemeral(i, fmt.Sprintf(
		"✅ Order `%s` verified!\n• Payer: `%s`\n• Amount: `%s`\n• Plan: `%s`\n• Discord: <@%s>",
		o.OrderID, orDash(o.PayerDisplayName), formatAmount(o.Amount), o.PlanID, target.ID))
}

func (g *Gateway) handleGenerateCodes(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	adminID := interactionUserID(i)
	if !g.cfg.IsAdmin(adminID) {
		g.respondEphemeral(i, "❌ No permission!")
		return
	}
	opts := optionMap(data)
	planOpt, ok := opts["plan"]
	if !ok {
		g.respondEphemeral(i, "❌ Missing plan")
		return
	}
	count := 1
	if c, ok := opts["count"]; ok {
		count = int(c.IntValue())
	}

	issued, err := g.svc.IssueCodes(planOpt.StringValue(), count, adminID)
	if err != nil {
		g.logger.Error("generate codes failed", zap.Error(err))
		g.respondEphemeral(i, "❌ Error generating codes")
		return
	}

	lines := make([]string, 0, len(issued))
	for _, c := range issued {
		lines = append(lines, fmt.Sprintf("`%s` - %s", c.Code, c.PlanID))
	}
	chunks := chunkLines(fmt.Sprintf("✅ Generated %d %s codes:\n", len(issued), planOpt.StringValue()), lines)
	g.respondEphemeral(i, chunks[0])
	for _, chunk := range chunks[1:] {
		g.followupEphemeral(i, chunk)
	}
}

func (g *Gateway) handleCheckCodes(i *discordgo.InteractionCreate) {
	adminID := interactionUserID(i)
	if !g.cfg.IsAdmin(adminID) {
		g.respondEphemeral(i, "❌ No permission!")
		return
	}

	available := g.svc.AvailableCodes()
	if len(available) == 0 {
		g.respondEphemeral(i, "ℹ️ No available codes")
		return
	}

	lines := make([]string, 0, len(available))
	for _, c := range available {
		lines = append(lines, fmt.Sprintf("`%s` - %s (created by <@%s> on %s)",
			c.Code, c.PlanID, c.CreatedBy, c.CreatedAt.Format("2006-01-02 15:04")))
	}
	chunks := chunkLines("**Available codes:**\n", lines)
	g.respondEphemeral(i, chunks[0])
	for _, chunk := range chunks[1:] {
		g.followupEphemeral(i, chunk)
	}
}

// chunkLines joins header+lines into messages that each fit under the
// Discord content limit. Lines are never split mid-line.
func chunkLines(header string, lines []string) []string {
	chunks := []string{}
	current := header
	for _, line := range lines {
		if len(current)+len(line)+1 > discordMessageLimit && current != "" {
			chunks = append(chunks, strings.TrimRight(current, "\n"))
			current = ""
		}
		current += line + "\n"
	}
	if current != "" {
		chunks = append(chunks, strings.TrimRight(current, "\n"))
	}
	if len(chunks) == 0 {
		chunks = []string{header}
	}
	return chunks
}

func formatAmount(n int64) string {
	s := fmt.Sprintf("%d", n)
	if n < 0 {
		return s
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
