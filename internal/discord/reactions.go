package discord

import (
	"errors"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/number27/premiumbot/internal/orders"
)

// onReactionAdd verifies an order when an admin reacts with ✅ on a
// verification embed in the verification channel.
func (g *Gateway) onReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.ChannelID != g.cfg.VerificationChannelID {
		return
	}
	if r.Emoji.Name != verifyEmoji {
		return
	}
	if r.UserID == s.State.User.ID {
		return
	}
	if !g.cfg.IsAdmin(r.UserID) {
		return
	}

	msg, err := s.ChannelMessage(r.ChannelID, r.MessageID)
	if err != nil {
		g.logger.Warn("fetch reacted message", zap.String("message_id", r.MessageID), zap.Error(err))
		return
	}
	if len(msg.Embeds) == 0 {
		return
	}
	orderID := orderIDFromEmbed(msg.Embeds[0])
	if orderID == "" {
		return
	}

	order, err := g.svc.Verify(orderID, r.UserID)
	switch {
	case err == nil:
	case errors.Is(err, orders.ErrAlreadyVerified):
		g.logger.Info("order already verified", zap.String("order_id", orderID))
		return
	case errors.Is(err, orders.ErrIdentityUnknown):
		// Direct payments without a linked Discord account stay
		// pending until /manual_verify supplies the identity.
		g.logger.Info("verification deferred, requester unknown",
			zap.String("order_id", orderID),
			zap.String("admin_id", r.UserID))
		return
	default:
		g.logger.Error("verify order from reaction",
			zap.String("order_id", orderID), zap.Error(err))
		return
	}

	g.logger.Info("order verified by reaction",
		zap.String("order_id", orderID),
		zap.String("admin_id", r.UserID),
		zap.String("requester_id", order.RequesterID))

	if _, err := s.ChannelMessageEditEmbed(r.ChannelID, r.MessageID, verifiedEmbed(msg.Embeds[0], r.UserID)); err != nil {
		g.logger.Warn("update verification embed", zap.String("message_id", r.MessageID), zap.Error(err))
	}
	if err := s.MessageReactionsRemoveAll(r.ChannelID, r.MessageID); err != nil {
		g.logger.Warn("clear verification reactions", zap.String("message_id", r.MessageID), zap.Error(err))
	}
}
