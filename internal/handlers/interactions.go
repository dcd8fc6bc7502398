package handlers

import (
	"crypto/ed25519"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"song-request-backend/internal/discord"
	"song-request-backend/internal/models"
	"song-request-backend/internal/services"
)

// ClickDispatcher is implemented by *services.AcceptanceService.
type ClickDispatcher interface {
	Dispatch(click services.ButtonClick)
}

type InteractionsHandler struct {
	publicKey ed25519.PublicKey
	clicks    ClickDispatcher
	logger    *zap.Logger
}

func NewInteractionsHandler(publicKey ed25519.PublicKey, clicks ClickDispatcher, logger *zap.Logger) *InteractionsHandler {
	return &InteractionsHandler{publicKey: publicKey, clicks: clicks, logger: logger}
}

// HandleInteraction godoc
// @Summary     Discord interaction callback
// @Description Verifies the Ed25519 signature, answers PINGs, and acknowledges accept/decline button clicks with a deferred update. The click itself is handled in the background so Discord gets its answer within three seconds.
// @Tags        discord
// @Accept      json
// @Produce     json
// @Param       X-Signature-Ed25519 header string true "Request signature"
// @Param       X-Signature-Timestamp header string true "Signature timestamp"
// @Success     200 {object} object "Interaction response"
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /discord/interactions [post]
func (h *InteractionsHandler) HandleInteraction(c *gin.Context) {
	if h.publicKey == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "unavailable", Message: "discord is not configured"})
		return
	}
	if !discord.Verify(c.Request, h.publicKey) {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized", Message: "invalid request signature"})
		return
	}

	var i discordgo.Interaction
	if !bindJSON(c, &i) {
		return
	}

	switch i.Type {
	case discordgo.InteractionPing:
		c.JSON(http.StatusOK, discordgo.InteractionResponse{Type: discordgo.InteractionResponsePong})

	case discordgo.InteractionMessageComponent:
		action, orderID, err := discord.ParseCustomID(i.MessageComponentData().CustomID)
		if err != nil {
			respondError(c, err)
			return
		}
		click := services.ButtonClick{
			Action:        action,
			OrderID:       orderID,
			DiscordUserID: discord.ClickerID(&i),
			Interaction:   &i,
		}
		h.logger.Info("button click received",
			zap.String("action", action),
			zap.String("order_id", orderID.String()),
			zap.String("discord_user_id", click.DiscordUserID))
		h.clicks.Dispatch(click)
		c.JSON(http.StatusOK, discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredMessageUpdate})

	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "validation", Message: "unsupported interaction type"})
	}
}
