package handlers

import (
	"net/http"

	"forumhub/internal/models"
	"forumhub/internal/services"

	"github.com/gin-gonic/gin"
)

// ReactionHandler serves like/dislike routes for one target kind.
type ReactionHandler struct {
	ledger *services.ReactionLedger
	kind   models.TargetKind
}

func NewReactionHandler(ledger *services.ReactionLedger, kind models.TargetKind) *ReactionHandler {
	return &ReactionHandler{ledger: ledger, kind: kind}
}

func (h *ReactionHandler) target(c *gin.Context) (services.Target, bool) {
	id, ok := paramID(c, "id")
	return services.Target{Kind: h.kind, ID: id}, ok
}

// Like - POST /api/{posts|comments}/:id/like
func (h *ReactionHandler) Like(c *gin.Context) {
	h.react(c, models.ReactionLike)
}

// Dislike - POST /api/{posts|comments}/:id/dislike
func (h *ReactionHandler) Dislike(c *gin.Context) {
	h.react(c, models.ReactionDislike)
}

// react answers 201 for a new reaction and 200 with already_reacted for a repeat.
func (h *ReactionHandler) react(c *gin.Context, typ models.ReactionType) {
	target, ok := h.target(c)
	if !ok {
		return
	}
	res, err := h.ledger.React(c.Request.Context(), mustUser(c).ID, target, typ)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, res)
}

// Unreact - DELETE /api/{posts|comments}/:id/reaction
func (h *ReactionHandler) Unreact(c *gin.Context) {
	target, ok := h.target(c)
	if !ok {
		return
	}
	res, err := h.ledger.Unreact(c.Request.Context(), mustUser(c).ID, target)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Status - GET /api/{posts|comments}/:id/reaction, works anonymously
func (h *ReactionHandler) Status(c *gin.Context) {
	target, ok := h.target(c)
	if !ok {
		return
	}
	res, err := h.ledger.Status(c.Request.Context(), viewerID(c), target)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
