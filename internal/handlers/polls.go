package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/14kear/online_voting/polls-service/internal/domain/models"
	"github.com/14kear/online_voting/polls-service/internal/lib/access"
	"github.com/14kear/online_voting/polls-service/internal/middleware"
	"github.com/14kear/online_voting/polls-service/internal/services/polls"
	"github.com/gin-gonic/gin"
)

const defaultLogsLimit = 100

type PollService interface {
	Create(ctx context.Context, creator models.Identity, in polls.CreatePollInput) (models.Poll, error)
	Poll(ctx context.Context, identity models.Identity, id string) (models.Poll, error)
	Polls(ctx context.Context, identity models.Identity, filter models.PollFilter) ([]models.Poll, error)
	Update(ctx context.Context, identity models.Identity, id string, patch models.PollPatch) (models.Poll, error)
	Remove(ctx context.Context, identity models.Identity, id string) error
	Vote(ctx context.Context, identity models.Identity, id, option string) (models.Poll, error)
	Logs(ctx context.Context, identity models.Identity, limit int) ([]models.PollLog, error)
}

type PollHandler struct {
	log   *slog.Logger
	polls PollService
}

type CreatePollRequest struct {
	Question        string   `json:"question" binding:"required"`
	Options         []string `json:"options" binding:"required"`
	DurationMinutes int      `json:"durationMinutes" binding:"required"`
	IsPrivate       bool     `json:"isPrivate"`
	AllowedUsers    []string `json:"allowedUsers"`
}

type UpdatePollRequest struct {
	Question        *string   `json:"question"`
	Options         []string  `json:"options"`
	DurationMinutes *int      `json:"durationMinutes"`
	IsPrivate       *bool     `json:"isPrivate"`
	AllowedUsers    *[]string `json:"allowedUsers"`
}

type VoteRequest struct {
	Option string `json:"option" binding:"required"`
}

type ListPollsQuery struct {
	Status     string `form:"status" binding:"omitempty,oneof=active expired"`
	Visibility string `form:"visibility" binding:"omitempty,oneof=public private"`
	Voted      *bool  `form:"voted"`
}

type LogsQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// pollResponse is the outward view of a poll. Individual votes and the
// allow-list are only shown to admins and the creator.
type pollResponse struct {
	ID              string         `json:"id"`
	Question        string         `json:"question"`
	Options         []string       `json:"options"`
	CreatedBy       string         `json:"createdBy"`
	CreatedAt       time.Time      `json:"createdAt"`
	DurationMinutes int            `json:"durationMinutes"`
	ExpiresAt       time.Time      `json:"expiresAt"`
	IsActive        bool           `json:"isActive"`
	IsPrivate       bool           `json:"isPrivate"`
	AllowedUsers    []string       `json:"allowedUsers,omitempty"`
	Votes           []models.Vote  `json:"votes,omitempty"`
	Results         map[string]int `json:"results"`
	TotalVotes      int            `json:"totalVotes"`
	HasVoted        bool           `json:"hasVoted"`
}

func NewPollHandler(log *slog.Logger, polls PollService) *PollHandler {
	return &PollHandler{log: log, polls: polls}
}

func (h *PollHandler) CreatePoll(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	var req CreatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	poll, err := h.polls.Create(c.Request.Context(), identity, polls.CreatePollInput{
		Question:        req.Question,
		Options:         req.Options,
		DurationMinutes: req.DurationMinutes,
		IsPrivate:       req.IsPrivate,
		AllowedUsers:    req.AllowedUsers,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"poll": newPollResponse(identity, poll)})
}

func (h *PollHandler) GetPollByID(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	poll, err := h.polls.Poll(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"poll": newPollResponse(identity, poll)})
}

func (h *PollHandler) GetPolls(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	var query ListPollsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}

	found, err := h.polls.Polls(c.Request.Context(), identity, models.PollFilter{
		Status:     models.PollStatus(query.Status),
		Visibility: models.PollVisibility(query.Visibility),
		Voted:      query.Voted,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	resp := make([]pollResponse, 0, len(found))
	for _, poll := range found {
		resp = append(resp, newPollResponse(identity, poll))
	}

	c.JSON(http.StatusOK, gin.H{"polls": resp})
}

func (h *PollHandler) UpdatePoll(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	var req UpdatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	poll, err := h.polls.Update(c.Request.Context(), identity, c.Param("id"), models.PollPatch{
		Question:        req.Question,
		Options:         req.Options,
		DurationMinutes: req.DurationMinutes,
		IsPrivate:       req.IsPrivate,
		AllowedUsers:    req.AllowedUsers,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"poll": newPollResponse(identity, poll)})
}

func (h *PollHandler) DeletePoll(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	if err := h.polls.Remove(c.Request.Context(), identity, c.Param("id")); err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "poll deleted"})
}

func (h *PollHandler) Vote(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	poll, err := h.polls.Vote(c.Request.Context(), identity, c.Param("id"), req.Option)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"poll": newPollResponse(identity, poll)})
}

func (h *PollHandler) GetLogs(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	var query LogsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}
	if query.Limit == 0 {
		query.Limit = defaultLogsLimit
	}

	logs, err := h.polls.Logs(c.Request.Context(), identity, query.Limit)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func (h *PollHandler) identity(c *gin.Context) (models.Identity, bool) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return identity, ok
}

func newPollResponse(viewer models.Identity, poll models.Poll) pollResponse {
	resp := pollResponse{
		ID:              poll.ID,
		Question:        poll.Question,
		Options:         poll.Options,
		CreatedBy:       poll.CreatedBy,
		CreatedAt:       poll.CreatedAt,
		DurationMinutes: poll.DurationMinutes,
		ExpiresAt:       poll.ExpiresAt,
		IsActive:        poll.IsActive,
		IsPrivate:       poll.IsPrivate,
		Results:         poll.Results(),
		HasVoted:        poll.HasVoted(viewer.ID),
	}
	for _, n := range resp.Results {
		resp.TotalVotes += n
	}

	if viewer.IsAdmin() || access.IsOwner(viewer, poll) {
		resp.AllowedUsers = poll.AllowedUsers
		resp.Votes = poll.Votes
	}

	return resp
}
