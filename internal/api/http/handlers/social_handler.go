package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-assistant/internal/api/dto"
	"github.com/spec-kit/support-assistant/internal/domain"
	"github.com/spec-kit/support-assistant/internal/service"
	"github.com/spec-kit/support-assistant/internal/worker"
	"github.com/spec-kit/support-assistant/pkg/util"
)

// SocialHandler serves the social watch surface. The watcher is nil when
// the watch loop is disabled; direct ingestion still works.
type SocialHandler struct {
	service *service.SocialService
	watcher *worker.SocialWatcher
}

// NewSocialHandler constructs handler.
func NewSocialHandler(socialService *service.SocialService, watcher *worker.SocialWatcher) *SocialHandler {
	return &SocialHandler{service: socialService, watcher: watcher}
}

// IngestPost POST /social/posts.
func (h *SocialHandler) IngestPost(c *fiber.Ctx) error {
	var req dto.SocialPostRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	outcome, err := h.service.HandleSocialPost(c.UserContext(), domain.SocialPost{
		ID:       req.ID,
		Author:   req.Author,
		Content:  req.Content,
		URL:      req.URL,
		Hashtags: req.Hashtags,
		PostedAt: req.PostedAt,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": outcomeResponse(outcome)})
}

// ListProcessed GET /social/posts.
func (h *SocialHandler) ListProcessed(c *fiber.Ctx) error {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	posts, err := h.service.ListProcessed(c.UserContext(), pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.ProcessedPostResponse, 0, len(posts))
	for i := range posts {
		items = append(items, processedPostResponse(&posts[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Status GET /social/status.
func (h *SocialHandler) Status(c *fiber.Ctx) error {
	if h.watcher == nil {
		return c.JSON(fiber.Map{"data": fiber.Map{"enabled": false}})
	}
	status := h.watcher.Status()
	return c.JSON(fiber.Map{"data": fiber.Map{
		"enabled":       true,
		"hashtags":      status.Hashtags,
		"poll_interval": status.PollInterval,
		"last_poll_at":  status.LastPollAt,
		"checkpoints":   status.Checkpoints,
		"posts_handled": status.PostsHandled,
	}})
}

func outcomeResponse(outcome *service.SocialOutcome) dto.SocialOutcomeResponse {
	resp := dto.SocialOutcomeResponse{
		Skipped:        outcome.Skipped,
		SkipReason:     outcome.SkipReason,
		ConversationID: outcome.ConversationID,
		Escalated:      outcome.Escalated,
		Priority:       outcome.Priority,
		Replied:        outcome.Replied,
	}
	if outcome.Ticket != nil {
		resp.TicketID = outcome.Ticket.ID
	}
	return resp
}

func processedPostResponse(post *domain.ProcessedPost) dto.ProcessedPostResponse {
	return dto.ProcessedPostResponse{
		PostID:      post.PostID,
		Author:      post.Author,
		Content:     post.Content,
		Hashtags:    post.Hashtags,
		Escalated:   post.Escalated,
		Priority:    post.Priority,
		TicketID:    post.TicketID,
		Replied:     post.Replied,
		ProcessedAt: post.ProcessedAt,
	}
}
