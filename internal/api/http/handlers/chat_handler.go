package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-assistant/internal/api/dto"
	"github.com/spec-kit/support-assistant/internal/domain"
	"github.com/spec-kit/support-assistant/internal/escalation"
	"github.com/spec-kit/support-assistant/internal/service"
	"github.com/spec-kit/support-assistant/pkg/util"
)

// ChatHandler serves the conversational surface.
type ChatHandler struct {
	conversations *service.ConversationService
}

// NewChatHandler constructs handler.
func NewChatHandler(conversations *service.ConversationService) *ChatHandler {
	return &ChatHandler{conversations: conversations}
}

// HandleMessage POST /chat/message.
func (h *ChatHandler) HandleMessage(c *fiber.Ctx) error {
	var req dto.ChatMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	input := service.TurnInput{
		ConversationID: req.ConversationID,
		ContextToken:   req.ContextToken,
		CustomerRef:    req.CustomerRef,
		VIP:            req.VIP,
		Message:        req.Message,
	}
	if req.Classification != nil {
		input.Classification = &escalation.RawSignal{
			IntentLabel: req.Classification.IntentLabel,
			Confidence:  req.Classification.Confidence,
			Sentiment:   req.Classification.Sentiment,
			Keywords:    req.Classification.Keywords,
		}
	}

	result, err := h.conversations.HandleTurn(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": turnResponse(result)})
}

// GetConversation GET /chat/conversations/:id.
func (h *ChatHandler) GetConversation(c *fiber.Ctx) error {
	conv, err := h.conversations.GetConversation(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": conversationResponse(conv)})
}

// ListMessages GET /chat/conversations/:id/messages.
func (h *ChatHandler) ListMessages(c *fiber.Ctx) error {
	msgs, err := h.conversations.ListMessages(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.MessageResponse, 0, len(msgs))
	for i := range msgs {
		items = append(items, messageResponse(&msgs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CloseConversation POST /chat/conversations/:id/close.
func (h *ChatHandler) CloseConversation(c *fiber.Ctx) error {
	conv, err := h.conversations.CloseConversation(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": conversationResponse(conv)})
}

func turnResponse(result *service.TurnResult) dto.ChatMessageResponse {
	resp := dto.ChatMessageResponse{
		ConversationID: result.ConversationID,
		Response:       result.ResponseText,
		Escalated:      result.Decision.Escalate,
		Reasons:        result.Decision.Reasons,
		Priority:       result.Priority,
		SuggestedLinks: linkResponses(result.SuggestedLinks),
	}
	if result.Ticket != nil {
		summary := ticketSummary(result.Ticket)
		resp.Ticket = &summary
	}
	return resp
}

func linkResponses(links []service.Link) []dto.LinkResponse {
	items := make([]dto.LinkResponse, 0, len(links))
	for _, l := range links {
		items = append(items, dto.LinkResponse{Label: l.Label, URL: l.URL})
	}
	return items
}

func conversationResponse(conv *domain.Conversation) dto.ConversationResponse {
	return dto.ConversationResponse{
		ID:               conv.ID,
		CustomerRef:      conv.CustomerRef,
		Channel:          conv.Channel,
		Status:           conv.Status,
		VIP:              conv.VIP,
		PriorEscalations: conv.PriorEscalations,
		CreatedAt:        conv.CreatedAt,
		UpdatedAt:        conv.UpdatedAt,
	}
}

func messageResponse(msg *domain.Message) dto.MessageResponse {
	return dto.MessageResponse{
		ID:        msg.ID,
		Role:      msg.Role,
		Content:   msg.Content,
		Metadata:  msg.Metadata,
		CreatedAt: msg.CreatedAt,
	}
}
