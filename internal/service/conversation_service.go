package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-assistant/internal/ai"
	"github.com/spec-kit/support-assistant/internal/domain"
	"github.com/spec-kit/support-assistant/internal/escalation"
	"github.com/spec-kit/support-assistant/internal/events"
	"github.com/spec-kit/support-assistant/internal/observability"
	"github.com/spec-kit/support-assistant/internal/repository"
	"github.com/spec-kit/support-assistant/pkg/util"
)

// fallbackResponse is returned whenever generation degrades. Its turn
// always escalates: the forced zero confidence trips the low-confidence
// rule, so no customer is left with an apology and nobody coming.
const fallbackResponse = "Je suis désolé, je rencontre un problème technique. " +
	"Un conseiller va prendre le relais pour vous aider."

// contextTokenTTL bounds how long a contact token keeps routing chats
// into the conversation it was minted for.
const contextTokenTTL = 24 * time.Hour

// ConversationService orchestrates one customer turn end to end:
// transcript, collaborators, escalation policy, ticketing.
type ConversationService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	tickets       *TicketService
	classifier    Classifier
	retriever     Retriever
	generator     Generator
	normalizer    *escalation.Normalizer
	evaluator     *escalation.Evaluator
	ranker        *escalation.Ranker
	links         *LinkCatalog
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	now           func() time.Time
}

// ConversationDependencies bundles collaborators for the orchestrator.
type ConversationDependencies struct {
	ConversationRepo repository.ConversationRepository
	MessageRepo      repository.MessageRepository
	Tickets          *TicketService
	Classifier       Classifier
	Retriever        Retriever
	Generator        Generator
	Normalizer       *escalation.Normalizer
	Evaluator        *escalation.Evaluator
	Ranker           *escalation.Ranker
	Links            *LinkCatalog
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
}

// TurnInput is one customer message to handle. Classification, when set,
// is trusted as the raw classifier output and the collaborator is not
// called; the orchestrating layer may classify upstream.
type TurnInput struct {
	ConversationID string
	ContextToken   string
	CustomerRef    string
	VIP            bool
	Message        string
	Classification *escalation.RawSignal
}

// TurnResult is everything one handled turn produced.
type TurnResult struct {
	ConversationID string
	ResponseText   string
	Decision       domain.EscalationDecision
	Priority       *domain.TicketPriority
	Ticket         *domain.Ticket
	SuggestedLinks []Link
}

// NewConversationService constructs the orchestrator.
func NewConversationService(deps ConversationDependencies) *ConversationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConversationService{
		conversations: deps.ConversationRepo,
		messages:      deps.MessageRepo,
		tickets:       deps.Tickets,
		classifier:    deps.Classifier,
		retriever:     deps.Retriever,
		generator:     deps.Generator,
		normalizer:    deps.Normalizer,
		evaluator:     deps.Evaluator,
		ranker:        deps.Ranker,
		links:         deps.Links,
		dispatcher:    deps.Dispatcher,
		logger:        logger,
		now:           time.Now,
	}
}

// HandleTurn runs one customer message through the full pipeline. A turn
// always produces a response and a decision; collaborator failures
// degrade the signal instead of failing the call.
func (s *ConversationService) HandleTurn(ctx context.Context, input TurnInput) (*TurnResult, error) {
	started := s.now()
	defer func() {
		observability.TurnDuration.WithLabelValues(string(domain.ChannelChat)).Observe(s.now().Sub(started).Seconds())
	}()
	observability.TurnsProcessed.WithLabelValues(string(domain.ChannelChat)).Inc()

	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, util.NewValidationError("message must not be empty", nil)
	}

	conv, err := s.resolveConversation(ctx, input)
	if err != nil {
		return nil, err
	}
	if input.VIP {
		conv.VIP = true
	}
	if conv.CustomerRef == "" {
		conv.CustomerRef = input.CustomerRef
	}

	if _, err := s.appendMessage(ctx, conv.ID, domain.RoleCustomer, message, nil); err != nil {
		return nil, err
	}

	raw := s.classify(ctx, input, message)
	passages := s.retrieve(ctx, message)
	responseText, genConfidence := s.generate(ctx, message, passages)

	// Trust the pipeline only as much as its weakest collaborator.
	if genConfidence < raw.Confidence {
		raw.Confidence = genConfidence
	}

	sig := s.normalizer.Normalize(raw, domain.ChannelChat, "chat:"+conv.ID)
	convCtx, err := s.contextFor(ctx, conv)
	if err != nil {
		return nil, err
	}
	decision := s.evaluator.Evaluate(sig, convCtx)

	result := &TurnResult{
		ConversationID: conv.ID,
		ResponseText:   responseText,
		Decision:       decision,
		SuggestedLinks: s.links.For(sig.IntentCategory),
	}

	meta := map[string]any{"escalated": decision.Escalate}
	if len(result.SuggestedLinks) > 0 {
		meta["links"] = linkURLs(result.SuggestedLinks)
	}

	if decision.Escalate {
		for _, reason := range decision.Reasons {
			observability.EscalationsDecided.WithLabelValues(string(domain.ChannelChat), string(reason)).Inc()
		}
		priority := s.ranker.Rank(decision, sig, convCtx)
		result.Priority = &priority
		meta["reasons"] = decision.Reasons

		ticket, err := s.tickets.OpenOrUpgrade(ctx, TicketOpenInput{
			ConversationID: conv.ID,
			Category:       sig.IntentCategory,
			Priority:       priority,
			Reasons:        decision.Reasons,
			Actor:          SystemActor(),
		})
		if err != nil && !util.IsCode(err, util.CodeDuplicateTicket) {
			return nil, err
		}
		result.Ticket = ticket
		if ticket != nil {
			meta["ticket_id"] = ticket.ID
		}

		publish(ctx, s.dispatcher, events.Event{
			Type:           events.EventEscalationDecided,
			ConversationID: conv.ID,
			Actor:          SystemActor(),
			Payload: events.EscalationDecidedPayload{
				Channel:  domain.ChannelChat,
				Reasons:  decision.Reasons,
				Priority: priority,
			},
		})

		conv.Status = domain.ConversationStatusEscalated
		conv.PriorEscalations++
	}

	if _, err := s.appendMessage(ctx, conv.ID, domain.RoleAssistant, responseText, meta); err != nil {
		return nil, err
	}
	if err := s.conversations.SaveSignal(ctx, conv.ID, sig); err != nil {
		return nil, err
	}
	if err := s.conversations.Update(ctx, conv); err != nil {
		return nil, err
	}
	return result, nil
}

// GetConversation returns one conversation by id.
func (s *ConversationService) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	return s.conversations.GetByID(ctx, id)
}

// ListMessages returns the transcript of a conversation, oldest first.
func (s *ConversationService) ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	if _, err := s.conversations.GetByID(ctx, conversationID); err != nil {
		return nil, err
	}
	return s.messages.ListByConversation(ctx, conversationID)
}

// CloseConversation ends a conversation; later turns referencing it by
// token start a fresh one.
func (s *ConversationService) CloseConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv.Status == domain.ConversationStatusClosed {
		return conv, nil
	}
	conv.Status = domain.ConversationStatusClosed
	if err := s.conversations.Update(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *ConversationService) resolveConversation(ctx context.Context, input TurnInput) (*domain.Conversation, error) {
	if input.ConversationID != "" {
		conv, err := s.conversations.GetByID(ctx, input.ConversationID)
		if err != nil {
			return nil, err
		}
		if conv.Status == domain.ConversationStatusClosed {
			return nil, util.NewConflict("conversation is closed", map[string]any{"conversation_id": conv.ID})
		}
		return conv, nil
	}

	if input.ContextToken != "" {
		conv, err := s.conversations.GetByContextToken(ctx, input.ContextToken)
		switch {
		case err == nil:
			if conv.Status != domain.ConversationStatusClosed && s.now().Sub(conv.CreatedAt) <= contextTokenTTL {
				return conv, nil
			}
			// expired or closed: the token no longer routes anywhere
			s.logger.Debug("context token not honored", zap.String("conversation_id", conv.ID))
		case !errors.Is(err, pgx.ErrNoRows):
			return nil, err
		}
	}

	conv := &domain.Conversation{
		CustomerRef: input.CustomerRef,
		Channel:     domain.ChannelChat,
		Status:      domain.ConversationStatusActive,
		VIP:         input.VIP,
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *ConversationService) contextFor(ctx context.Context, conv *domain.Conversation) (domain.ConversationContext, error) {
	history, err := s.conversations.ListSignals(ctx, conv.ID)
	if err != nil {
		return domain.ConversationContext{}, err
	}
	return domain.ConversationContext{
		ConversationID:   conv.ID,
		CustomerRef:      conv.CustomerRef,
		VIP:              conv.VIP,
		PriorEscalations: conv.PriorEscalations,
		History:          history,
	}, nil
}

func (s *ConversationService) appendMessage(ctx context.Context, conversationID string, role domain.MessageRole, content string, meta map[string]any) (*domain.Message, error) {
	msg := &domain.Message{
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Metadata:       meta,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *ConversationService) classify(ctx context.Context, input TurnInput, message string) escalation.RawSignal {
	if input.Classification != nil {
		return *input.Classification
	}
	raw, err := s.classifier.Classify(ctx, message)
	if err != nil {
		s.logger.Warn("classifier degraded", zap.Error(err))
		return escalation.RawSignal{}
	}
	return raw
}

func (s *ConversationService) retrieve(ctx context.Context, message string) []ai.Passage {
	passages, err := s.retriever.Retrieve(ctx, message)
	if err != nil {
		s.logger.Warn("retrieval degraded", zap.Error(err))
		return nil
	}
	return passages
}

func (s *ConversationService) generate(ctx context.Context, message string, passages []ai.Passage) (string, float64) {
	gen, err := s.generator.Generate(ctx, message, passages)
	if err != nil {
		s.logger.Warn("generation degraded", zap.Error(err))
		return fallbackResponse, 0
	}
	return gen.Text, gen.Confidence
}

func linkURLs(links []Link) []string {
	urls := make([]string, len(links))
	for i, l := range links {
		urls[i] = l.URL
	}
	return urls
}
