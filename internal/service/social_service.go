package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-assistant/internal/config"
	"github.com/spec-kit/support-assistant/internal/domain"
	"github.com/spec-kit/support-assistant/internal/escalation"
	"github.com/spec-kit/support-assistant/internal/events"
	"github.com/spec-kit/support-assistant/internal/guard"
	"github.com/spec-kit/support-assistant/internal/observability"
	"github.com/spec-kit/support-assistant/internal/repository"
	"github.com/spec-kit/support-assistant/pkg/util"
)

// SocialService turns watched public posts into conversations, tickets
// and rate-limited public replies.
type SocialService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	posts         repository.SocialPostRepository
	tickets       *TicketService
	classifier    Classifier
	normalizer    *escalation.Normalizer
	evaluator     *escalation.Evaluator
	ranker        *escalation.Ranker
	client        SocialClient
	dedup         *guard.DedupSet
	limiter       *guard.ReplyLimiter
	dispatcher    events.Dispatcher
	cfg           config.SocialConfig
	logger        *zap.Logger
	now           func() time.Time
}

// SocialDependencies bundles collaborators for the social processor.
type SocialDependencies struct {
	ConversationRepo repository.ConversationRepository
	MessageRepo      repository.MessageRepository
	PostRepo         repository.SocialPostRepository
	Tickets          *TicketService
	Classifier       Classifier
	Normalizer       *escalation.Normalizer
	Evaluator        *escalation.Evaluator
	Ranker           *escalation.Ranker
	Client           SocialClient
	Dedup            *guard.DedupSet
	Limiter          *guard.ReplyLimiter
	Dispatcher       events.Dispatcher
	Config           config.SocialConfig
	Logger           *zap.Logger
}

// SocialOutcome reports what handling one post produced.
type SocialOutcome struct {
	Skipped        bool
	SkipReason     string
	ConversationID string
	Escalated      bool
	Priority       *domain.TicketPriority
	Ticket         *domain.Ticket
	Replied        bool
	ContactToken   string
}

// NewSocialService constructs the processor.
func NewSocialService(deps SocialDependencies) *SocialService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SocialService{
		conversations: deps.ConversationRepo,
		messages:      deps.MessageRepo,
		posts:         deps.PostRepo,
		tickets:       deps.Tickets,
		classifier:    deps.Classifier,
		normalizer:    deps.Normalizer,
		evaluator:     deps.Evaluator,
		ranker:        deps.Ranker,
		client:        deps.Client,
		dedup:         deps.Dedup,
		limiter:       deps.Limiter,
		dispatcher:    deps.Dispatcher,
		cfg:           deps.Config,
		logger:        logger,
		now:           time.Now,
	}
}

// HandleSocialPost processes one public post end to end: replay guard,
// complaint signal, escalation, ticket, rate-limited public reply,
// bookkeeping. Reply suppression is policy, never an error.
func (s *SocialService) HandleSocialPost(ctx context.Context, post domain.SocialPost) (*SocialOutcome, error) {
	if post.ID == "" || post.Author == "" {
		return nil, util.NewValidationError("post id and author are required", nil)
	}

	seen, err := s.dedup.Seen(ctx, post.ID)
	if err != nil {
		// Fall through: the active-ticket check still prevents double
		// ticketing, only the reply could repeat.
		s.logger.Warn("dedup check degraded", zap.String("post_id", post.ID), zap.Error(err))
	}
	if seen {
		observability.SocialPosts.WithLabelValues(observability.OutcomeDuplicate).Inc()
		return &SocialOutcome{Skipped: true, SkipReason: "already processed"}, nil
	}

	matched := s.matchedHashtags(post.Hashtags)
	if len(matched) == 0 {
		observability.SocialPosts.WithLabelValues(observability.OutcomeIgnored).Inc()
		return &SocialOutcome{Skipped: true, SkipReason: "no watched hashtag"}, nil
	}

	started := s.now()
	defer func() {
		observability.TurnDuration.WithLabelValues(string(domain.ChannelSocial)).Observe(s.now().Sub(started).Seconds())
	}()
	observability.TurnsProcessed.WithLabelValues(string(domain.ChannelSocial)).Inc()

	conv, err := s.conversationFor(ctx, post)
	if err != nil {
		return nil, err
	}
	if _, err := s.appendPostMessage(ctx, conv.ID, post); err != nil {
		return nil, err
	}

	raw, err := s.classifier.Classify(ctx, post.Content)
	if err != nil {
		s.logger.Warn("classifier degraded", zap.String("post_id", post.ID), zap.Error(err))
		raw = escalation.RawSignal{}
	}

	sig := s.normalizer.Normalize(raw, domain.ChannelSocial, "social:"+post.ID)
	convCtx := domain.ConversationContext{
		ConversationID:   conv.ID,
		CustomerRef:      conv.CustomerRef,
		VIP:              conv.VIP,
		PriorEscalations: conv.PriorEscalations,
	}
	decision := s.evaluator.Evaluate(sig, convCtx)

	outcome := &SocialOutcome{ConversationID: conv.ID, Escalated: decision.Escalate}

	if decision.Escalate {
		for _, reason := range decision.Reasons {
			observability.EscalationsDecided.WithLabelValues(string(domain.ChannelSocial), string(reason)).Inc()
		}
		priority := s.ranker.Rank(decision, sig, convCtx)
		outcome.Priority = &priority

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
		outcome.Ticket = ticket

		publish(ctx, s.dispatcher, events.Event{
			Type:           events.EventEscalationDecided,
			ConversationID: conv.ID,
			Actor:          SystemActor(),
			Payload: events.EscalationDecidedPayload{
				Channel:  domain.ChannelSocial,
				Reasons:  decision.Reasons,
				Priority: priority,
			},
		})

		token := contactToken(post.Author, post.ID, s.now())
		outcome.ContactToken = token
		conv.ContextToken = &token
		conv.Status = domain.ConversationStatusEscalated
		conv.PriorEscalations++

		outcome.Replied = s.reply(ctx, conv.ID, post, token)
	}

	if err := s.conversations.SaveSignal(ctx, conv.ID, sig); err != nil {
		return nil, err
	}
	if err := s.conversations.Update(ctx, conv); err != nil {
		return nil, err
	}
	if err := s.recordPost(ctx, post, matched, outcome); err != nil {
		return nil, err
	}

	observability.SocialPosts.WithLabelValues(observability.OutcomeProcessed).Inc()
	return outcome, nil
}

// ListProcessed returns processed post bookkeeping, newest first.
func (s *SocialService) ListProcessed(ctx context.Context, limit, offset int) ([]domain.ProcessedPost, error) {
	return s.posts.ListRecent(ctx, limit, offset)
}

// reply sends the public answer when the per-author cap admits it.
func (s *SocialService) reply(ctx context.Context, conversationID string, post domain.SocialPost, token string) bool {
	allowed, err := s.limiter.Allow(ctx, post.Author)
	if err != nil {
		// When the limiter cannot answer, stay quiet rather than spam.
		s.logger.Warn("reply limiter degraded", zap.String("author", post.Author), zap.Error(err))
		allowed = false
	}
	if !allowed {
		observability.SocialReplies.WithLabelValues(observability.OutcomeSuppressed).Inc()
		s.logger.Info("public reply suppressed",
			zap.String("author", post.Author),
			zap.String("post_id", post.ID))
		return false
	}

	text := s.composeReply(post.Author, token)
	if err := s.client.Reply(ctx, post.ID, text); err != nil {
		observability.SocialReplies.WithLabelValues(observability.OutcomeFailed).Inc()
		s.logger.Error("public reply failed", zap.String("post_id", post.ID), zap.Error(err))
		return false
	}

	observability.SocialReplies.WithLabelValues(observability.OutcomeSent).Inc()
	if _, err := s.appendMessage(ctx, conversationID, domain.RoleAssistant, text, map[string]any{"reply_to": post.ID}); err != nil {
		s.logger.Warn("reply transcript write failed", zap.Error(err))
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:           events.EventSocialReplySent,
		ConversationID: conversationID,
		Actor:          SystemActor(),
		Payload: events.SocialReplySentPayload{
			PostID:       post.ID,
			Author:       post.Author,
			ContactToken: token,
		},
	})
	return true
}

func (s *SocialService) composeReply(author, token string) string {
	link := strings.TrimRight(s.cfg.ContactBaseURL, "/") + "/" + token
	return fmt.Sprintf("@%s Bonjour, nous avons bien vu votre message et un conseiller va vous aider. "+
		"Vous pouvez poursuivre ici : %s", author, link)
}

func (s *SocialService) conversationFor(ctx context.Context, post domain.SocialPost) (*domain.Conversation, error) {
	conv, err := s.conversations.GetBySocialPost(ctx, post.ID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	author := post.Author
	postID := post.ID
	conv = &domain.Conversation{
		CustomerRef:  "social:" + author,
		Channel:      domain.ChannelSocial,
		Status:       domain.ConversationStatusActive,
		SocialAuthor: &author,
		SocialPostID: &postID,
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *SocialService) appendPostMessage(ctx context.Context, conversationID string, post domain.SocialPost) (*domain.Message, error) {
	meta := map[string]any{"post_id": post.ID}
	if post.URL != "" {
		meta["post_url"] = post.URL
	}
	return s.appendMessage(ctx, conversationID, domain.RoleCustomer, post.Content, meta)
}

func (s *SocialService) appendMessage(ctx context.Context, conversationID string, role domain.MessageRole, content string, meta map[string]any) (*domain.Message, error) {
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

func (s *SocialService) recordPost(ctx context.Context, post domain.SocialPost, matched []string, outcome *SocialOutcome) error {
	record := &domain.ProcessedPost{
		PostID:      post.ID,
		Author:      post.Author,
		Content:     post.Content,
		Hashtags:    matched,
		Escalated:   outcome.Escalated,
		Priority:    outcome.Priority,
		Replied:     outcome.Replied,
		ProcessedAt: s.now().UTC(),
	}
	if outcome.Ticket != nil {
		record.TicketID = &outcome.Ticket.ID
	}
	if outcome.ContactToken != "" {
		token := outcome.ContactToken
		record.ContactToken = &token
	}
	return s.posts.Create(ctx, record)
}

func (s *SocialService) matchedHashtags(tags []string) []string {
	watched := make(map[string]struct{}, len(s.cfg.Hashtags))
	for _, h := range s.cfg.Hashtags {
		watched[strings.ToLower(strings.TrimSpace(h))] = struct{}{}
	}
	var out []string
	for _, t := range tags {
		n := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(t, "#")))
		if _, ok := watched[n]; ok {
			out = append(out, n)
		}
	}
	return out
}

// contactToken derives the short reference a public reply carries, the
// customer's key back into this conversation from chat.
func contactToken(author, postID string, now time.Time) string {
	seed := fmt.Sprintf("%s:%s:%d:%s", author, postID, now.UnixNano(), uuid.NewString())
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])[:16]
}
