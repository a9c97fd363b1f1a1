package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-assistant/internal/ai"
	"github.com/spec-kit/support-assistant/internal/domain"
	"github.com/spec-kit/support-assistant/internal/escalation"
	"github.com/spec-kit/support-assistant/internal/events"
	"github.com/spec-kit/support-assistant/internal/repository"
)

// In-memory repository fakes. Each call takes the fake's own lock only,
// so the services' keyed locks stay the sole serialization between a
// lookup and the write that depends on it, exactly as with postgres.

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]domain.Ticket
	order   []string
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]domain.Ticket)}
}

func (f *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = time.Now().UTC()
	ticket.UpdatedAt = ticket.CreatedAt
	f.tickets[ticket.ID] = *ticket
	f.order = append(f.order, ticket.ID)
	return nil
}

func (f *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now().UTC()
	f.tickets[ticket.ID] = *ticket
	return nil
}

func (f *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ticket, nil
}

func (f *fakeTicketRepo) GetByExternalKey(_ context.Context, key string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.order {
		if t := f.tickets[id]; t.ExternalKey == key {
			return &t, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTicketRepo) FindActiveByConversation(_ context.Context, conversationID string) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Ticket
	for _, id := range f.order {
		t := f.tickets[id]
		if t.ConversationID == conversationID && t.Status.Active() {
			result = append(result, t)
		}
	}
	return result, nil
}

func (f *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Ticket
	for _, id := range f.order {
		t := f.tickets[id]
		if filter.ConversationID != nil && t.ConversationID != *filter.ConversationID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, t.Status) {
			continue
		}
		result = append(result, t)
	}
	return result, nil
}

func (f *fakeTicketRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tickets)
}

func containsStatus(statuses []domain.TicketStatus, s domain.TicketStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

type fakeChangeRepo struct {
	mu      sync.Mutex
	changes []domain.StatusChange
}

func (f *fakeChangeRepo) Create(_ context.Context, change *domain.StatusChange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	change.ID = uuid.NewString()
	f.changes = append(f.changes, *change)
	return nil
}

func (f *fakeChangeRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.StatusChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.StatusChange
	for _, c := range f.changes {
		if c.TicketID == ticketID {
			result = append(result, c)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].At.Before(result[j].At) })
	return result, nil
}

func (f *fakeChangeRepo) LatestByTicket(_ context.Context, ticketID string) (*domain.StatusChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *domain.StatusChange
	for i := range f.changes {
		c := f.changes[i]
		if c.TicketID != ticketID {
			continue
		}
		if latest == nil || !c.At.Before(latest.At) {
			latest = &c
		}
	}
	return latest, nil
}

type fakeAgentRepo struct {
	mu     sync.Mutex
	agents map[string]domain.Agent
}

func newFakeAgentRepo() *fakeAgentRepo {
	return &fakeAgentRepo{agents: make(map[string]domain.Agent)}
}

func (f *fakeAgentRepo) Create(_ context.Context, agent *domain.Agent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	agent.ID = uuid.NewString()
	agent.CreatedAt = time.Now().UTC()
	f.agents[agent.ID] = *agent
	return nil
}

func (f *fakeAgentRepo) Update(_ context.Context, agent *domain.Agent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.agents[agent.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.agents[agent.ID] = *agent
	return nil
}

func (f *fakeAgentRepo) GetByID(_ context.Context, id string) (*domain.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	agent, ok := f.agents[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &agent, nil
}

func (f *fakeAgentRepo) GetByEmail(_ context.Context, email string) (*domain.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, agent := range f.agents {
		if agent.Email == email {
			a := agent
			return &a, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeAgentRepo) List(_ context.Context, filter repository.AgentFilter) ([]domain.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Agent
	for _, agent := range f.agents {
		if filter.Active != nil && agent.Active != *filter.Active {
			continue
		}
		result = append(result, agent)
	}
	return result, nil
}

type fakeConversationRepo struct {
	mu      sync.Mutex
	convs   map[string]domain.Conversation
	order   []string
	signals map[string][]domain.EscalationSignal
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		convs:   make(map[string]domain.Conversation),
		signals: make(map[string][]domain.EscalationSignal),
	}
}

func (f *fakeConversationRepo) Create(_ context.Context, conv *domain.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv.ID = uuid.NewString()
	conv.CreatedAt = time.Now().UTC()
	conv.UpdatedAt = conv.CreatedAt
	f.convs[conv.ID] = *conv
	f.order = append(f.order, conv.ID)
	return nil
}

func (f *fakeConversationRepo) Update(_ context.Context, conv *domain.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.convs[conv.ID]; !ok {
		return pgx.ErrNoRows
	}
	conv.UpdatedAt = time.Now().UTC()
	f.convs[conv.ID] = *conv
	return nil
}

func (f *fakeConversationRepo) GetByID(_ context.Context, id string) (*domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.convs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &conv, nil
}

func (f *fakeConversationRepo) GetByContextToken(_ context.Context, token string) (*domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.order {
		c := f.convs[id]
		if c.ContextToken != nil && *c.ContextToken == token {
			return &c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeConversationRepo) GetBySocialPost(_ context.Context, postID string) (*domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.order {
		c := f.convs[id]
		if c.SocialPostID != nil && *c.SocialPostID == postID {
			return &c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeConversationRepo) SaveSignal(_ context.Context, conversationID string, sig domain.EscalationSignal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signals[conversationID] = append(f.signals[conversationID], sig)
	return nil
}

func (f *fakeConversationRepo) ListSignals(_ context.Context, conversationID string) ([]domain.EscalationSignal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.EscalationSignal{}, f.signals[conversationID]...), nil
}

type fakeMessageRepo struct {
	mu   sync.Mutex
	msgs []domain.Message
}

func (f *fakeMessageRepo) Create(_ context.Context, msg *domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.ID = uuid.NewString()
	msg.CreatedAt = time.Now().UTC()
	f.msgs = append(f.msgs, *msg)
	return nil
}

func (f *fakeMessageRepo) ListByConversation(_ context.Context, conversationID string) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Message
	for _, m := range f.msgs {
		if m.ConversationID == conversationID {
			result = append(result, m)
		}
	}
	return result, nil
}

type fakePostRepo struct {
	mu    sync.Mutex
	posts map[string]domain.ProcessedPost
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[string]domain.ProcessedPost)}
}

func (f *fakePostRepo) Create(_ context.Context, post *domain.ProcessedPost) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.posts[post.PostID]; ok {
		post.ID = existing.ID
	} else {
		post.ID = uuid.NewString()
	}
	f.posts[post.PostID] = *post
	return nil
}

func (f *fakePostRepo) GetByPostID(_ context.Context, postID string) (*domain.ProcessedPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[postID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &post, nil
}

func (f *fakePostRepo) ListRecent(_ context.Context, limit, offset int) ([]domain.ProcessedPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.ProcessedPost
	for _, post := range f.posts {
		result = append(result, post)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ProcessedAt.After(result[j].ProcessedAt) })
	return result, nil
}

// Collaborator fakes.

type fakeClassifier struct {
	mu    sync.Mutex
	raw   escalation.RawSignal
	err   error
	calls int
}

func (f *fakeClassifier) Classify(context.Context, string) (escalation.RawSignal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.raw, f.err
}

func (f *fakeClassifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRetriever struct {
	passages []ai.Passage
	err      error
}

func (f *fakeRetriever) Retrieve(context.Context, string) ([]ai.Passage, error) {
	return f.passages, f.err
}

type fakeGenerator struct {
	gen ai.Generation
	err error
}

func (f *fakeGenerator) Generate(context.Context, string, []ai.Passage) (ai.Generation, error) {
	return f.gen, f.err
}

type fakeSocialClient struct {
	mu      sync.Mutex
	posts   []domain.SocialPost
	replyTo []string
	err     error
}

func (f *fakeSocialClient) SearchHashtag(context.Context, string, string) ([]domain.SocialPost, error) {
	return f.posts, f.err
}

func (f *fakeSocialClient) Reply(_ context.Context, postID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.replyTo = append(f.replyTo, postID)
	return nil
}

func (f *fakeSocialClient) replies() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.replyTo...)
}

// eventRecorder captures every published event for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func newEventRecorder(dispatcher events.Dispatcher) *eventRecorder {
	r := &eventRecorder{}
	for _, t := range events.AllEventTypes {
		dispatcher.Subscribe(t, r.capture)
	}
	return r
}

func (r *eventRecorder) capture(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) ofType(t events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []events.Event
	for _, e := range r.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}
