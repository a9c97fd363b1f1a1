package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-assistant/internal/config"
	"github.com/spec-kit/support-assistant/internal/domain"
	"github.com/spec-kit/support-assistant/internal/escalation"
	"github.com/spec-kit/support-assistant/internal/events"
	"github.com/spec-kit/support-assistant/internal/guard"
	"github.com/spec-kit/support-assistant/pkg/util"
)

var contactTokenPattern = regexp.MustCompile(`^[0-9a-f]{16}$`)

type socialFixture struct {
	svc        *SocialService
	convs      *fakeConversationRepo
	msgs       *fakeMessageRepo
	posts      *fakePostRepo
	tickets    *fakeTicketRepo
	classifier *fakeClassifier
	client     *fakeSocialClient
	recorder   *eventRecorder
}

func newSocialFixture(t *testing.T, maxReplies int) *socialFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	dispatcher := events.NewInMemoryDispatcher()
	normalizer, evaluator, ranker := newPolicy(t)

	fx := &socialFixture{
		convs:      newFakeConversationRepo(),
		msgs:       &fakeMessageRepo{},
		posts:      newFakePostRepo(),
		tickets:    newFakeTicketRepo(),
		classifier: &fakeClassifier{raw: escalation.RawSignal{IntentLabel: "technique", Confidence: 0.9, Sentiment: 0.1}},
		client:     &fakeSocialClient{},
		recorder:   newEventRecorder(dispatcher),
	}
	ticketSvc := NewTicketService(TicketDependencies{
		TicketRepo: fx.tickets,
		ChangeRepo: &fakeChangeRepo{},
		AgentRepo:  newFakeAgentRepo(),
		Dispatcher: dispatcher,
	})
	fx.svc = NewSocialService(SocialDependencies{
		ConversationRepo: fx.convs,
		MessageRepo:      fx.msgs,
		PostRepo:         fx.posts,
		Tickets:          ticketSvc,
		Classifier:       fx.classifier,
		Normalizer:       normalizer,
		Evaluator:        evaluator,
		Ranker:           ranker,
		Client:           fx.client,
		Dedup:            guard.NewDedupSet(rdb, 24*time.Hour),
		Limiter:          guard.NewReplyLimiter(rdb, maxReplies, time.Hour),
		Dispatcher:       dispatcher,
		Config: config.SocialConfig{
			Hashtags:       []string{"freemobile", "free_mobile"},
			ContactBaseURL: "https://chat.example.com/c/",
		},
	})
	return fx
}

func complaintPost(id, author string) domain.SocialPost {
	return domain.SocialPost{
		ID:       id,
		Author:   author,
		Content:  "Plainte : réseau en panne depuis 3 jours #freemobile",
		URL:      "https://mastodon.example/@" + author + "/" + id,
		Hashtags: []string{"freemobile"},
		PostedAt: time.Now().UTC(),
	}
}

func TestHandleSocialPostEscalatesAndReplies(t *testing.T) {
	fx := newSocialFixture(t, 2)
	fx.classifier.raw = escalation.RawSignal{
		IntentLabel: "technique",
		Confidence:  0.9,
		Sentiment:   -0.4,
		Keywords:    []string{"plainte"},
	}

	outcome, err := fx.svc.HandleSocialPost(context.Background(), complaintPost("110001", "jean"))
	require.NoError(t, err)

	assert.False(t, outcome.Skipped)
	assert.True(t, outcome.Escalated)
	assert.True(t, outcome.Replied)
	require.NotNil(t, outcome.Ticket)
	require.NotNil(t, outcome.Priority)
	assert.Equal(t, domain.TicketPriorityMedium, *outcome.Priority)
	assert.Regexp(t, contactTokenPattern, outcome.ContactToken)

	assert.Equal(t, []string{"110001"}, fx.client.replies())

	conv, err := fx.convs.GetByID(context.Background(), outcome.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, "social:jean", conv.CustomerRef)
	assert.Equal(t, domain.ChannelSocial, conv.Channel)
	assert.Equal(t, domain.ConversationStatusEscalated, conv.Status)
	require.NotNil(t, conv.ContextToken)
	assert.Equal(t, outcome.ContactToken, *conv.ContextToken)

	msgs, err := fx.msgs.ListByConversation(context.Background(), outcome.ConversationID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.RoleCustomer, msgs[0].Role)
	assert.Equal(t, "110001", msgs[0].Metadata["post_id"])
	assert.Equal(t, domain.RoleAssistant, msgs[1].Role)
	assert.Contains(t, msgs[1].Content, "@jean")
	assert.Contains(t, msgs[1].Content, "https://chat.example.com/c/"+outcome.ContactToken)

	record, err := fx.posts.GetByPostID(context.Background(), "110001")
	require.NoError(t, err)
	assert.True(t, record.Escalated)
	assert.True(t, record.Replied)
	assert.Equal(t, []string{"freemobile"}, record.Hashtags)
	require.NotNil(t, record.TicketID)
	assert.Equal(t, outcome.Ticket.ID, *record.TicketID)
	require.NotNil(t, record.ContactToken)
	assert.Equal(t, outcome.ContactToken, *record.ContactToken)

	sent := fx.recorder.ofType(events.EventSocialReplySent)
	require.Len(t, sent, 1)
	payload, ok := sent[0].Payload.(events.SocialReplySentPayload)
	require.True(t, ok)
	assert.Equal(t, "110001", payload.PostID)
	assert.Equal(t, outcome.ContactToken, payload.ContactToken)
}

func TestHandleSocialPostDedupSkipsReplay(t *testing.T) {
	fx := newSocialFixture(t, 2)
	fx.classifier.raw = escalation.RawSignal{
		IntentLabel: "technique",
		Confidence:  0.9,
		Sentiment:   -0.4,
		Keywords:    []string{"plainte"},
	}
	post := complaintPost("110002", "jean")

	first, err := fx.svc.HandleSocialPost(context.Background(), post)
	require.NoError(t, err)
	require.False(t, first.Skipped)

	second, err := fx.svc.HandleSocialPost(context.Background(), post)
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Equal(t, "already processed", second.SkipReason)

	assert.Equal(t, 1, fx.tickets.count())
	assert.Len(t, fx.client.replies(), 1)
}

func TestHandleSocialPostIgnoresUnwatchedHashtags(t *testing.T) {
	fx := newSocialFixture(t, 2)

	post := complaintPost("110003", "jean")
	post.Hashtags = []string{"randonnee", "photo"}

	outcome, err := fx.svc.HandleSocialPost(context.Background(), post)
	require.NoError(t, err)
	assert.True(t, outcome.Skipped)
	assert.Equal(t, "no watched hashtag", outcome.SkipReason)
	assert.Equal(t, 0, fx.tickets.count())
	assert.Empty(t, fx.client.replies())
}

func TestHandleSocialPostHashtagMatchIsCaseAndPrefixInsensitive(t *testing.T) {
	fx := newSocialFixture(t, 2)
	fx.classifier.raw = escalation.RawSignal{
		IntentLabel: "technique",
		Confidence:  0.9,
		Sentiment:   -0.4,
		Keywords:    []string{"plainte"},
	}

	post := complaintPost("110004", "jean")
	post.Hashtags = []string{"#FreeMobile"}

	outcome, err := fx.svc.HandleSocialPost(context.Background(), post)
	require.NoError(t, err)
	assert.False(t, outcome.Skipped)

	record, err := fx.posts.GetByPostID(context.Background(), "110004")
	require.NoError(t, err)
	assert.Equal(t, []string{"freemobile"}, record.Hashtags)
}

func TestHandleSocialPostReplyCapSuppressesSecondReply(t *testing.T) {
	fx := newSocialFixture(t, 1)
	fx.classifier.raw = escalation.RawSignal{
		IntentLabel: "technique",
		Confidence:  0.9,
		Sentiment:   -0.4,
		Keywords:    []string{"plainte"},
	}

	first, err := fx.svc.HandleSocialPost(context.Background(), complaintPost("110005", "jean"))
	require.NoError(t, err)
	assert.True(t, first.Replied)

	second, err := fx.svc.HandleSocialPost(context.Background(), complaintPost("110006", "jean"))
	require.NoError(t, err)

	// suppression is policy: everything else still happens
	assert.False(t, second.Skipped)
	assert.True(t, second.Escalated)
	assert.False(t, second.Replied)
	require.NotNil(t, second.Ticket)
	assert.NotEmpty(t, second.ContactToken)

	assert.Equal(t, []string{"110005"}, fx.client.replies())

	record, err := fx.posts.GetByPostID(context.Background(), "110006")
	require.NoError(t, err)
	assert.True(t, record.Escalated)
	assert.False(t, record.Replied)
	require.NotNil(t, record.TicketID)
}

func TestHandleSocialPostCleanPostJustRecords(t *testing.T) {
	fx := newSocialFixture(t, 2)

	post := complaintPost("110007", "lea")
	post.Content = "Très bon débit aujourd'hui #freemobile"

	outcome, err := fx.svc.HandleSocialPost(context.Background(), post)
	require.NoError(t, err)

	assert.False(t, outcome.Skipped)
	assert.False(t, outcome.Escalated)
	assert.False(t, outcome.Replied)
	assert.Nil(t, outcome.Ticket)
	assert.Empty(t, outcome.ContactToken)
	assert.Equal(t, 0, fx.tickets.count())
	assert.Empty(t, fx.client.replies())

	record, err := fx.posts.GetByPostID(context.Background(), "110007")
	require.NoError(t, err)
	assert.False(t, record.Escalated)
	assert.Nil(t, record.TicketID)

	conv, err := fx.convs.GetByID(context.Background(), outcome.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, domain.ConversationStatusActive, conv.Status)
	assert.Nil(t, conv.ContextToken)
}

func TestHandleSocialPostReplyFailureDoesNotFailPipeline(t *testing.T) {
	fx := newSocialFixture(t, 2)
	fx.classifier.raw = escalation.RawSignal{
		IntentLabel: "technique",
		Confidence:  0.9,
		Sentiment:   -0.4,
		Keywords:    []string{"plainte"},
	}
	fx.client.err = errors.New("platform returned status 503")

	outcome, err := fx.svc.HandleSocialPost(context.Background(), complaintPost("110008", "jean"))
	require.NoError(t, err)

	assert.True(t, outcome.Escalated)
	assert.False(t, outcome.Replied)
	require.NotNil(t, outcome.Ticket)

	record, err := fx.posts.GetByPostID(context.Background(), "110008")
	require.NoError(t, err)
	assert.False(t, record.Replied)

	assert.Empty(t, fx.recorder.ofType(events.EventSocialReplySent))
}

func TestHandleSocialPostRequiresIDAndAuthor(t *testing.T) {
	fx := newSocialFixture(t, 2)

	_, err := fx.svc.HandleSocialPost(context.Background(), domain.SocialPost{Author: "jean"})
	assert.True(t, util.IsCode(err, util.CodeValidationFailed))

	_, err = fx.svc.HandleSocialPost(context.Background(), domain.SocialPost{ID: "110009"})
	assert.True(t, util.IsCode(err, util.CodeValidationFailed))
}
