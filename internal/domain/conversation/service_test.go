package conversation_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helpdesk/services/conversation-api/internal/domain/conversation"
	"helpdesk/services/conversation-api/internal/domain/status"
	"helpdesk/services/conversation-api/internal/infrastructure/convlock"
	"helpdesk/services/conversation-api/internal/infrastructure/mutestore"
	"helpdesk/services/conversation-api/internal/utils/platformerrors"
)

// ---- fakes ----

type fakeRepo struct {
	conversations map[uint]*conversation.Conversation
	accounts      map[uint]*conversation.Account
	inboxes       map[uint]*conversation.Inbox
	activities    []*conversation.Activity
	messages      []*conversation.Message
	nextID        uint
	sequences     map[uint]int64
	deleted       []uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		conversations: make(map[uint]*conversation.Conversation),
		accounts:      make(map[uint]*conversation.Account),
		inboxes:       make(map[uint]*conversation.Inbox),
		sequences:     make(map[uint]int64),
	}
}

func (r *fakeRepo) Create(ctx context.Context, conv *conversation.Conversation) error {
	r.nextID++
	conv.ID = r.nextID
	r.sequences[conv.AccountID]++
	conv.DisplayID = r.sequences[conv.AccountID]
	conv.CreatedAt = time.Now().UTC()
	r.conversations[conv.ID] = conv
	return nil
}

func (r *fakeRepo) FindByID(ctx context.Context, id uint) (*conversation.Conversation, error) {
	conv, ok := r.conversations[id]
	if !ok {
		return nil, platformerrors.Newf(platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation %d not found", id)
	}
	return conv, nil
}

func (r *fakeRepo) Update(ctx context.Context, conv *conversation.Conversation) error {
	r.conversations[conv.ID] = conv
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, id uint) error {
	delete(r.conversations, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeRepo) AppendActivity(ctx context.Context, entry *conversation.Activity) error {
	r.activities = append(r.activities, entry)
	return nil
}

func (r *fakeRepo) AppendMessage(ctx context.Context, msg *conversation.Message) error {
	r.messages = append(r.messages, msg)
	if conv, ok := r.conversations[msg.ConversationID]; ok {
		conv.Messages = append(conv.Messages, *msg)
	}
	return nil
}

func (r *fakeRepo) ListActivities(ctx context.Context, conversationID uint) ([]*conversation.Activity, error) {
	var out []*conversation.Activity
	for _, a := range r.activities {
		if a.ConversationID == conversationID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeRepo) FindAccount(ctx context.Context, id uint) (*conversation.Account, error) {
	acc, ok := r.accounts[id]
	if !ok {
		return nil, platformerrors.Newf(platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "account %d not found", id)
	}
	return acc, nil
}

func (r *fakeRepo) FindInbox(ctx context.Context, id uint) (*conversation.Inbox, error) {
	inbox, ok := r.inboxes[id]
	if !ok {
		return nil, platformerrors.Newf(platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "inbox %d not found", id)
	}
	return inbox, nil
}

func (r *fakeRepo) ListAutoResolveCandidates(ctx context.Context, now time.Time, limit int) ([]uint, error) {
	return nil, nil
}

func (r *fakeRepo) activityContents(conversationID uint) []string {
	var out []string
	for _, a := range r.activities {
		if a.ConversationID == conversationID {
			out = append(out, a.Content)
		}
	}
	return out
}

type fakeAgents struct {
	agents  map[uint]*conversation.Agent
	members map[uint][]conversation.Agent
}

func (f *fakeAgents) FindByID(ctx context.Context, id uint) (*conversation.Agent, error) {
	agent, ok := f.agents[id]
	if !ok {
		return nil, platformerrors.Newf(platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "agent %d not found", id)
	}
	return agent, nil
}

func (f *fakeAgents) InboxMembers(ctx context.Context, inboxID uint) ([]conversation.Agent, error) {
	return f.members[inboxID], nil
}

type submission struct {
	conversationID uint
	delay          time.Duration
}

type fakeScheduler struct {
	submitted []submission
}

func (f *fakeScheduler) Submit(ctx context.Context, conversationID uint, delay time.Duration) error {
	f.submitted = append(f.submitted, submission{conversationID, delay})
	return nil
}

type fakeDispatcher struct {
	events []string
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, name string, at time.Time, conv *conversation.Conversation) {
	f.events = append(f.events, name)
}

func (f *fakeDispatcher) has(name string) bool {
	for _, e := range f.events {
		if e == name {
			return true
		}
	}
	return false
}

// ---- harness ----

type harness struct {
	svc        conversation.Service
	repo       *fakeRepo
	agents     *fakeAgents
	store      *mutestore.MemoryStore
	scheduler  *fakeScheduler
	dispatcher *fakeDispatcher
}

func newHarness() *harness {
	repo := newFakeRepo()
	repo.accounts[1] = &conversation.Account{ID: 1, Name: "Acme", AutoResolveDuration: 0}
	repo.accounts[2] = &conversation.Account{ID: 2, Name: "Globex", AutoResolveDuration: 5}
	repo.inboxes[10] = &conversation.Inbox{ID: 10, AccountID: 1, Name: "Support", Channel: "web_widget"}
	repo.inboxes[11] = &conversation.Inbox{ID: 11, AccountID: 1, Name: "Bot", Channel: "web_widget", BotEnabled: true}
	repo.inboxes[20] = &conversation.Inbox{ID: 20, AccountID: 2, Name: "Sales", Channel: "email"}

	agents := &fakeAgents{
		agents: map[uint]*conversation.Agent{
			100: {ID: 100, Name: "Riley", Role: "agent", Available: true},
			101: {ID: 101, Name: "Jordan", Role: "agent", Available: true},
		},
		members: map[uint][]conversation.Agent{},
	}

	h := &harness{
		repo:       repo,
		agents:     agents,
		store:      mutestore.NewMemoryStore(),
		scheduler:  &fakeScheduler{},
		dispatcher: &fakeDispatcher{},
	}
	h.svc = conversation.NewService(repo, agents, h.store, convlock.NewMemoryLocker(), h.dispatcher, h.scheduler, zerolog.Nop())
	return h
}

func (h *harness) create(t *testing.T, accountID, inboxID uint) *conversation.Conversation {
	t.Helper()
	conv, err := h.svc.Create(context.Background(), conversation.CreateParams{AccountID: accountID, InboxID: inboxID}, actor("Sam"))
	require.NoError(t, err)
	return conv
}

func actor(name string) conversation.Actor {
	id := uint(1)
	return conversation.Actor{ID: &id, Name: name}
}

func statusPtr(s status.Status) *status.Status { return &s }

// ---- tests ----

func TestCreate_Defaults(t *testing.T) {
	h := newHarness()
	conv := h.create(t, 1, 10)

	assert.Equal(t, status.StatusOpen, conv.Status)
	assert.NotEmpty(t, conv.UUID)
	assert.Equal(t, int64(1), conv.DisplayID)
	assert.True(t, h.dispatcher.has(conversation.EventConversationCreated))
	assert.Empty(t, h.scheduler.submitted, "auto-resolve must not be scheduled for a disabled account")
}

func TestCreate_UUIDCanonicalAndImmutable(t *testing.T) {
	h := newHarness()
	conv := h.create(t, 1, 10)

	parsed, err := uuid.Parse(conv.UUID)
	require.NoError(t, err, "uuid must be canonical")
	assert.Equal(t, parsed.String(), conv.UUID)

	updated, err := h.svc.Update(context.Background(), conv.ID, conversation.UpdateParams{Status: statusPtr(status.StatusResolved)}, actor("Sam"))
	require.NoError(t, err)
	assert.Equal(t, conv.UUID, updated.UUID, "uuid must survive update cycles")
}

func TestCreate_BotInboxStartsPending(t *testing.T) {
	h := newHarness()
	conv := h.create(t, 1, 11)
	assert.Equal(t, status.StatusPending, conv.Status)
}

func TestCreate_DisplayIDsArePerAccount(t *testing.T) {
	h := newHarness()
	first := h.create(t, 1, 10)
	second := h.create(t, 1, 10)
	other := h.create(t, 2, 20)

	assert.Equal(t, int64(1), first.DisplayID)
	assert.Equal(t, int64(2), second.DisplayID)
	assert.Equal(t, int64(1), other.DisplayID)
}

func TestCreate_SchedulesAutoResolveWhenEnabled(t *testing.T) {
	h := newHarness()
	conv := h.create(t, 2, 20)

	require.Len(t, h.scheduler.submitted, 1)
	assert.Equal(t, conv.ID, h.scheduler.submitted[0].conversationID)
	assert.Equal(t, 5*24*time.Hour, h.scheduler.submitted[0].delay)
}

func TestCreate_RejectsForeignInbox(t *testing.T) {
	h := newHarness()
	_, err := h.svc.Create(context.Background(), conversation.CreateParams{AccountID: 1, InboxID: 20}, actor("Sam"))
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeValidation))
}

func TestUpdate_ResolveRecordsActivityAndEvent(t *testing.T) {
	h := newHarness()
	conv := h.create(t, 1, 10)

	updated, err := h.svc.Update(context.Background(), conv.ID, conversation.UpdateParams{Status: statusPtr(status.StatusResolved)}, actor("Sam"))
	require.NoError(t, err)

	assert.Equal(t, status.StatusResolved, updated.Status)
	assert.Contains(t, h.repo.activityContents(conv.ID), "Conversation was marked resolved by Sam")
	assert.True(t, h.dispatcher.has(conversation.EventConversationResolved))
}

func TestUpdate_SameStatusIsNoOp(t *testing.T) {
	h := newHarness()
	conv := h.create(t, 1, 10)

	_, err := h.svc.Update(context.Background(), conv.ID, conversation.UpdateParams{Status: statusPtr(status.StatusOpen)}, actor("Sam"))
	require.NoError(t, err)

	assert.Empty(t, h.repo.activityContents(conv.ID))
	assert.False(t, h.dispatcher.has(conversation.EventConversationResolved))
}

func TestUpdate_ReopenReschedulesAutoResolve(t *testing.T) {
	h := newHarness()
	conv := h.create(t, 2, 20)
	h.scheduler.submitted = nil

	_, err := h.svc.Update(context.Background(), conv.ID, conversation.UpdateParams{Status: statusPtr(status.StatusResolved)}, actor("Sam"))
	require.NoError(t, err)
	require.Empty(t, h.scheduler.submitted)

	_, err = h.svc.Update(context.Background(), conv.ID, conversation.UpdateParams{Status: statusPtr(status.StatusOpen)}, actor("Sam"))
	require.NoError(t, err)

	require.Len(t, h.scheduler.submitted, 1)
	assert.Equal(t, conv.ID, h.scheduler.submitted[0].conversationID)
}

func TestUpdate_AssigneeChange(t *testing.T) {
	h := newHarness()
	conv := h.create(t, 1, 10)

	id := uint(100)
	updated, err := h.svc.Update(context.Background(), conv.ID, conversation.UpdateParams{AssigneeID: &id}, actor("Sam"))
	require.NoError(t, err)

	require.NotNil(t, updated.AssigneeID)
	assert.Equal(t, uint(100), *updated.AssigneeID)
	assert.Contains(t, h.repo.activityContents(conv.ID), "Assigned to Riley by Sam")
	assert.True(t, h.dispatcher.has(conversation.EventAssigneeChanged))
}

func TestUpdate_SameAssigneeIsNoOp(t *testing.T) {
	h := newHarness()
	conv := h.create(t, 1, 10)
	id := uint(100)

	_, err := h.svc.Update(context.Background(), conv.ID, conversation.UpdateParams{AssigneeID: &id}, actor("Sam"))
	require.NoError(t, err)
	h.dispatcher.events = nil
	h.repo.activities = nil

	_, err = h.svc.Update(context.Background(), conv.ID, conversation.UpdateParams{AssigneeID: &id}, actor("Sam"))
	require.NoError(t, err)

	assert.Empty(t, h.repo.activities)
	assert.False(t, h.dispatcher.has(conversation.EventAssigneeChanged))
}

func TestUpdate_Unassign(t *testing.T) {
	h := newHarness()
	conv := h.create(t, 1, 10)
	id := uint(100)
	_, err := h.svc.Update(context.Background(), conv.ID, conversation.UpdateParams{AssigneeID: &id}, actor("Sam"))
	require.NoError(t, err)

	updated, err := h.svc.Update(context.Background(), conv.ID, conversation.UpdateParams{Unassign: true}, actor("Sam"))
	require.NoError(t, err)

	assert.Nil(t, updated.AssigneeID)
	assert.Contains(t, h.repo.activityContents(conv.ID), "Conversation unassigned by Sam")
}

func TestUpdate_UnknownAssigneeRejected(t *testing.T) {
	h := newHarness()
	conv := h.create(t, 1, 10)

	id := uint(999)
	_, err := h.svc.Update(context.Background(), conv.ID, conversation.UpdateParams{AssigneeID: &id}, actor("Sam"))
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeNotFound))
}

func TestUpdate_ContactSeenAtLatestMessageFiresReadEvent(t *testing.T) {
	h := newHarness()
	conv := h.create(t, 1, 10)
	_, err := h.svc.AppendMessage(context.Background(), conv.ID, conversation.DirectionOutgoing, "hello")
	require.NoError(t, err)

	seen := time.Now().UTC().Add(time.Second)
	_, err = h.svc.Update(context.Background(), conv.ID, conversation.UpdateParams{ContactLastSeenAt: &seen}, actor("Sam"))
	require.NoError(t, err)

	assert.True(t, h.dispatcher.has(conversation.EventConversationRead))
}

func TestUpdate_ContactSeenBeforeLatestMessageIsSilent(t *testing.T) {
	h := newHarness()
	conv := h.create(t, 1, 10)
	seen := time.Now().UTC().Add(-time.Minute)
	_, err := h.svc.AppendMessage(context.Background(), conv.ID, conversation.DirectionOutgoing, "hello")
	require.NoError(t, err)

	_, err = h.svc.Update(context.Background(), conv.ID, conversation.UpdateParams{ContactLastSeenAt: &seen}, actor("Sam"))
	require.NoError(t, err)

	assert.False(t, h.dispatcher.has(conversation.EventConversationRead))
}

func TestToggleStatus(t *testing.T) {
	h := newHarness()
	conv := h.create(t, 1, 10)

	toggled, err := h.svc.ToggleStatus(context.Background(), conv.ID, actor("Sam"))
	require.NoError(t, err)
	assert.Equal(t, status.StatusResolved, toggled.Status)

	toggled, err = h.svc.ToggleStatus(context.Background(), conv.ID, actor("Sam"))
	require.NoError(t, err)
	assert.Equal(t, status.StatusOpen, toggled.Status)
}

func TestToggleStatus_PendingIsRejected(t *testing.T) {
	h := newHarness()
	conv := h.create(t, 1, 11)

	_, err := h.svc.ToggleStatus(context.Background(), conv.ID, actor("Sam"))
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypePrecondition))
}

func TestToggleStatus_MissingContextRejected(t *testing.T) {
	h := newHarness()
	// A row without its account and inbox relations loaded cannot resolve.
	h.repo.conversations[77] = &conversation.Conversation{ID: 77, AccountID: 1, InboxID: 10, Status: status.StatusOpen}

	_, err := h.svc.ToggleStatus(context.Background(), 77, actor("Sam"))
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypePrecondition))
}

func TestMute_ResolvesAndFlags(t *testing.T) {
	h := newHarness()
	conv := h.create(t, 1, 10)

	require.NoError(t, h.svc.Mute(context.Background(), conv.ID, actor("Sam")))

	got, err := h.repo.FindByID(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, status.StatusResolved, got.Status)

	muted, err := h.svc.Muted(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.True(t, muted)

	contents := h.repo.activityContents(conv.ID)
	assert.Contains(t, contents, "Conversation was marked resolved by Sam")
	assert.Contains(t, contents, "Sam has muted the conversation")
}

func TestMute_AlreadyResolvedSkipsResolvePath(t *testing.T) {
	h := newHarness()
	conv := h.create(t, 1, 10)
	_, err := h.svc.ToggleStatus(context.Background(), conv.ID, actor("Sam"))
	require.NoError(t, err)
	h.dispatcher.events = nil

	require.NoError(t, h.svc.Mute(context.Background(), conv.ID, actor("Sam")))

	assert.False(t, h.dispatcher.has(conversation.EventConversationResolved))
	assert.Contains(t, h.repo.activityContents(conv.ID), "Sam has muted the conversation")
}

func TestUnmute_ClearsFlagOnly(t *testing.T) {
	h := newHarness()
	conv := h.create(t, 1, 10)
	require.NoError(t, h.svc.Mute(context.Background(), conv.ID, actor("Sam")))

	require.NoError(t, h.svc.Unmute(context.Background(), conv.ID, actor("Sam")))

	muted, err := h.svc.Muted(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.False(t, muted)

	got, err := h.repo.FindByID(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, status.StatusResolved, got.Status, "unmute must not reopen the conversation")
	assert.Contains(t, h.repo.activityContents(conv.ID), "Sam has unmuted the conversation")
}

func TestUpdateLabels_Delta(t *testing.T) {
	h := newHarness()
	conv := h.create(t, 1, 10)

	delta, err := h.svc.UpdateLabels(context.Background(), conv.ID, []string{"billing", "urgent"}, actor("Sam"))
	require.NoError(t, err)
	assert.Equal(t, []string{"billing", "urgent"}, delta.Added)
	assert.Empty(t, delta.Removed)
	assert.Contains(t, h.repo.activityContents(conv.ID), "Sam added billing, urgent")

	delta, err = h.svc.UpdateLabels(context.Background(), conv.ID, []string{"urgent", "vip"}, actor("Sam"))
	require.NoError(t, err)
	assert.Equal(t, []string{"vip"}, delta.Added)
	assert.Equal(t, []string{"billing"}, delta.Removed)

	contents := h.repo.activityContents(conv.ID)
	assert.Contains(t, contents, "Sam added vip")
	assert.Contains(t, contents, "Sam removed billing")
}

func TestUpdateLabels_Idempotent(t *testing.T) {
	h := newHarness()
	conv := h.create(t, 1, 10)
	_, err := h.svc.UpdateLabels(context.Background(), conv.ID, []string{"billing"}, actor("Sam"))
	require.NoError(t, err)
	before := len(h.repo.activities)

	delta, err := h.svc.UpdateLabels(context.Background(), conv.ID, []string{"billing"}, actor("Sam"))
	require.NoError(t, err)

	assert.Empty(t, delta.Added)
	assert.Empty(t, delta.Removed)
	assert.Len(t, h.repo.activities, before, "repeating the same label set must not add activity entries")
}

func TestAssignNext_RoundRobin(t *testing.T) {
	h := newHarness()
	h.agents.members[10] = []conversation.Agent{
		{ID: 100, Name: "Riley", Role: "agent", Available: true},
		{ID: 101, Name: "Jordan", Role: "agent", Available: true},
	}

	first := h.create(t, 1, 10)
	second := h.create(t, 1, 10)

	a, err := h.svc.AssignNext(context.Background(), first.ID, actor("Sam"))
	require.NoError(t, err)
	require.NotNil(t, a)

	b, err := h.svc.AssignNext(context.Background(), second.ID, actor("Sam"))
	require.NoError(t, err)
	require.NotNil(t, b)

	assert.NotEqual(t, a.ID, b.ID, "consecutive assignments must rotate across agents")
}

func TestAssignNext_NoEligibleAgents(t *testing.T) {
	h := newHarness()
	h.agents.members[10] = []conversation.Agent{
		{ID: 100, Name: "Riley", Role: "agent", Available: false},
		{ID: 102, Name: "Casey", Role: "administrator", Available: true},
	}
	conv := h.create(t, 1, 10)

	a, err := h.svc.AssignNext(context.Background(), conv.ID, actor("Sam"))
	require.NoError(t, err)
	assert.Nil(t, a)

	got, err := h.repo.FindByID(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AssigneeID)
}

func TestAppendMessage_BumpsLastActivity(t *testing.T) {
	h := newHarness()
	conv := h.create(t, 1, 10)
	before := conv.LastActivityAt

	time.Sleep(5 * time.Millisecond)
	msg, err := h.svc.AppendMessage(context.Background(), conv.ID, conversation.DirectionIncoming, "help please")
	require.NoError(t, err)
	require.NotNil(t, msg)

	got, err := h.repo.FindByID(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.True(t, got.LastActivityAt.After(before))
}

func TestAppendMessage_InvalidDirection(t *testing.T) {
	h := newHarness()
	conv := h.create(t, 1, 10)

	_, err := h.svc.AppendMessage(context.Background(), conv.ID, conversation.Direction("sideways"), "nope")
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeValidation))
}

func TestMarkAgentSeen_Monotonic(t *testing.T) {
	h := newHarness()
	conv := h.create(t, 1, 10)

	later := time.Now().UTC()
	earlier := later.Add(-time.Hour)

	require.NoError(t, h.svc.MarkAgentSeen(context.Background(), conv.ID, later))
	require.NoError(t, h.svc.MarkAgentSeen(context.Background(), conv.ID, earlier))

	got, err := h.repo.FindByID(context.Background(), conv.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AgentLastSeenAt)
	assert.True(t, got.AgentLastSeenAt.Equal(later))
}

func TestExecuteAutoResolve_ResolvesIdleConversation(t *testing.T) {
	h := newHarness()
	conv := h.create(t, 2, 20)
	conv.LastActivityAt = time.Now().UTC().Add(-6 * 24 * time.Hour)

	require.NoError(t, h.svc.ExecuteAutoResolve(context.Background(), conv.ID))

	got, err := h.repo.FindByID(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, status.StatusResolved, got.Status)
	assert.Contains(t, h.repo.activityContents(conv.ID),
		"Conversation was marked resolved by system due to 5 days of inactivity")
	assert.True(t, h.dispatcher.has(conversation.EventConversationResolved))
}

func TestExecuteAutoResolve_RecentActivityReschedules(t *testing.T) {
	h := newHarness()
	conv := h.create(t, 2, 20)
	conv.LastActivityAt = time.Now().UTC().Add(-24 * time.Hour)
	h.scheduler.submitted = nil

	require.NoError(t, h.svc.ExecuteAutoResolve(context.Background(), conv.ID))

	got, err := h.repo.FindByID(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, status.StatusOpen, got.Status)

	require.Len(t, h.scheduler.submitted, 1)
	remainder := h.scheduler.submitted[0].delay
	assert.Greater(t, remainder, 3*24*time.Hour)
	assert.LessOrEqual(t, remainder, 4*24*time.Hour)
}

func TestExecuteAutoResolve_SkipsNonOpen(t *testing.T) {
	h := newHarness()
	conv := h.create(t, 2, 20)
	_, err := h.svc.ToggleStatus(context.Background(), conv.ID, actor("Sam"))
	require.NoError(t, err)
	h.dispatcher.events = nil
	before := len(h.repo.activities)

	require.NoError(t, h.svc.ExecuteAutoResolve(context.Background(), conv.ID))

	assert.Len(t, h.repo.activities, before)
	assert.Empty(t, h.dispatcher.events)
}

func TestExecuteAutoResolve_SkipsDisabledAccount(t *testing.T) {
	h := newHarness()
	conv := h.create(t, 1, 10)
	conv.LastActivityAt = time.Now().UTC().Add(-30 * 24 * time.Hour)

	require.NoError(t, h.svc.ExecuteAutoResolve(context.Background(), conv.ID))

	got, err := h.repo.FindByID(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, status.StatusOpen, got.Status)
}

func TestExecuteAutoResolve_GoneConversationIsNoOp(t *testing.T) {
	h := newHarness()
	assert.NoError(t, h.svc.ExecuteAutoResolve(context.Background(), 404))
}

func TestDelete_RemovesConversation(t *testing.T) {
	h := newHarness()
	conv := h.create(t, 1, 10)

	require.NoError(t, h.svc.Delete(context.Background(), conv.ID))

	_, err := h.repo.FindByID(context.Background(), conv.ID)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeNotFound))
}

func TestPushEvent_Projection(t *testing.T) {
	h := newHarness()
	conv := h.create(t, 1, 10)
	_, err := h.svc.UpdateLabels(context.Background(), conv.ID, []string{"billing"}, actor("Sam"))
	require.NoError(t, err)

	data, err := h.svc.PushEvent(context.Background(), conv.ID)
	require.NoError(t, err)

	assert.Equal(t, conv.UUID, data.UUID)
	assert.Equal(t, conv.DisplayID, data.DisplayID)
	assert.Equal(t, "open", data.Status)
	assert.Equal(t, []string{"billing"}, data.Labels)
	assert.True(t, data.CanReply, "web_widget conversations are always replyable")
}

func TestConcurrentUpdatesAreSerialized(t *testing.T) {
	h := newHarness()
	conv := h.create(t, 1, 10)

	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func(i int) {
			_, err := h.svc.UpdateLabels(context.Background(), conv.ID, []string{fmt.Sprintf("tag-%d", i)}, actor("Sam"))
			done <- err
		}(i)
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, <-done)
	}

	got, err := h.repo.FindByID(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Len(t, got.Labels, 1, "last writer wins; label set stays consistent under concurrency")
}
