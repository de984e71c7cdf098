package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"helpdesk/services/conversation-api/internal/domain/assignment"
	"helpdesk/services/conversation-api/internal/domain/status"
	"helpdesk/services/conversation-api/internal/infrastructure/metrics"
	"helpdesk/services/conversation-api/internal/infrastructure/mutestore"
	"helpdesk/services/conversation-api/internal/utils/platformerrors"
)

// Named lifecycle events dispatched by the service.
const (
	EventConversationCreated  = "conversation.created"
	EventConversationResolved = "conversation.resolved"
	EventConversationRead     = "conversation.read"
	EventAssigneeChanged      = "assignee.changed"
)

// EventDispatcher fans lifecycle events out to registered subscribers. The
// production implementation lives in the event package.
type EventDispatcher interface {
	Dispatch(ctx context.Context, name string, at time.Time, conv *Conversation)
}

// AutoResolveScheduler submits a delayed resolve-check for a conversation.
// Duplicate submissions are harmless; the fired job re-validates eligibility.
type AutoResolveScheduler interface {
	Submit(ctx context.Context, conversationID uint, delay time.Duration) error
}

// Locker serializes mutations per conversation id for the duration of one
// update cycle including side effects and event dispatch.
type Locker interface {
	WithLock(ctx context.Context, conversationID uint, fn func() error) error
}

// lockAttempts bounds retries on per-conversation lock conflicts.
const lockAttempts = 3

// Service is the conversation lifecycle entry point. Every mutation runs
// through it so that activity entries and events fire exactly once per
// logical change.
type Service interface {
	Create(ctx context.Context, params CreateParams, actor Actor) (*Conversation, error)
	Get(ctx context.Context, id uint) (*Conversation, error)
	Update(ctx context.Context, id uint, params UpdateParams, actor Actor) (*Conversation, error)
	ToggleStatus(ctx context.Context, id uint, actor Actor) (*Conversation, error)

	Mute(ctx context.Context, id uint, actor Actor) error
	Unmute(ctx context.Context, id uint, actor Actor) error
	Muted(ctx context.Context, id uint) (bool, error)

	UpdateLabels(ctx context.Context, id uint, titles []string, actor Actor) (*LabelDelta, error)
	AssignNext(ctx context.Context, id uint, actor Actor) (*Agent, error)

	AppendMessage(ctx context.Context, id uint, direction Direction, content string) (*Message, error)
	MarkAgentSeen(ctx context.Context, id uint, at time.Time) error
	Activities(ctx context.Context, id uint) ([]*Activity, error)
	PushEvent(ctx context.Context, id uint) (*PushEventData, error)
	Delete(ctx context.Context, id uint) error

	// ExecuteAutoResolve is invoked by the job worker when a scheduled
	// resolve-check fires. Idempotent: it re-validates eligibility against
	// current state before acting.
	ExecuteAutoResolve(ctx context.Context, conversationID uint) error
}

// CreateParams contains parameters for creating a new conversation.
type CreateParams struct {
	AccountID  uint
	InboxID    uint
	AssigneeID *uint
	Labels     []string
}

// UpdateParams is the single update-cycle input. Nil fields are untouched.
type UpdateParams struct {
	Status            *status.Status
	AssigneeID        *uint
	Unassign          bool
	Labels            *[]string
	ContactLastSeenAt *time.Time
}

// LabelDelta reports the membership change computed by UpdateLabels.
type LabelDelta struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// DefaultService implements the Service interface.
type DefaultService struct {
	repo       Repository
	agents     AgentRepository
	store      mutestore.Store
	locker     Locker
	dispatcher EventDispatcher
	scheduler  AutoResolveScheduler
	roundRobin *assignment.RoundRobin
	log        zerolog.Logger
}

// NewService creates the lifecycle service.
func NewService(
	repo Repository,
	agents AgentRepository,
	store mutestore.Store,
	locker Locker,
	dispatcher EventDispatcher,
	scheduler AutoResolveScheduler,
	log zerolog.Logger,
) *DefaultService {
	return &DefaultService{
		repo:       repo,
		agents:     agents,
		store:      store,
		locker:     locker,
		dispatcher: dispatcher,
		scheduler:  scheduler,
		roundRobin: assignment.NewRoundRobin(),
		log:        log.With().Str("component", "conversation-service").Logger(),
	}
}

var _ Service = (*DefaultService)(nil)

// Create allocates identity, sets the inbox-dependent initial status and
// schedules the auto-resolve check when the account is configured for it.
func (s *DefaultService) Create(ctx context.Context, params CreateParams, actor Actor) (*Conversation, error) {
	if params.AccountID == 0 || params.InboxID == 0 {
		return nil, platformerrors.New(platformerrors.LayerDomain, platformerrors.ErrorTypePrecondition, "conversation requires an account and an inbox")
	}

	account, err := s.repo.FindAccount(ctx, params.AccountID)
	if err != nil {
		return nil, err
	}
	inbox, err := s.repo.FindInbox(ctx, params.InboxID)
	if err != nil {
		return nil, err
	}
	if inbox.AccountID != account.ID {
		return nil, platformerrors.New(platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "inbox does not belong to the account")
	}

	if params.AssigneeID != nil {
		if _, err := s.agents.FindByID(ctx, *params.AssigneeID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	conv := &Conversation{
		UUID:           uuid.NewString(),
		AccountID:      account.ID,
		InboxID:        inbox.ID,
		Status:         inbox.InitialStatus(),
		AssigneeID:     params.AssigneeID,
		Labels:         dedupe(params.Labels),
		LastActivityAt: now,
		Account:        account,
		Inbox:          inbox,
	}

	if err := s.repo.Create(ctx, conv); err != nil {
		return nil, err
	}

	metrics.ConversationsCreated.Inc()

	if account.AutoResolveEnabled() {
		if err := s.scheduler.Submit(ctx, conv.ID, account.AutoResolveDelay()); err != nil {
			s.log.Error().Err(err).Uint("conversation_id", conv.ID).Msg("failed to schedule auto-resolve check")
		}
	}

	s.dispatcher.Dispatch(ctx, EventConversationCreated, now, conv)
	return conv, nil
}

// Get loads a conversation with its relations.
func (s *DefaultService) Get(ctx context.Context, id uint) (*Conversation, error) {
	return s.repo.FindByID(ctx, id)
}

// Update is the single update-cycle entry point. It compares a before/after
// snapshot and performs each component side effect independently, exactly
// once, under the per-conversation lock.
func (s *DefaultService) Update(ctx context.Context, id uint, params UpdateParams, actor Actor) (*Conversation, error) {
	var updated *Conversation
	err := s.withConversationLock(ctx, id, func() error {
		conv, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		prev := snapshotOf(conv)

		if err := s.applyStatus(conv, params.Status); err != nil {
			return err
		}
		if err := s.applyAssignee(ctx, conv, params); err != nil {
			return err
		}
		delta := applyLabels(conv, params.Labels)
		applyContactSeen(conv, params.ContactLastSeenAt)

		if err := s.repo.Update(ctx, conv); err != nil {
			return err
		}

		s.runSideEffects(ctx, conv, prev, delta, actor)
		updated = conv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ToggleStatus flips open and resolved. Toggling from pending is rejected as
// a precondition failure.
func (s *DefaultService) ToggleStatus(ctx context.Context, id uint, actor Actor) (*Conversation, error) {
	var updated *Conversation
	err := s.withConversationLock(ctx, id, func() error {
		conv, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		target, err := conv.Status.Toggled()
		if err != nil {
			return platformerrors.Newf(platformerrors.LayerDomain, platformerrors.ErrorTypePrecondition, "cannot toggle conversation status from %s", conv.Status)
		}

		prev := snapshotOf(conv)
		if err := s.applyStatus(conv, &target); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, conv); err != nil {
			return err
		}

		s.runSideEffects(ctx, conv, prev, nil, actor)
		updated = conv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Mute force-resolves the conversation through the regular resolve path and
// separately records the mute flag in the ephemeral store.
func (s *DefaultService) Mute(ctx context.Context, id uint, actor Actor) error {
	return s.withConversationLock(ctx, id, func() error {
		conv, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		if conv.Status != status.StatusResolved {
			prev := snapshotOf(conv)
			conv.Status = status.StatusResolved
			if err := s.repo.Update(ctx, conv); err != nil {
				return err
			}
			s.runSideEffects(ctx, conv, prev, nil, actor)
		}

		if err := s.store.Set(ctx, mutestore.MuteKey(conv.ID), "1"); err != nil {
			return platformerrors.Wrap(platformerrors.LayerInfrastructure, platformerrors.ErrorTypeInternal, err, "write mute flag")
		}

		return s.appendActivity(ctx, conv.ID, actor, fmt.Sprintf("%s has muted the conversation", actor.Name))
	})
}

// Unmute clears the mute flag without touching status.
func (s *DefaultService) Unmute(ctx context.Context, id uint, actor Actor) error {
	return s.withConversationLock(ctx, id, func() error {
		conv, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		if err := s.store.Delete(ctx, mutestore.MuteKey(conv.ID)); err != nil {
			return platformerrors.Wrap(platformerrors.LayerInfrastructure, platformerrors.ErrorTypeInternal, err, "clear mute flag")
		}

		return s.appendActivity(ctx, conv.ID, actor, fmt.Sprintf("%s has unmuted the conversation", actor.Name))
	})
}

// Muted reports whether the mute flag is present in the ephemeral store.
func (s *DefaultService) Muted(ctx context.Context, id uint) (bool, error) {
	_, ok, err := s.store.Get(ctx, mutestore.MuteKey(id))
	if err != nil {
		return false, platformerrors.Wrap(platformerrors.LayerInfrastructure, platformerrors.ErrorTypeInternal, err, "read mute flag")
	}
	return ok, nil
}

// UpdateLabels sets label membership to exactly the requested titles and
// records the add/remove deltas. Idempotent: repeating the same input yields
// no further activity entries.
func (s *DefaultService) UpdateLabels(ctx context.Context, id uint, titles []string, actor Actor) (*LabelDelta, error) {
	var delta *LabelDelta
	err := s.withConversationLock(ctx, id, func() error {
		conv, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		requested := dedupe(titles)
		delta = applyLabels(conv, &requested)
		if len(delta.Added) == 0 && len(delta.Removed) == 0 {
			return nil
		}

		if err := s.repo.Update(ctx, conv); err != nil {
			return err
		}
		s.recordLabelActivities(ctx, conv.ID, delta, actor)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return delta, nil
}

// AssignNext performs a round-robin assignment across the inbox's eligible
// agents. With no eligible agent the conversation stays unassigned and the
// call succeeds with a nil agent.
func (s *DefaultService) AssignNext(ctx context.Context, id uint, actor Actor) (*Agent, error) {
	var assigned *Agent
	err := s.withConversationLock(ctx, id, func() error {
		conv, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		members, err := s.agents.InboxMembers(ctx, conv.InboxID)
		if err != nil {
			return err
		}

		next := s.roundRobin.Next(conv.InboxID, assignment.Eligible(selectorAgents(members)))
		if next == nil {
			return nil
		}

		var agent *Agent
		for i := range members {
			if members[i].ID == next.ID {
				agent = &members[i]
				break
			}
		}

		prev := snapshotOf(conv)
		conv.AssigneeID = &agent.ID
		conv.Assignee = agent
		if err := s.repo.Update(ctx, conv); err != nil {
			return err
		}

		s.runSideEffects(ctx, conv, prev, nil, actor)
		assigned = agent
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assigned, nil
}

// AppendMessage records an opaque message log entry and bumps
// last_activity_at.
func (s *DefaultService) AppendMessage(ctx context.Context, id uint, direction Direction, content string) (*Message, error) {
	if direction != DirectionIncoming && direction != DirectionOutgoing {
		return nil, platformerrors.Newf(platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "invalid message direction %q", direction)
	}

	var msg *Message
	err := s.withConversationLock(ctx, id, func() error {
		conv, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		msg = &Message{
			ConversationID: conv.ID,
			Direction:      direction,
			Content:        content,
			CreatedAt:      now,
		}
		if err := s.repo.AppendMessage(ctx, msg); err != nil {
			return err
		}

		if now.After(conv.LastActivityAt) {
			conv.LastActivityAt = now
			return s.repo.Update(ctx, conv)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// MarkAgentSeen advances agent_last_seen_at; the marker never moves
// backwards.
func (s *DefaultService) MarkAgentSeen(ctx context.Context, id uint, at time.Time) error {
	return s.withConversationLock(ctx, id, func() error {
		conv, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if conv.AgentLastSeenAt != nil && !at.After(*conv.AgentLastSeenAt) {
			return nil
		}
		conv.AgentLastSeenAt = &at
		return s.repo.Update(ctx, conv)
	})
}

// Activities lists the conversation's activity log.
func (s *DefaultService) Activities(ctx context.Context, id uint) ([]*Activity, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListActivities(ctx, id)
}

// PushEvent builds the real-time projection for the transport collaborator.
func (s *DefaultService) PushEvent(ctx context.Context, id uint) (*PushEventData, error) {
	conv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	data := conv.ToPushEvent(time.Now().UTC())
	return &data, nil
}

// Delete removes the conversation and triggers referential cleanup of
// dependent records.
func (s *DefaultService) Delete(ctx context.Context, id uint) error {
	return s.withConversationLock(ctx, id, func() error {
		if _, err := s.repo.FindByID(ctx, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id)
	})
}

// ExecuteAutoResolve re-validates eligibility and resolves with the system
// actor. Duplicate or stale jobs fall through without side effects, which is
// what makes re-submission without cancellation safe.
func (s *DefaultService) ExecuteAutoResolve(ctx context.Context, conversationID uint) error {
	return s.withConversationLock(ctx, conversationID, func() error {
		conv, err := s.repo.FindByID(ctx, conversationID)
		if err != nil {
			if platformerrors.IsType(err, platformerrors.ErrorTypeNotFound) {
				return nil // deleted since scheduling
			}
			return err
		}

		if conv.Status != status.StatusOpen {
			return nil
		}
		if !conv.Account.AutoResolveEnabled() {
			return nil
		}

		// Activity since scheduling pushes the deadline out; hand the check
		// back to the queue for the remainder.
		deadline := conv.LastActivityAt.Add(conv.Account.AutoResolveDelay())
		now := time.Now().UTC()
		if now.Before(deadline) {
			return s.scheduler.Submit(ctx, conv.ID, deadline.Sub(now))
		}

		prev := snapshotOf(conv)
		conv.Status = status.StatusResolved
		if err := s.repo.Update(ctx, conv); err != nil {
			return err
		}

		s.runSideEffects(ctx, conv, prev, nil, SystemActor())
		return nil
	})
}

// ---- update-cycle internals ----

// snapshot captures the change-detected fields before an update cycle.
type snapshot struct {
	status            status.Status
	assigneeID        *uint
	contactLastSeenAt *time.Time
}

func snapshotOf(conv *Conversation) snapshot {
	return snapshot{
		status:            conv.Status,
		assigneeID:        conv.AssigneeID,
		contactLastSeenAt: conv.ContactLastSeenAt,
	}
}

func (s *DefaultService) applyStatus(conv *Conversation, target *status.Status) error {
	if target == nil || *target == conv.Status {
		return nil
	}
	if _, err := status.Parse(string(*target)); err != nil {
		return platformerrors.Newf(platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "invalid conversation status %q", *target)
	}
	if !conv.Status.CanTransitionTo(*target) {
		return platformerrors.Newf(platformerrors.LayerDomain, platformerrors.ErrorTypePrecondition, "cannot transition conversation from %s to %s", conv.Status, *target)
	}
	if conv.Account == nil || conv.Inbox == nil {
		return platformerrors.New(platformerrors.LayerDomain, platformerrors.ErrorTypePrecondition, "conversation has no account or inbox context")
	}
	conv.Status = *target
	return nil
}

func (s *DefaultService) applyAssignee(ctx context.Context, conv *Conversation, params UpdateParams) error {
	switch {
	case params.Unassign:
		conv.AssigneeID = nil
		conv.Assignee = nil
	case params.AssigneeID != nil:
		agent, err := s.agents.FindByID(ctx, *params.AssigneeID)
		if err != nil {
			return err
		}
		conv.AssigneeID = &agent.ID
		conv.Assignee = agent
		// Keep the rotation cursor aligned with manual assignments.
		s.roundRobin.Observe(conv.InboxID, agent.ID)
	}
	return nil
}

func applyLabels(conv *Conversation, requested *[]string) *LabelDelta {
	if requested == nil {
		return nil
	}

	current := make(map[string]bool, len(conv.Labels))
	for _, l := range conv.Labels {
		current[l] = true
	}
	next := make(map[string]bool, len(*requested))

	delta := &LabelDelta{}
	for _, l := range dedupe(*requested) {
		next[l] = true
		if !current[l] {
			delta.Added = append(delta.Added, l)
		}
	}
	for _, l := range conv.Labels {
		if !next[l] {
			delta.Removed = append(delta.Removed, l)
		}
	}

	conv.Labels = dedupe(*requested)
	return delta
}

func applyContactSeen(conv *Conversation, at *time.Time) {
	if at == nil {
		return
	}
	if conv.ContactLastSeenAt != nil && !at.After(*conv.ContactLastSeenAt) {
		return
	}
	conv.ContactLastSeenAt = at
}

// runSideEffects performs the component-specific side effect for each field
// the update cycle changed, each independently.
func (s *DefaultService) runSideEffects(ctx context.Context, conv *Conversation, prev snapshot, labels *LabelDelta, actor Actor) {
	now := time.Now().UTC()

	if conv.Status != prev.status {
		metrics.StatusTransitions.WithLabelValues(prev.status.String(), conv.Status.String()).Inc()
		switch conv.Status {
		case status.StatusResolved:
			s.recordResolve(ctx, conv, actor, now)
		case status.StatusOpen:
			if conv.Account.AutoResolveEnabled() {
				if err := s.scheduler.Submit(ctx, conv.ID, conv.Account.AutoResolveDelay()); err != nil {
					s.log.Error().Err(err).Uint("conversation_id", conv.ID).Msg("failed to schedule auto-resolve check")
				}
			}
		}
	}

	if !uintPtrEqual(conv.AssigneeID, prev.assigneeID) {
		s.recordAssignment(ctx, conv, actor)
		s.dispatcher.Dispatch(ctx, EventAssigneeChanged, now, conv)
	}

	if contactSeenAdvanced(prev.contactLastSeenAt, conv.ContactLastSeenAt) {
		if latest := conv.LatestMessage(); latest == nil || !conv.ContactLastSeenAt.Before(latest.CreatedAt) {
			s.dispatcher.Dispatch(ctx, EventConversationRead, now, conv)
		}
	}

	if labels != nil {
		s.recordLabelActivities(ctx, conv.ID, labels, actor)
	}
}

func (s *DefaultService) recordResolve(ctx context.Context, conv *Conversation, actor Actor, at time.Time) {
	var content string
	if actor.IsSystem() {
		days := 0
		if conv.Account != nil {
			days = conv.Account.AutoResolveDuration
		}
		content = fmt.Sprintf("Conversation was marked resolved by system due to %d days of inactivity", days)
	} else {
		content = fmt.Sprintf("Conversation was marked resolved by %s", actor.Name)
	}

	if err := s.appendActivity(ctx, conv.ID, actor, content); err != nil {
		s.log.Error().Err(err).Uint("conversation_id", conv.ID).Msg("failed to append resolve activity")
	}
	s.dispatcher.Dispatch(ctx, EventConversationResolved, at, conv)
}

func (s *DefaultService) recordAssignment(ctx context.Context, conv *Conversation, actor Actor) {
	var content string
	if conv.AssigneeID == nil {
		content = fmt.Sprintf("Conversation unassigned by %s", actor.Name)
	} else {
		name := fmt.Sprintf("agent #%d", *conv.AssigneeID)
		if conv.Assignee != nil {
			name = conv.Assignee.Name
		}
		content = fmt.Sprintf("Assigned to %s by %s", name, actor.Name)
	}

	if err := s.appendActivity(ctx, conv.ID, actor, content); err != nil {
		s.log.Error().Err(err).Uint("conversation_id", conv.ID).Msg("failed to append assignment activity")
	}
}

func (s *DefaultService) recordLabelActivities(ctx context.Context, conversationID uint, delta *LabelDelta, actor Actor) {
	if len(delta.Added) > 0 {
		content := fmt.Sprintf("%s added %s", actor.Name, strings.Join(delta.Added, ", "))
		if err := s.appendActivity(ctx, conversationID, actor, content); err != nil {
			s.log.Error().Err(err).Uint("conversation_id", conversationID).Msg("failed to append label activity")
		}
	}
	if len(delta.Removed) > 0 {
		content := fmt.Sprintf("%s removed %s", actor.Name, strings.Join(delta.Removed, ", "))
		if err := s.appendActivity(ctx, conversationID, actor, content); err != nil {
			s.log.Error().Err(err).Uint("conversation_id", conversationID).Msg("failed to append label activity")
		}
	}
}

func (s *DefaultService) appendActivity(ctx context.Context, conversationID uint, actor Actor, content string) error {
	return s.repo.AppendActivity(ctx, &Activity{
		ConversationID: conversationID,
		Content:        content,
		ActorName:      actor.Name,
		CreatedAt:      time.Now().UTC(),
	})
}

// withConversationLock serializes the update cycle and retries bounded times
// on lock conflicts.
func (s *DefaultService) withConversationLock(ctx context.Context, id uint, fn func() error) error {
	var err error
	for attempt := 0; attempt < lockAttempts; attempt++ {
		err = s.locker.WithLock(ctx, id, fn)
		if err == nil || !platformerrors.IsType(err, platformerrors.ErrorTypeConflict) {
			return err
		}
		metrics.LockConflicts.Inc()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 50 * time.Millisecond):
		}
	}
	return err
}

func selectorAgents(members []Agent) []assignment.Agent {
	out := make([]assignment.Agent, 0, len(members))
	for _, a := range members {
		out = append(out, assignment.Agent{ID: a.ID, Name: a.Name, Role: a.Role, Available: a.Available})
	}
	return out
}

func dedupe(titles []string) []string {
	if titles == nil {
		return nil
	}
	seen := make(map[string]bool, len(titles))
	out := make([]string, 0, len(titles))
	for _, t := range titles {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func uintPtrEqual(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func contactSeenAdvanced(prev, next *time.Time) bool {
	if next == nil {
		return false
	}
	return prev == nil || next.After(*prev)
}
