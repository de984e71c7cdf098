// Package conversationrepo implements the conversation domain repositories on
// postgres through gorm.
package conversationrepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"helpdesk/services/conversation-api/internal/domain/conversation"
	"helpdesk/services/conversation-api/internal/infrastructure/database/entities"
	"helpdesk/services/conversation-api/internal/utils/platformerrors"
)

// PostgresRepository implements conversation.Repository.
type PostgresRepository struct {
	db *gorm.DB
}

// NewPostgresRepository creates the gorm-backed conversation repository.
func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var _ conversation.Repository = (*PostgresRepository)(nil)

// Create implements conversation.Repository. The per-account display id is
// allocated from a row-locked counter in the same transaction as the insert,
// so concurrent creates never observe the same sequence value.
func (r *PostgresRepository) Create(ctx context.Context, conv *conversation.Conversation) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account entities.Account
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&account, conv.AccountID).Error; err != nil {
			return err
		}

		account.ConversationSequence++
		if err := tx.Model(&entities.Account{}).
			Where("id = ?", account.ID).
			Update("conversation_sequence", account.ConversationSequence).Error; err != nil {
			return err
		}

		entity := entities.NewSchemaConversation(conv)
		entity.DisplayID = account.ConversationSequence
		if err := tx.Create(entity).Error; err != nil {
			return err
		}

		conv.ID = entity.ID
		conv.DisplayID = entity.DisplayID
		conv.CreatedAt = entity.CreatedAt
		conv.UpdatedAt = entity.UpdatedAt
		return nil
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.LayerRepository, platformerrors.ErrorTypeDatabase, err, "create conversation")
	}
	return nil
}

// FindByID implements conversation.Repository.
func (r *PostgresRepository) FindByID(ctx context.Context, id uint) (*conversation.Conversation, error) {
	var entity entities.Conversation
	err := r.db.WithContext(ctx).
		Preload("Account").
		Preload("Inbox").
		Preload("Assignee").
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&entity, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, platformerrors.Newf(platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation %d not found", id)
	}
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.LayerRepository, platformerrors.ErrorTypeDatabase, err, "find conversation")
	}
	return entity.EtoD(), nil
}

// Update implements conversation.Repository. Only the mutable lifecycle
// columns are written; identity columns never change after creation.
func (r *PostgresRepository) Update(ctx context.Context, conv *conversation.Conversation) error {
	err := r.db.WithContext(ctx).
		Model(&entities.Conversation{}).
		Where("id = ?", conv.ID).
		Updates(map[string]interface{}{
			"status":               conv.Status,
			"assignee_id":          conv.AssigneeID,
			"labels":               entities.StringSlice(conv.Labels),
			"last_activity_at":     conv.LastActivityAt,
			"contact_last_seen_at": conv.ContactLastSeenAt,
			"agent_last_seen_at":   conv.AgentLastSeenAt,
		}).Error
	if err != nil {
		return platformerrors.Wrap(platformerrors.LayerRepository, platformerrors.ErrorTypeDatabase, err, "update conversation")
	}
	return nil
}

// Delete implements conversation.Repository. Dependent notification, activity
// and message records go in the same transaction.
func (r *PostgresRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", id).Delete(&entities.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("conversation_id = ?", id).Delete(&entities.Activity{}).Error; err != nil {
			return err
		}
		if err := tx.Where("conversation_id = ?", id).Delete(&entities.Message{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Conversation{}, id).Error
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.LayerRepository, platformerrors.ErrorTypeDatabase, err, "delete conversation")
	}
	return nil
}

// AppendActivity implements conversation.Repository.
func (r *PostgresRepository) AppendActivity(ctx context.Context, entry *conversation.Activity) error {
	entity := &entities.Activity{
		ConversationID: entry.ConversationID,
		Content:        entry.Content,
		ActorName:      entry.ActorName,
		CreatedAt:      entry.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.Wrap(platformerrors.LayerRepository, platformerrors.ErrorTypeDatabase, err, "append activity")
	}
	entry.ID = entity.ID
	return nil
}

// AppendMessage implements conversation.Repository.
func (r *PostgresRepository) AppendMessage(ctx context.Context, msg *conversation.Message) error {
	entity := entities.NewSchemaMessage(msg)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.Wrap(platformerrors.LayerRepository, platformerrors.ErrorTypeDatabase, err, "append message")
	}
	msg.ID = entity.ID
	return nil
}

// ListActivities implements conversation.Repository.
func (r *PostgresRepository) ListActivities(ctx context.Context, conversationID uint) ([]*conversation.Activity, error) {
	var rows []entities.Activity
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.LayerRepository, platformerrors.ErrorTypeDatabase, err, "list activities")
	}

	out := make([]*conversation.Activity, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].EtoD())
	}
	return out, nil
}

// FindAccount implements conversation.Repository.
func (r *PostgresRepository) FindAccount(ctx context.Context, id uint) (*conversation.Account, error) {
	var entity entities.Account
	err := r.db.WithContext(ctx).First(&entity, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, platformerrors.Newf(platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "account %d not found", id)
	}
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.LayerRepository, platformerrors.ErrorTypeDatabase, err, "find account")
	}
	return entity.EtoD(), nil
}

// FindInbox implements conversation.Repository.
func (r *PostgresRepository) FindInbox(ctx context.Context, id uint) (*conversation.Inbox, error) {
	var entity entities.Inbox
	err := r.db.WithContext(ctx).First(&entity, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, platformerrors.Newf(platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "inbox %d not found", id)
	}
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.LayerRepository, platformerrors.ErrorTypeDatabase, err, "find inbox")
	}
	return entity.EtoD(), nil
}

// ListAutoResolveCandidates implements conversation.Repository. Used by the
// sweep to catch conversations whose scheduled check was lost.
func (r *PostgresRepository) ListAutoResolveCandidates(ctx context.Context, now time.Time, limit int) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&entities.Conversation{}).
		Joins("JOIN accounts ON accounts.id = conversations.account_id").
		Where("conversations.status = ?", "open").
		Where("accounts.auto_resolve_duration > 0").
		Where("conversations.last_activity_at <= ? - (accounts.auto_resolve_duration * interval '1 day')", now).
		Order("conversations.last_activity_at ASC").
		Limit(limit).
		Pluck("conversations.id", &ids).Error
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.LayerRepository, platformerrors.ErrorTypeDatabase, err, "list auto-resolve candidates")
	}
	return ids, nil
}

// AgentPostgresRepository implements conversation.AgentRepository.
type AgentPostgresRepository struct {
	db *gorm.DB
}

// NewAgentPostgresRepository creates the gorm-backed agent repository.
func NewAgentPostgresRepository(db *gorm.DB) *AgentPostgresRepository {
	return &AgentPostgresRepository{db: db}
}

var _ conversation.AgentRepository = (*AgentPostgresRepository)(nil)

// FindByID implements conversation.AgentRepository.
func (r *AgentPostgresRepository) FindByID(ctx context.Context, id uint) (*conversation.Agent, error) {
	var entity entities.Agent
	err := r.db.WithContext(ctx).First(&entity, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, platformerrors.Newf(platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "agent %d not found", id)
	}
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.LayerRepository, platformerrors.ErrorTypeDatabase, err, "find agent")
	}
	return entity.EtoD(), nil
}

// InboxMembers implements conversation.AgentRepository. The membership
// position column fixes the rotation order.
func (r *AgentPostgresRepository) InboxMembers(ctx context.Context, inboxID uint) ([]conversation.Agent, error) {
	var members []entities.InboxMember
	err := r.db.WithContext(ctx).
		Preload("Agent").
		Where("inbox_id = ?", inboxID).
		Order("position ASC, agent_id ASC").
		Find(&members).Error
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.LayerRepository, platformerrors.ErrorTypeDatabase, err, "list inbox members")
	}

	agents := make([]conversation.Agent, 0, len(members))
	for i := range members {
		agents = append(agents, *members[i].Agent.EtoD())
	}
	return agents, nil
}
