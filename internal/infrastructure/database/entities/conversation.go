package entities

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"helpdesk/services/conversation-api/internal/domain/conversation"
	"helpdesk/services/conversation-api/internal/domain/replywindow"
	"helpdesk/services/conversation-api/internal/domain/status"
)

// Conversation represents the database schema for conversations
type Conversation struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	DisplayID  int64         `gorm:"uniqueIndex:idx_conversation_account_display;not null"`
	UUID       string        `gorm:"type:varchar(36);uniqueIndex;not null"`
	AccountID  uint          `gorm:"uniqueIndex:idx_conversation_account_display;index:idx_conversation_account_status;not null"`
	InboxID    uint          `gorm:"index;not null"`
	Status     status.Status `gorm:"type:varchar(20);index:idx_conversation_account_status;not null;default:'open'"`
	AssigneeID *uint         `gorm:"index"`
	Labels     StringSlice   `gorm:"type:jsonb"`

	LastActivityAt    time.Time  `gorm:"not null"`
	ContactLastSeenAt *time.Time `gorm:"type:timestamp"`
	AgentLastSeenAt   *time.Time `gorm:"type:timestamp"`

	Account    Account        `gorm:"foreignKey:AccountID"`
	Inbox      Inbox          `gorm:"foreignKey:InboxID"`
	Assignee   *Agent         `gorm:"foreignKey:AssigneeID"`
	Messages   []Message      `gorm:"foreignKey:ConversationID"`
	Activities []Activity     `gorm:"foreignKey:ConversationID"`
}

// TableName specifies the table name for Conversation.
func (Conversation) TableName() string {
	return "conversations"
}

// Message represents the append-only message log.
type Message struct {
	ID             uint      `gorm:"primaryKey"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index:idx_message_conversation_created"`
	ConversationID uint      `gorm:"index:idx_message_conversation_created;not null"`
	Direction      string    `gorm:"type:varchar(10);not null"`
	Content        string    `gorm:"type:text"`
}

// TableName specifies the table name for Message.
func (Message) TableName() string {
	return "messages"
}

// Activity represents immutable lifecycle log entries.
type Activity struct {
	ID             uint      `gorm:"primaryKey"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	ConversationID uint      `gorm:"index;not null"`
	Content        string    `gorm:"type:text;not null"`
	ActorName      string    `gorm:"type:varchar(128);not null"`
}

// TableName specifies the table name for Activity.
func (Activity) TableName() string {
	return "activities"
}

// Notification is a dependent record cleaned up when its conversation is
// deleted.
type Notification struct {
	ID               uint      `gorm:"primaryKey"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	ConversationID   uint      `gorm:"index;not null"`
	UserID           uint      `gorm:"index;not null"`
	NotificationType string    `gorm:"type:varchar(50);not null"`
}

// TableName specifies the table name for Notification.
func (Notification) TableName() string {
	return "notifications"
}

// StringSlice is a custom type for []string stored as JSON
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func (s *StringSlice) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// EtoD converts database entity to domain model
func (c *Conversation) EtoD() *conversation.Conversation {
	conv := &conversation.Conversation{
		ID:                c.ID,
		DisplayID:         c.DisplayID,
		UUID:              c.UUID,
		AccountID:         c.AccountID,
		InboxID:           c.InboxID,
		Status:            c.Status,
		AssigneeID:        c.AssigneeID,
		Labels:            []string(c.Labels),
		LastActivityAt:    c.LastActivityAt,
		ContactLastSeenAt: c.ContactLastSeenAt,
		AgentLastSeenAt:   c.AgentLastSeenAt,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}

	if c.Account.ID != 0 {
		account := c.Account.EtoD()
		conv.Account = account
	}
	if c.Inbox.ID != 0 {
		inbox := c.Inbox.EtoD()
		conv.Inbox = inbox
	}
	if c.Assignee != nil {
		assignee := c.Assignee.EtoD()
		conv.Assignee = assignee
	}

	for _, m := range c.Messages {
		conv.Messages = append(conv.Messages, *m.EtoD())
	}

	return conv
}

// NewSchemaConversation creates a database entity from domain model
func NewSchemaConversation(c *conversation.Conversation) *Conversation {
	return &Conversation{
		ID:                c.ID,
		DisplayID:         c.DisplayID,
		UUID:              c.UUID,
		AccountID:         c.AccountID,
		InboxID:           c.InboxID,
		Status:            c.Status,
		AssigneeID:        c.AssigneeID,
		Labels:            StringSlice(c.Labels),
		LastActivityAt:    c.LastActivityAt,
		ContactLastSeenAt: c.ContactLastSeenAt,
		AgentLastSeenAt:   c.AgentLastSeenAt,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

// EtoD converts database entity to domain model
func (m *Message) EtoD() *conversation.Message {
	return &conversation.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Direction:      conversation.Direction(m.Direction),
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}

// NewSchemaMessage creates a database entity from domain model
func NewSchemaMessage(m *conversation.Message) *Message {
	return &Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Direction:      string(m.Direction),
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}

// EtoD converts database entity to domain model
func (a *Activity) EtoD() *conversation.Activity {
	return &conversation.Activity{
		ID:             a.ID,
		ConversationID: a.ConversationID,
		Content:        a.Content,
		ActorName:      a.ActorName,
		CreatedAt:      a.CreatedAt,
	}
}

// Account represents the database schema for accounts.
type Account struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Name                string `gorm:"type:varchar(128);not null"`
	AutoResolveDuration int    `gorm:"not null;default:0"`
	// ConversationSequence backs per-account display id allocation. Updated
	// under a row lock inside the conversation create transaction.
	ConversationSequence int64 `gorm:"not null;default:0"`
}

// TableName specifies the table name for Account.
func (Account) TableName() string {
	return "accounts"
}

// EtoD converts database entity to domain model
func (a *Account) EtoD() *conversation.Account {
	return &conversation.Account{
		ID:                  a.ID,
		Name:                a.Name,
		AutoResolveDuration: a.AutoResolveDuration,
	}
}

// Inbox represents the database schema for inboxes.
type Inbox struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	AccountID  uint   `gorm:"index;not null"`
	Name       string `gorm:"type:varchar(128);not null"`
	Channel    string `gorm:"type:varchar(30);not null;default:'web_widget'"`
	BotEnabled bool   `gorm:"not null;default:false"`

	Members []InboxMember `gorm:"foreignKey:InboxID"`
}

// TableName specifies the table name for Inbox.
func (Inbox) TableName() string {
	return "inboxes"
}

// EtoD converts database entity to domain model
func (i *Inbox) EtoD() *conversation.Inbox {
	return &conversation.Inbox{
		ID:         i.ID,
		AccountID:  i.AccountID,
		Name:       i.Name,
		Channel:    replywindow.Channel(i.Channel),
		BotEnabled: i.BotEnabled,
	}
}

// Agent represents the database schema for agents. Availability is written
// by the presence collaborator; this service only reads it.
type Agent struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Name      string `gorm:"type:varchar(128);not null"`
	Role      string `gorm:"type:varchar(20);not null;default:'agent'"`
	Available bool   `gorm:"not null;default:false"`
}

// TableName specifies the table name for Agent.
func (Agent) TableName() string {
	return "agents"
}

// EtoD converts database entity to domain model
func (a *Agent) EtoD() *conversation.Agent {
	return &conversation.Agent{
		ID:        a.ID,
		Name:      a.Name,
		Role:      a.Role,
		Available: a.Available,
	}
}

// InboxMember links agents to the inboxes they work.
type InboxMember struct {
	ID      uint `gorm:"primaryKey"`
	InboxID uint `gorm:"uniqueIndex:idx_inbox_member;not null"`
	AgentID uint `gorm:"uniqueIndex:idx_inbox_member;not null"`
	// Position fixes the round-robin ordering for the inbox.
	Position int `gorm:"not null;default:0"`

	Agent Agent `gorm:"foreignKey:AgentID"`
}

// TableName specifies the table name for InboxMember.
func (InboxMember) TableName() string {
	return "inbox_members"
}
