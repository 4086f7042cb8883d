package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/nimasrn/admissions-inbox/internal/model"
	"github.com/nimasrn/admissions-inbox/pkg/logger"
)

type ConversationRepository interface {
	Get(ctx context.Context, id int64) (*model.Conversation, error)
	SetStatus(ctx context.Context, id, tenantID int64, status model.ConversationStatus, now time.Time) error
	ReplaceTags(ctx context.Context, id, tenantID int64, tags []string, now time.Time) error
	SetUnreadCount(ctx context.Context, id, tenantID int64, count int64, now time.Time) error
}

type ConversationMessageRepository interface {
	MarkRead(ctx context.Context, conversationID int64, ids []int64) (int64, error)
	MarkAllRead(ctx context.Context, conversationID int64) (int64, error)
	CountUnread(ctx context.Context, conversationID int64) (int64, error)
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

const MaxTagLength = 64

type ConversationService struct {
	conversations ConversationRepository
	messages      ConversationMessageRepository
	tx            Transactor
	tenancy       Validator
	auth          Authorizer
	now           func() time.Time
}

func NewConversationService(conversations ConversationRepository, messages ConversationMessageRepository, tx Transactor, tenancy Validator, auth Authorizer) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		messages:      messages,
		tx:            tx,
		tenancy:       tenancy,
		auth:          auth,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// guard runs the authorization and tenancy checks every operation starts with.
func (s *ConversationService) guard(ctx context.Context, conversationID, tenantID int64, action Action) error {
	if !s.auth.Authorize(ctx, tenantID, action) {
		return ErrUnauthorized
	}
	return s.tenancy.Validate(ctx, conversationID, tenantID)
}

func (s *ConversationService) Get(ctx context.Context, conversationID, tenantID int64) (*model.Conversation, error) {
	if err := s.guard(ctx, conversationID, tenantID, ActionReadConversation); err != nil {
		return nil, err
	}
	conv, err := s.conversations.Get(ctx, conversationID)
	if err != nil {
		return nil, storageErr("get conversation", err)
	}
	return conv, nil
}

// Close marks the conversation closed. Closing a closed conversation only
// refreshes updated_at.
func (s *ConversationService) Close(ctx context.Context, conversationID, tenantID int64) (*model.Conversation, error) {
	return s.setStatus(ctx, conversationID, tenantID, model.ConversationStatusClosed)
}

func (s *ConversationService) Reopen(ctx context.Context, conversationID, tenantID int64) (*model.Conversation, error) {
	return s.setStatus(ctx, conversationID, tenantID, model.ConversationStatusActive)
}

func (s *ConversationService) setStatus(ctx context.Context, conversationID, tenantID int64, status model.ConversationStatus) (*model.Conversation, error) {
	if err := s.guard(ctx, conversationID, tenantID, ActionUpdateConversation); err != nil {
		return nil, err
	}
	if err := s.conversations.SetStatus(ctx, conversationID, tenantID, status, s.now()); err != nil {
		return nil, storageErr("set conversation status", err)
	}
	logger.Info("conversation status changed", "conversation_id", conversationID, "tenant_id", tenantID, "status", status)
	return s.reload(ctx, conversationID)
}

// SetTags replaces the tag set. Tags are trimmed, deduplicated and sorted;
// blank or overlong ones are dropped. An empty list clears them.
func (s *ConversationService) SetTags(ctx context.Context, conversationID, tenantID int64, tags []string) (*model.Conversation, error) {
	if err := s.guard(ctx, conversationID, tenantID, ActionUpdateConversation); err != nil {
		return nil, err
	}
	if err := s.conversations.ReplaceTags(ctx, conversationID, tenantID, normalizeTags(tags), s.now()); err != nil {
		return nil, storageErr("replace conversation tags", err)
	}
	return s.reload(ctx, conversationID)
}

func (s *ConversationService) reload(ctx context.Context, conversationID int64) (*model.Conversation, error) {
	conv, err := s.conversations.Get(ctx, conversationID)
	if err != nil {
		return nil, storageErr("reload conversation", err)
	}
	return conv, nil
}

// MarkRead marks messageIDs read, or every unread message when messageIDs is
// empty, and stores the resulting unread counter. Ids outside the
// conversation are ignored. Marking and recounting share one transaction.
func (s *ConversationService) MarkRead(ctx context.Context, conversationID, tenantID int64, messageIDs []int64) (int64, error) {
	if err := s.guard(ctx, conversationID, tenantID, ActionMarkRead); err != nil {
		return 0, err
	}

	var unread int64
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if len(messageIDs) == 0 {
			if _, err := s.messages.MarkAllRead(ctx, conversationID); err != nil {
				return storageErr("mark all read", err)
			}
			unread = 0
		} else {
			if _, err := s.messages.MarkRead(ctx, conversationID, messageIDs); err != nil {
				return storageErr("mark read", err)
			}
			count, err := s.messages.CountUnread(ctx, conversationID)
			if err != nil {
				return storageErr("count unread", err)
			}
			unread = count
		}
		if err := s.conversations.SetUnreadCount(ctx, conversationID, tenantID, unread, s.now()); err != nil {
			return storageErr("store unread count", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return unread, nil
}

// RecountUnread recomputes the unread counter from the messages without
// marking anything.
func (s *ConversationService) RecountUnread(ctx context.Context, conversationID, tenantID int64) (int64, error) {
	if err := s.guard(ctx, conversationID, tenantID, ActionMarkRead); err != nil {
		return 0, err
	}

	var unread int64
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		count, err := s.messages.CountUnread(ctx, conversationID)
		if err != nil {
			return storageErr("count unread", err)
		}
		unread = count
		if err := s.conversations.SetUnreadCount(ctx, conversationID, tenantID, unread, s.now()); err != nil {
			return storageErr("store unread count", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return unread, nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || len(t) > MaxTagLength {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
