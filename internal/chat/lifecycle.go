package chat

import (
	"chatcore/backend/internal/localization"
	"chatcore/backend/internal/models"
	"chatcore/backend/internal/storage"
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/samber/lo"
)

// Options tunes the lifecycle service.
type Options struct {
	// Locale selects the catalog used for system messages.
	Locale          string
	DefaultPageSize int
	MaxPageSize     int
}

// LifecycleService creates chats and manages their membership. Every write runs
// in one store transaction and notifications go out only after commit.
type LifecycleService struct {
	store    storage.Storage
	texts    *localization.Localizer
	opts     Options
	dispatch dispatcher
	log      *slog.Logger
}

func NewLifecycleService(store storage.Storage, notifier Notifier, texts *localization.Localizer, opts Options, log *slog.Logger) *LifecycleService {
	if opts.Locale == "" {
		opts.Locale = localization.DefaultLang
	}
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = 50
	}
	if opts.MaxPageSize < opts.DefaultPageSize {
		opts.MaxPageSize = opts.DefaultPageSize
	}
	return &LifecycleService{
		store:    store,
		texts:    texts,
		opts:     opts,
		dispatch: dispatcher{notifier: notifier, log: log},
		log:      log,
	}
}

// CreateChat creates a direct or group chat with the requester as owner.
// A second direct chat between the same pair fails with ErrDuplicateChat
// carrying the existing chat id.
func (s *LifecycleService) CreateChat(ctx context.Context, requester models.Identity, in CreateChatInput) (*models.Chat, error) {
	if len(in.ParticipantIDs) == 0 {
		return nil, validation("participantIds", "at least one participant is required")
	}
	targets := lo.Without(lo.Uniq(in.ParticipantIDs), requester.UserID)

	chat := &models.Chat{IsGroup: in.IsGroup, CreatedBy: requester.UserID}
	if in.IsGroup {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return nil, validation("name", "a group chat needs a name")
		}
		chat.Name = &name
	} else {
		if len(targets) != 1 {
			return nil, validation("participantIds", "a direct chat needs exactly one other participant")
		}
		chat.DirectKey = lo.ToPtr(models.DirectKey(requester.UserID, targets[0]))

		existing, err := s.store.FindDirectChat(ctx, requester.UserID, targets[0])
		switch {
		case err == nil:
			return nil, duplicateChat(existing.ID)
		case !errors.Is(err, storage.ErrNotFound):
			return nil, err
		}
	}
	initial := strings.TrimSpace(in.InitialMessage)

	var members []models.ChatParticipant
	var first *models.Message
	err := s.store.Transaction(ctx, func(tx storage.Storage) error {
		members = members[:0]
		if err := tx.CreateChat(ctx, chat); err != nil {
			return err
		}
		if err := tx.AddParticipant(ctx, chat.ID, requester.UserID); err != nil {
			return err
		}
		members = append(members, models.ChatParticipant{ChatID: chat.ID, UserID: requester.UserID, User: senderOf(requester)})
		for _, id := range targets {
			user, err := tx.GetUserByID(ctx, id)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return userNotFound(id)
				}
				return err
			}
			if err := tx.AddParticipant(ctx, chat.ID, id); err != nil {
				return err
			}
			members = append(members, models.ChatParticipant{ChatID: chat.ID, UserID: id, User: *user})
		}
		if initial != "" {
			first = &models.Message{ChatID: chat.ID, SenderID: requester.UserID, Content: initial, Sender: senderOf(requester)}
			return tx.CreateMessage(ctx, first)
		}
		return nil
	})
	if err != nil {
		if chat.DirectKey != nil && errors.Is(err, storage.ErrDuplicate) {
			// Lost the race against a concurrent creator of the same pair.
			winner, ferr := s.store.FindChatByDirectKey(ctx, *chat.DirectKey)
			if ferr != nil {
				return nil, ferr
			}
			return nil, duplicateChat(winner.ID)
		}
		return nil, err
	}

	details, err := s.store.GetChatDetails(ctx, chat.ID)
	if err != nil {
		s.log.Warn("failed to reload created chat", "chat_id", chat.ID, "error", err)
		chat.Participants = members
		chat.LastMessage = first
		details = chat
	}
	s.log.Info("chat created", "chat_id", details.ID, "by", requester.UserID, "group", details.IsGroup)

	for _, id := range details.ParticipantIDs() {
		if id != requester.UserID {
			s.dispatch.toUser(id, models.NotificationNewChat, details)
		}
	}
	return details, nil
}

// AddParticipant adds userID to a group chat. Members can add people; privileged
// roles can add to any group.
func (s *LifecycleService) AddParticipant(ctx context.Context, requester models.Identity, chatID, userID uint) (*models.Chat, error) {
	group, err := s.loadGroup(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !requester.IsPrivileged() {
		if err := s.requireMember(ctx, chatID, requester.UserID, ErrNotAParticipant); err != nil {
			return nil, err
		}
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	member, err := s.store.IsParticipant(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	if member {
		return nil, ErrAlreadyAParticipant
	}

	msg := s.systemMessage(chatID, requester, "system.participant_added", user.Name)
	err = s.store.Transaction(ctx, func(tx storage.Storage) error {
		if err := tx.AddParticipant(ctx, chatID, userID); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				return ErrAlreadyAParticipant
			}
			return err
		}
		if err := tx.CreateMessage(ctx, msg); err != nil {
			return err
		}
		return tx.TouchChat(ctx, chatID)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("participant added", "chat_id", chatID, "user_id", userID, "by", requester.UserID)

	s.dispatch.toChat(chatID, models.EventParticipantAdded, ParticipantAddedEvent{
		ChatID:  chatID,
		User:    *user,
		AddedBy: requester.UserID,
		Message: msg,
	})

	details, err := s.store.GetChatDetails(ctx, chatID)
	if err != nil {
		s.log.Warn("failed to reload chat after adding participant", "chat_id", chatID, "error", err)
		group.LastMessage = msg
		details = group
	}
	s.dispatch.toUser(userID, models.NotificationAddedToChat, details)
	return details, nil
}

// RemoveParticipant removes userID from a group chat. Only the owner or a
// privileged role may remove members, and only a privileged role may remove the
// owner, in which case ownership moves on as if the owner had left.
func (s *LifecycleService) RemoveParticipant(ctx context.Context, requester models.Identity, chatID, userID uint) (*LeaveResult, error) {
	chat, err := s.loadGroup(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat.CreatedBy != requester.UserID && !requester.IsPrivileged() {
		return nil, ErrForbidden
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, chatID, userID, ErrUserNotAParticipant); err != nil {
		return nil, err
	}
	if chat.CreatedBy == userID && !requester.IsPrivileged() {
		return nil, ErrCannotRemoveOwner
	}

	msg := s.systemMessage(chatID, requester, "system.participant_removed", user.Name)
	result, err := s.depart(ctx, chatID, userID, msg, ErrUserNotAParticipant)
	if err != nil {
		return nil, err
	}
	s.log.Info("participant removed", "chat_id", chatID, "user_id", userID, "by", requester.UserID, "chat_deleted", result.ChatDeleted)

	if !result.ChatDeleted {
		s.dispatch.toChat(chatID, models.EventParticipantRemoved, ParticipantRemovedEvent{
			ChatID:     chatID,
			UserID:     userID,
			RemovedBy:  requester.UserID,
			NewOwnerID: result.NewOwnerID,
			Message:    msg,
		})
	}
	s.dispatch.toUser(userID, models.NotificationRemovedFromChat, RemovedFromChatPayload{ChatID: chatID, RemovedBy: requester.UserID})
	return result, nil
}

// LeaveChat removes the requester from a group chat. An owner hands the chat to
// the earliest-joined remaining member; the last member leaving deletes it.
func (s *LifecycleService) LeaveChat(ctx context.Context, requester models.Identity, chatID uint) (*LeaveResult, error) {
	if _, err := s.loadGroup(ctx, chatID); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, chatID, requester.UserID, ErrNotAParticipant); err != nil {
		return nil, err
	}

	msg := s.systemMessage(chatID, requester, "system.participant_left", "")
	result, err := s.depart(ctx, chatID, requester.UserID, msg, ErrNotAParticipant)
	if err != nil {
		return nil, err
	}
	s.log.Info("participant left", "chat_id", chatID, "user_id", requester.UserID, "chat_deleted", result.ChatDeleted)

	if result.ChatDeleted {
		return result, nil
	}
	s.dispatch.toChat(chatID, models.EventParticipantLeft, ParticipantLeftEvent{
		ChatID:     chatID,
		UserID:     requester.UserID,
		NewOwnerID: result.NewOwnerID,
		Message:    msg,
	})
	return result, nil
}

// LeaveMessage returns the localized outcome of a leave for the HTTP response.
func (s *LifecycleService) LeaveMessage(result *LeaveResult) string {
	switch {
	case result.ChatDeleted:
		return s.texts.GetString(s.opts.Locale, "leave.deleted")
	case result.NewOwnerID != nil:
		return s.texts.GetString(s.opts.Locale, "leave.transferred")
	default:
		return s.texts.GetString(s.opts.Locale, "leave.left")
	}
}

// depart removes userID from the chat in one transaction, moving ownership or
// deleting the chat as needed. msg is written only if the chat survives.
// Touching the chat row first serializes concurrent departures from one chat.
func (s *LifecycleService) depart(ctx context.Context, chatID, userID uint, msg *models.Message, notMember error) (*LeaveResult, error) {
	result := &LeaveResult{}
	err := s.store.Transaction(ctx, func(tx storage.Storage) error {
		if err := tx.TouchChat(ctx, chatID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrChatNotFound
			}
			return err
		}
		chat, err := tx.GetChatByID(ctx, chatID)
		if err != nil {
			return err
		}

		if chat.CreatedBy == userID {
			next, err := tx.NextOwner(ctx, chatID, userID)
			switch {
			case errors.Is(err, storage.ErrNotFound):
				result.ChatDeleted = true
				return tx.DeleteChat(ctx, chatID)
			case err != nil:
				return err
			}
			if err := tx.UpdateChatOwner(ctx, chatID, next.UserID); err != nil {
				return err
			}
			result.NewOwnerID = &next.UserID
		}

		if err := tx.RemoveParticipant(ctx, chatID, userID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return notMember
			}
			return err
		}

		remaining, err := tx.CountParticipants(ctx, chatID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			result.ChatDeleted = true
			result.NewOwnerID = nil
			return tx.DeleteChat(ctx, chatID)
		}
		return tx.CreateMessage(ctx, msg)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *LifecycleService) loadGroup(ctx context.Context, chatID uint) (*models.Chat, error) {
	chat, err := s.store.GetChatByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	if !chat.IsGroup {
		return nil, ErrNotAGroupChat
	}
	return chat, nil
}

func (s *LifecycleService) loadUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, userNotFound(userID)
		}
		return nil, err
	}
	return user, nil
}

func (s *LifecycleService) requireMember(ctx context.Context, chatID, userID uint, notMember error) error {
	ok, err := s.store.IsParticipant(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return notMember
	}
	return nil
}

func (s *LifecycleService) systemMessage(chatID uint, actor models.Identity, key, target string) *models.Message {
	return &models.Message{
		ChatID:          chatID,
		SenderID:        actor.UserID,
		Content:         s.texts.Format(s.opts.Locale, key, map[string]string{"actor": actor.Name, "target": target}),
		IsSystemMessage: true,
		Sender:          senderOf(actor),
	}
}
