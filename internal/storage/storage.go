// Package storage is the membership store: users, chats, chat participants and
// messages in PostgreSQL (via gorm), plus connection presence in Redis.
package storage

import (
	"chatcore/backend/internal/models"
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a unique key.
	ErrDuplicate = errors.New("duplicate record")
)

type Storage interface {
	// Transaction runs fn against a store bound to one database transaction.
	// Any error returned by fn rolls the whole transaction back.
	Transaction(ctx context.Context, fn func(tx Storage) error) error

	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error

	CreateChat(ctx context.Context, chat *models.Chat) error
	GetChatByID(ctx context.Context, id uint) (*models.Chat, error)
	GetChatDetails(ctx context.Context, id uint) (*models.Chat, error)
	ListChatsForUser(ctx context.Context, userID uint) ([]models.Chat, error)
	FindDirectChat(ctx context.Context, userA, userB uint) (*models.Chat, error)
	FindChatByDirectKey(ctx context.Context, key string) (*models.Chat, error)
	TouchChat(ctx context.Context, chatID uint) error
	UpdateChatOwner(ctx context.Context, chatID, ownerID uint) error
	DeleteChat(ctx context.Context, chatID uint) error

	AddParticipant(ctx context.Context, chatID, userID uint) error
	RemoveParticipant(ctx context.Context, chatID, userID uint) error
	IsParticipant(ctx context.Context, chatID, userID uint) (bool, error)
	CountParticipants(ctx context.Context, chatID uint) (int64, error)
	NextOwner(ctx context.Context, chatID, excludeUserID uint) (*models.ChatParticipant, error)

	CreateMessage(ctx context.Context, msg *models.Message) error
	GetMessageByID(ctx context.Context, id uint) (*models.Message, error)
	ListMessages(ctx context.Context, chatID uint, offset, limit int) ([]models.Message, int64, error)

	MarkOnline(ctx context.Context, userID uint) error
	MarkOffline(ctx context.Context, userID uint) error
	OnlineUsers(ctx context.Context, userIDs []uint) ([]uint, error)
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewStorageService Constructor. rdb may be nil, in which case presence is a no-op.
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
	}
}

// Migrate creates or updates the tables owned by the chat core.
func (s *Service) Migrate(ctx context.Context) error {
	if err := s.DB.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Chat{},
		&models.ChatParticipant{},
		&models.Message{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func (s *Service) Transaction(ctx context.Context, fn func(tx Storage) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Service{DB: tx, Redis: s.Redis})
	})
}

func (s *Service) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err, "get user %d", id)
	}
	return &user, nil
}

// SaveUser inserts or updates a user row. Only the operator CLI seeds users.
func (s *Service) SaveUser(ctx context.Context, user *models.User) error {
	if err := s.DB.WithContext(ctx).Save(user).Error; err != nil {
		return translate(err, "save user")
	}
	return nil
}

// translate maps gorm sentinel errors onto the store's own and adds context.
func translate(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", msg, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", msg, ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}
