package main

import (
	"chatcore/backend/internal/auth"
	"chatcore/backend/internal/config"
	"chatcore/backend/internal/models"
	"chatcore/backend/internal/storage"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const usage = `Usage: admin <command> [args]

Commands:
  add-user <name> [role]   create a user (role: user, moderator, admin)
  token <user_id>          issue a bearer token for a user
  chats <user_id>          list the chats of a user
  members <chat_id>        list the participants of a chat
  delete-chat <chat_id>    delete a chat with its participants and messages`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	ctx := context.Background()
	storageSvc := storage.NewStorageService(db, nil) // No redis needed for admin CLI
	if err := storageSvc.Migrate(ctx); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	args := os.Args[2:]
	switch os.Args[1] {
	case "add-user":
		if len(args) < 1 || len(args) > 2 {
			fmt.Println("Usage: admin add-user <name> [role]")
			os.Exit(1)
		}
		role := models.RoleUser
		if len(args) == 2 {
			role = models.Role(args[1])
		}
		user, err := addUser(ctx, storageSvc, args[0], role)
		if err != nil {
			log.Fatalf("Error adding user: %v", err)
		}
		fmt.Printf("User %d (%s, %s) created.\n", user.ID, user.Name, user.Role)
	case "token":
		userID := idArg(args, "Usage: admin token <user_id>")
		token, err := issueToken(ctx, storageSvc, auth.NewJWTAuthenticator(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL), userID)
		if err != nil {
			log.Fatalf("Error issuing token: %v", err)
		}
		fmt.Println(token)
	case "chats":
		userID := idArg(args, "Usage: admin chats <user_id>")
		if err := listChats(ctx, os.Stdout, storageSvc, userID); err != nil {
			log.Fatalf("Error listing chats: %v", err)
		}
	case "members":
		chatID := idArg(args, "Usage: admin members <chat_id>")
		if err := listMembers(ctx, os.Stdout, storageSvc, chatID); err != nil {
			log.Fatalf("Error listing members: %v", err)
		}
	case "delete-chat":
		chatID := idArg(args, "Usage: admin delete-chat <chat_id>")
		if err := storageSvc.DeleteChat(ctx, chatID); err != nil {
			log.Fatalf("Error deleting chat: %v", err)
		}
		fmt.Printf("Chat %d has been deleted.\n", chatID)
	default:
		fmt.Printf("Unknown command: %s\n\n%s\n", os.Args[1], usage)
		os.Exit(1)
	}
}

func idArg(args []string, usage string) uint {
	if len(args) != 1 {
		fmt.Println(usage)
		os.Exit(1)
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil || id == 0 {
		fmt.Println("Invalid id. Please provide a positive integer.")
		os.Exit(1)
	}
	return uint(id)
}

func addUser(ctx context.Context, s storage.Storage, name string, role models.Role) (*models.User, error) {
	if name == "" {
		return nil, fmt.Errorf("name must not be empty")
	}
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	user := &models.User{Name: name, Role: role}
	if err := s.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func issueToken(ctx context.Context, s storage.Storage, a *auth.JWTAuthenticator, userID uint) (string, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return a.Issue(*user)
}

func listChats(ctx context.Context, w io.Writer, s storage.Storage, userID uint) error {
	chats, err := s.ListChatsForUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, c := range chats {
		name := "(direct)"
		if c.Name != nil {
			name = *c.Name
		}
		fmt.Fprintf(w, "%d\t%s\towner=%d\tmembers=%d\tupdated=%s\n",
			c.ID, name, c.CreatedBy, len(c.Participants), c.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func listMembers(ctx context.Context, w io.Writer, s storage.Storage, chatID uint) error {
	c, err := s.GetChatDetails(ctx, chatID)
	if err != nil {
		return err
	}
	for _, p := range c.Participants {
		owner := ""
		if p.UserID == c.CreatedBy {
			owner = "\towner"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\tjoined=%s%s\n",
			p.UserID, p.User.Name, p.User.Role, p.CreatedAt.Format("2006-01-02 15:04:05"), owner)
	}
	return nil
}
