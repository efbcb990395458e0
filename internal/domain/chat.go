package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ============================================================
// Group chats (appchat)
// ============================================================

// Chat limits enforced by the platform.
const (
	MinChatMembers   = 2
	MaxChatMembers   = 500
	MaxChatIDLength  = 32
	MaxChatNameRunes = 50 // longer names are truncated server-side
)

var chatIDPattern = regexp.MustCompile(`^[0-9a-zA-Z]{1,32}$`)

// ChatSpec describes a chat to create. ChatID is optional; when empty the
// platform assigns one.
type ChatSpec struct {
	Name     string   `json:"name"`
	Owner    string   `json:"owner,omitempty"`
	UserList []string `json:"userlist"`
	ChatID   string   `json:"chatid,omitempty"`
}

// Validate enforces member count and chat id format.
func (s ChatSpec) Validate() error {
	if n := len(s.UserList); n < MinChatMembers || n > MaxChatMembers {
		return &ErrValidation{
			Field:   "userlist",
			Message: fmt.Sprintf("must contain %d to %d members, got %d", MinChatMembers, MaxChatMembers, n),
		}
	}
	if s.ChatID != "" {
		if err := ValidateChatID(s.ChatID); err != nil {
			return err
		}
	}
	return nil
}

// ValidateChatID checks a caller-supplied chat id: at most 32 chars of [0-9a-zA-Z].
func ValidateChatID(chatID string) error {
	if !chatIDPattern.MatchString(chatID) {
		return &ErrValidation{
			Field:   "chatid",
			Message: fmt.Sprintf("must be 1 to %d characters of [0-9a-zA-Z]", MaxChatIDLength),
		}
	}
	return nil
}

// NewChatID returns a random id valid for ChatSpec.ChatID (32 hex characters).
func NewChatID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NameTruncated reports whether the platform will truncate name.
func NameTruncated(name string) bool {
	return utf8.RuneCountInString(name) > MaxChatNameRunes
}

// ChatUpdate is a patch: only non-nil fields are sent.
type ChatUpdate struct {
	Name        *string  `json:"name,omitempty"`
	Owner       *string  `json:"owner,omitempty"`
	AddUserList []string `json:"add_user_list,omitempty"`
	DelUserList []string `json:"del_user_list,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (u ChatUpdate) IsEmpty() bool {
	return u.Name == nil && u.Owner == nil && len(u.AddUserList) == 0 && len(u.DelUserList) == 0
}

// ChatUpdateRequest is the wire body of appchat/update.
type ChatUpdateRequest struct {
	ChatID string `json:"chatid"`
	ChatUpdate
}

// ChatInfo is returned by appchat/get.
type ChatInfo struct {
	ChatID   string   `json:"chatid"`
	Name     string   `json:"name"`
	Owner    string   `json:"owner"`
	UserList []string `json:"userlist"`
}
