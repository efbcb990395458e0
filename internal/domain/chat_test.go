package domain_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/boddenberg/wecom-agent-go/internal/domain"
)

func TestChatSpecValidate(t *testing.T) {
	members := func(n int) []string { return ids("u", n) }

	tests := []struct {
		name  string
		spec  domain.ChatSpec
		valid bool
	}{
		{"two members", domain.ChatSpec{UserList: members(2)}, true},
		{"five hundred members", domain.ChatSpec{UserList: members(500)}, true},
		{"one member", domain.ChatSpec{UserList: members(1)}, false},
		{"too many members", domain.ChatSpec{UserList: members(501)}, false},
		{"max length id", domain.ChatSpec{UserList: members(3), ChatID: strings.Repeat("a", 32)}, true},
		{"id too long", domain.ChatSpec{UserList: members(3), ChatID: strings.Repeat("a", 33)}, false},
		{"id with symbols", domain.ChatSpec{UserList: members(3), ChatID: "chat_1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.valid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.valid && domain.KindOf(err) != domain.KindValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestChatUpdateRequest_OmitsUnsetFields(t *testing.T) {
	owner := "u9"
	raw, _ := json.Marshal(domain.ChatUpdateRequest{ChatID: "C1", ChatUpdate: domain.ChatUpdate{Owner: &owner}})
	if string(raw) != `{"chatid":"C1","owner":"u9"}` {
		t.Errorf("unexpected body %s", raw)
	}
}

func TestNameTruncated(t *testing.T) {
	if domain.NameTruncated(strings.Repeat("群", 50)) {
		t.Errorf("50 runes should not be truncated")
	}
	if !domain.NameTruncated(strings.Repeat("群", 51)) {
		t.Errorf("51 runes should be truncated")
	}
}

func TestNewChatID(t *testing.T) {
	id := domain.NewChatID()
	if err := domain.ValidateChatID(id); err != nil {
		t.Fatalf("expected generated id to be valid, got %v (%s)", err, id)
	}
	if id == domain.NewChatID() {
		t.Errorf("expected distinct ids")
	}
}
