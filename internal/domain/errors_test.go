package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/boddenberg/wecom-agent-go/internal/domain"
)

func TestKindOf(t *testing.T) {
	apiErr := &domain.ErrAPI{Path: "/cgi-bin/message/send", Code: 40003, Message: "invalid userid"}

	tests := []struct {
		err  error
		want domain.Kind
	}{
		{nil, domain.KindNone},
		{apiErr, domain.KindAPI},
		{fmt.Errorf("send: %w", apiErr), domain.KindAPI},
		{&domain.ErrInitialization{Err: apiErr}, domain.KindAPI},
		{&domain.ErrInitialization{Err: errors.New("dial tcp")}, domain.KindInitialization},
		{&domain.ErrExternalService{Service: "wecom", Err: errors.New("EOF")}, domain.KindTransport},
		{&domain.ErrInvalidRecipients{}, domain.KindInvalidRecipients},
		{&domain.ErrFileNotFound{Path: "/tmp/x"}, domain.KindFileNotFound},
		{&domain.ErrValidation{Field: "chatid"}, domain.KindValidation},
		{&domain.ErrCircuitOpen{Service: "wecom"}, domain.KindCircuitOpen},
		{errors.New("other"), domain.KindUnknown},
	}

	for _, tt := range tests {
		if got := domain.KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestErrCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &domain.ErrAPI{Code: 60020})
	if domain.ErrCode(err) != 60020 {
		t.Errorf("expected 60020, got %d", domain.ErrCode(err))
	}
	if domain.ErrCode(errors.New("x")) != 0 {
		t.Errorf("expected 0 for non-api error")
	}
}

func TestInvalidRecipientsMessage(t *testing.T) {
	err := &domain.ErrInvalidRecipients{Channel: "toparty", Limit: 100, Got: 101}
	if err.Error() != "invalid recipients: toparty must have at most 100 entries, got 101" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
