package domain

// ============================================================
// Gateway request bodies
// ============================================================

// SendRequest is the body of POST /v1/messages and POST /v1/chats/{chatId}/messages.
// Recipients are ignored for chat sends.
type SendRequest struct {
	MsgType string `json:"msgtype"`
	Recipients
	Text     *TextBody     `json:"text,omitempty"`
	TextCard *TextCardBody `json:"textcard,omitempty"`
	File     *FileBody     `json:"file,omitempty"`
	Markdown *MarkdownBody `json:"markdown,omitempty"`
}

// Message builds and validates the payload described by the request.
func (r *SendRequest) Message() (*Message, error) {
	mt, ok := ParseMsgType(r.MsgType)
	if !ok {
		return nil, &ErrValidation{Field: "msgtype", Message: "must be one of text, textcard, file, markdown"}
	}
	msg := &Message{
		MsgType:  mt,
		Text:     r.Text,
		TextCard: r.TextCard,
		File:     r.File,
		Markdown: r.Markdown,
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return msg, nil
}

// CreateChatRequest is the body of POST /v1/chats.
type CreateChatRequest struct {
	ChatSpec
	GenerateChatID bool `json:"generate_chatid,omitempty"`
}

// ChatCreated is returned by POST /v1/chats.
type ChatCreated struct {
	ChatID string `json:"chatid"`
}

// MessageSent is returned by the send endpoints.
type MessageSent struct {
	Status string      `json:"status"`
	Result *SendResult `json:"result,omitempty"`
}
