package domain

import "strings"

// ============================================================
// Message payloads
// ============================================================

// MsgType is the platform's msgtype discriminator.
type MsgType string

const (
	MsgTypeText     MsgType = "text"
	MsgTypeTextCard MsgType = "textcard"
	MsgTypeFile     MsgType = "file"
	MsgTypeMarkdown MsgType = "markdown"
)

// ParseMsgType maps a caller-supplied string onto a supported MsgType.
func ParseMsgType(s string) (MsgType, bool) {
	switch t := MsgType(strings.ToLower(strings.TrimSpace(s))); t {
	case MsgTypeText, MsgTypeTextCard, MsgTypeFile, MsgTypeMarkdown:
		return t, true
	}
	return "", false
}

// TextBody is the body of a text message.
type TextBody struct {
	Content string `json:"content"`
}

// TextCardBody is the body of a text card. The platform truncates
// Description beyond 512 bytes and BtnTxt beyond 4 characters.
type TextCardBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	BtnTxt      string `json:"btntxt,omitempty"`
}

// FileBody references a previously uploaded media id.
type FileBody struct {
	MediaID string `json:"media_id"`
}

// MarkdownBody is the body of a markdown message.
type MarkdownBody struct {
	Content string `json:"content"`
}

// Message is the tagged payload posted to the send endpoints. Exactly one of
// the body pointers matches MsgType. Direct sends carry AgentID plus the
// resolved recipients; chat sends carry ChatID only.
type Message struct {
	ToUser   string        `json:"touser,omitempty"`
	ToParty  string        `json:"toparty,omitempty"`
	ToTag    string        `json:"totag,omitempty"`
	ChatID   string        `json:"chatid,omitempty"`
	AgentID  int64         `json:"agentid,omitempty"`
	MsgType  MsgType       `json:"msgtype"`
	Text     *TextBody     `json:"text,omitempty"`
	TextCard *TextCardBody `json:"textcard,omitempty"`
	File     *FileBody     `json:"file,omitempty"`
	Markdown *MarkdownBody `json:"markdown,omitempty"`
	Safe     int           `json:"safe"`
}

// NewTextMessage builds a text payload.
func NewTextMessage(content string) *Message {
	return &Message{MsgType: MsgTypeText, Text: &TextBody{Content: content}}
}

// NewTextCardMessage builds a text card payload; btnTxt may be empty.
func NewTextCardMessage(title, description, url, btnTxt string) *Message {
	return &Message{
		MsgType: MsgTypeTextCard,
		TextCard: &TextCardBody{
			Title:       title,
			Description: description,
			URL:         url,
			BtnTxt:      btnTxt,
		},
	}
}

// NewFileMessage builds a file payload.
func NewFileMessage(mediaID string) *Message {
	return &Message{MsgType: MsgTypeFile, File: &FileBody{MediaID: mediaID}}
}

// NewMarkdownMessage builds a markdown payload.
func NewMarkdownMessage(content string) *Message {
	return &Message{MsgType: MsgTypeMarkdown, Markdown: &MarkdownBody{Content: content}}
}

// Address merges resolved recipients into a direct-send payload.
func (m *Message) Address(agentID int64, r ResolvedRecipients) *Message {
	m.AgentID = agentID
	m.ToUser = r.ToUser
	m.ToParty = r.ToParty
	m.ToTag = r.ToTag
	m.ChatID = ""
	return m
}

// AddressChat scopes the payload to a chat. Chat sends carry no agentid.
func (m *Message) AddressChat(chatID string) *Message {
	m.ChatID = chatID
	m.AgentID = 0
	m.ToUser, m.ToParty, m.ToTag = "", "", ""
	return m
}

// Validate checks the body matches MsgType and its required fields are set.
func (m *Message) Validate() error {
	switch m.MsgType {
	case MsgTypeText:
		if m.Text == nil || m.Text.Content == "" {
			return &ErrValidation{Field: "text.content", Message: "required"}
		}
	case MsgTypeTextCard:
		if m.TextCard == nil {
			return &ErrValidation{Field: "textcard", Message: "required"}
		}
		if m.TextCard.Title == "" {
			return &ErrValidation{Field: "textcard.title", Message: "required"}
		}
		if m.TextCard.Description == "" {
			return &ErrValidation{Field: "textcard.description", Message: "required"}
		}
		if m.TextCard.URL == "" {
			return &ErrValidation{Field: "textcard.url", Message: "required"}
		}
	case MsgTypeFile:
		if m.File == nil || m.File.MediaID == "" {
			return &ErrValidation{Field: "file.media_id", Message: "required"}
		}
	case MsgTypeMarkdown:
		if m.Markdown == nil || m.Markdown.Content == "" {
			return &ErrValidation{Field: "markdown.content", Message: "required"}
		}
	default:
		return &ErrValidation{Field: "msgtype", Message: "unsupported message type " + string(m.MsgType)}
	}
	return nil
}

// SendResult is decoded from a successful send. The platform still delivers
// when part of the recipients is invalid and reports them here.
type SendResult struct {
	MsgID        string `json:"msgid,omitempty"`
	InvalidUser  string `json:"invaliduser,omitempty"`
	InvalidParty string `json:"invalidparty,omitempty"`
	InvalidTag   string `json:"invalidtag,omitempty"`
}

// HasInvalidRecipients reports whether the platform dropped any recipient.
func (r *SendResult) HasInvalidRecipients() bool {
	return r.InvalidUser != "" || r.InvalidParty != "" || r.InvalidTag != ""
}
