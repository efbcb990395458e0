package domain

import "strings"

// ============================================================
// Recipient addressing
// ============================================================

// RecipientSeparator joins ids inside a single recipient channel.
const RecipientSeparator = "|"

// AllUsers addresses every member visible to the agent. When used, the
// platform ignores toparty and totag.
const AllUsers = "@all"

// Per-channel bounds enforced by the platform.
const (
	MaxUserRecipients  = 1000
	MaxPartyRecipients = 100
	MaxTagRecipients   = 100
)

// Recipients is the caller-facing addressing input. Each channel is optional
// but at least one must be non-empty.
type Recipients struct {
	Users   []string `json:"to_user,omitempty"`
	Parties []string `json:"to_party,omitempty"`
	Tags    []string `json:"to_tag,omitempty"`
}

// ResolvedRecipients is the wire form: each channel `|`-joined, absent when empty.
type ResolvedRecipients struct {
	ToUser  string `json:"touser,omitempty"`
	ToParty string `json:"toparty,omitempty"`
	ToTag   string `json:"totag,omitempty"`
}

// ParseRecipientList splits a `|`-separated channel string ("u1|u2") into ids.
// Blank segments are dropped.
func ParseRecipientList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, RecipientSeparator)
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

// ResolveRecipients validates every channel against its own bound and joins it.
func ResolveRecipients(r Recipients) (ResolvedRecipients, error) {
	users := compactIDs(r.Users)
	parties := compactIDs(r.Parties)
	tags := compactIDs(r.Tags)

	if len(users) == 0 && len(parties) == 0 && len(tags) == 0 {
		return ResolvedRecipients{}, &ErrInvalidRecipients{}
	}

	if len(users) > MaxUserRecipients {
		return ResolvedRecipients{}, &ErrInvalidRecipients{Channel: "touser", Limit: MaxUserRecipients, Got: len(users)}
	}
	if len(parties) > MaxPartyRecipients {
		return ResolvedRecipients{}, &ErrInvalidRecipients{Channel: "toparty", Limit: MaxPartyRecipients, Got: len(parties)}
	}
	if len(tags) > MaxTagRecipients {
		return ResolvedRecipients{}, &ErrInvalidRecipients{Channel: "totag", Limit: MaxTagRecipients, Got: len(tags)}
	}

	return ResolvedRecipients{
		ToUser:  joinIDs(users),
		ToParty: joinIDs(parties),
		ToTag:   joinIDs(tags),
	}, nil
}

// compactIDs trims ids and drops blanks. An element that itself holds a
// `|`-joined list is expanded so the bound counts real segments.
func compactIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if strings.Contains(id, RecipientSeparator) {
			out = append(out, ParseRecipientList(id)...)
			continue
		}
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
