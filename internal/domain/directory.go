package domain

import "strconv"

// ============================================================
// Agent & directory
// ============================================================

// Credentials identify the application. Immutable after construction.
type Credentials struct {
	CorpID  string
	Secret  string
	AgentID int64
}

// AppInfo is the agent configuration fetched once at construction.
type AppInfo struct {
	AgentID        int64
	Name           string
	AllowedUserIDs map[string]struct{}
	AllowedParties []int
	AllowedTags    []string
	RedirectDomain string
	Description    string
	SquareLogoURL  string
	Closed         bool
}

// UserIDs returns the allowed user ids in no particular order.
func (a *AppInfo) UserIDs() []string {
	ids := make([]string, 0, len(a.AllowedUserIDs))
	for id := range a.AllowedUserIDs {
		ids = append(ids, id)
	}
	return ids
}

// PartyIDs renders the allowed parties as strings.
func (a *AppInfo) PartyIDs() []string {
	ids := make([]string, len(a.AllowedParties))
	for i, p := range a.AllowedParties {
		ids[i] = strconv.Itoa(p)
	}
	return ids
}

// AgentDetail mirrors the agent/get response body.
type AgentDetail struct {
	AgentID        int64  `json:"agentid"`
	Name           string `json:"name"`
	SquareLogoURL  string `json:"square_logo_url"`
	Description    string `json:"description"`
	RedirectDomain string `json:"redirect_domain"`
	Close          int    `json:"close"`
	AllowUserInfos struct {
		User []struct {
			UserID string `json:"userid"`
		} `json:"user"`
	} `json:"allow_userinfos"`
	AllowPartys struct {
		PartyID []int `json:"partyid"`
	} `json:"allow_partys"`
	AllowTags struct {
		TagID []int `json:"tagid"`
	} `json:"allow_tags"`
}

// ToAppInfo converts the wire detail into the read-only snapshot.
func (d *AgentDetail) ToAppInfo() *AppInfo {
	info := &AppInfo{
		AgentID:        d.AgentID,
		Name:           d.Name,
		AllowedUserIDs: make(map[string]struct{}, len(d.AllowUserInfos.User)),
		AllowedParties: append([]int(nil), d.AllowPartys.PartyID...),
		AllowedTags:    make([]string, 0, len(d.AllowTags.TagID)),
		RedirectDomain: d.RedirectDomain,
		Description:    d.Description,
		SquareLogoURL:  d.SquareLogoURL,
		Closed:         d.Close == 1,
	}
	for _, u := range d.AllowUserInfos.User {
		info.AllowedUserIDs[u.UserID] = struct{}{}
	}
	for _, t := range d.AllowTags.TagID {
		info.AllowedTags = append(info.AllowedTags, strconv.Itoa(t))
	}
	return info
}

// Department is one node of the organization tree.
type Department struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	NameEN   string `json:"name_en,omitempty"`
	ParentID int    `json:"parentid"`
	Order    int    `json:"order"`
}

// DepartmentMember is a user entry returned by user/list.
type DepartmentMember struct {
	UserID     string `json:"userid"`
	Name       string `json:"name"`
	Department []int  `json:"department"`
	Position   string `json:"position,omitempty"`
	Mobile     string `json:"mobile,omitempty"`
	Email      string `json:"email,omitempty"`
	Status     int    `json:"status"`
}

// User is returned by user/get.
type User struct {
	UserID     string `json:"userid"`
	Name       string `json:"name"`
	Department []int  `json:"department"`
	Position   string `json:"position,omitempty"`
	Mobile     string `json:"mobile,omitempty"`
	Gender     string `json:"gender,omitempty"`
	Email      string `json:"email,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
	Status     int    `json:"status"`
	Alias      string `json:"alias,omitempty"`
}

// TagMembers is returned by tag/get.
type TagMembers struct {
	TagName   string    `json:"tagname"`
	UserList  []TagUser `json:"userlist"`
	PartyList []int     `json:"partylist"`
}

// TagUser is a member of a tag.
type TagUser struct {
	UserID string `json:"userid"`
	Name   string `json:"name"`
}
