package domain

// Kind partitions rooms and calls into a closed set of variants.
// Business is a refinement of Group: everything a group supports plus
// organization-scoped capabilities.
type Kind int

const (
	KindDirect Kind = iota
	KindGroup
	KindBusiness
)

func (k Kind) String() string {
	switch k {
	case KindDirect:
		return "direct"
	case KindGroup:
		return "group"
	case KindBusiness:
		return "business"
	default:
		return "unknown"
	}
}

// Classify is the single source of variant truth. The remote system marks
// direct conversations with a flag and business ones with an org id; anything
// else is a plain group.
func Classify(direct bool, orgID OrgID) Kind {
	switch {
	case direct:
		return KindDirect
	case orgID != "":
		return KindBusiness
	default:
		return KindGroup
	}
}

// Room is the wire record of a conversation as the remote system sees it.
type Room struct {
	ID      RoomID               `json:"id"`
	Name    string               `json:"name"`
	Created Timestamp            `json:"created"`
	Users   []UserID             `json:"users"`
	Direct  bool                 `json:"direct"`
	OrgID   OrgID                `json:"orgId,omitempty"`
	Marks   map[UserID]Timestamp `json:"marks,omitempty"`
}

func (r Room) Kind() Kind {
	return Classify(r.Direct, r.OrgID)
}
