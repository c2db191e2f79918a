package domain

// Call is the wire record of a call. Ended stays zero until the call is over.
type Call struct {
	ID         CallID    `json:"id"`
	Created    Timestamp `json:"created"`
	Ended      Timestamp `json:"ended,omitempty"`
	Users      []UserID  `json:"users"`
	Direct     bool      `json:"direct"`
	OrgID      OrgID     `json:"orgId,omitempty"`
	ExternalID string    `json:"externalId,omitempty"`
}

func (c Call) Kind() Kind {
	return Classify(c.Direct, c.OrgID)
}
