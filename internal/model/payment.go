package model

// PaymentStatus records whether a single member has paid for the upcoming
// spot. There is exactly one status per member; the roster is the
// authoritative source of which members exist, and callers are expected to
// validate membership before creating a status.
type PaymentStatus struct {
	MemberID string `json:"memberId"`
	Paid     bool   `json:"paid"`
}

// EntityID returns the member ID the status belongs to.
func (p PaymentStatus) EntityID() string { return p.MemberID }

// Member is a roster entry supplied by the roster/authorization
// collaborator. The stores trust it as-is.
type Member struct {
	ID    string `json:"id" toml:"id"`
	Name  string `json:"name" toml:"name"`
	Admin bool   `json:"admin,omitempty" toml:"admin,omitempty"`
}

// Spot describes the upcoming event being coordinated: what it is, what it
// costs, and where the money goes.
type Spot struct {
	Title     string  `json:"title" toml:"title"`
	Budget    float64 `json:"budget" toml:"budget"`
	PayeeVPA  string  `json:"payee_vpa,omitempty" toml:"payee_vpa,omitempty"`
	PayeeName string  `json:"payee_name,omitempty" toml:"payee_name,omitempty"`
}
