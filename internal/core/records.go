// Package core defines the domain records of the group-lending tracker.
//
// Three record kinds make up the ledger: lending groups, borrowing members and
// repayment collections. Records reference each other by display key
// (Group.GroupNo, Member.MemberID), never by pointer, and the JSON field names
// are the snapshot wire format, so they must stay stable.
package core

// MemberStatus is the lifecycle state of a member's loan. It is an open
// string enum: unknown values coming in through a snapshot import are kept
// as-is rather than rejected.
type MemberStatus string

const (
	StatusActive    MemberStatus = "Active"
	StatusCompleted MemberStatus = "Completed"
	StatusDefaulted MemberStatus = "Defaulted"
)

// Group is a lending circle sharing a meeting schedule.
type Group struct {
	// ID is the internal identifier, assigned on creation and immutable.
	ID string `json:"id"`

	// GroupNo is the display key members reference. Uniqueness is not
	// enforced; the first match wins on lookups.
	GroupNo string `json:"groupNo"`

	GroupName     string `json:"groupName"`
	GroupHeadName string `json:"groupHeadName"`
	HeadContact   string `json:"headContact"`
	MeetingDay    string `json:"meetingDay"`
	FormationDate string `json:"formationDate"`
}

// Member is an individual borrower with a fixed loan schedule.
//
// LoanAmount and TotalInterest describe the original schedule and are never
// decremented as payments arrive; balances are always derived.
type Member struct {
	ID string `json:"id"`

	// MemberID is the display key collections reference.
	MemberID string `json:"memberId"`

	MemberName string `json:"memberName"`
	Address    string `json:"address"`
	Landmark   string `json:"landmark"`

	// GroupNo associates the member with a group by value. The group may
	// not exist; summaries treat the dangling reference as absent.
	GroupNo string `json:"groupNo"`

	// LoanAmount is the principal disbursed.
	LoanAmount float64 `json:"loanAmount"`

	// TotalInterest is the interest owed over the full loan term.
	TotalInterest float64 `json:"totalInterest"`

	// Weeks is the number of scheduled repayment installments.
	Weeks int `json:"weeks"`

	StartDate string       `json:"startDate"`
	Status    MemberStatus `json:"status"`
}

// TotalPayable is the member's original principal plus interest.
func (m Member) TotalPayable() float64 {
	return m.LoanAmount + m.TotalInterest
}

// Collection is one recorded repayment event.
//
// PrincipalPaid and InterestPaid are computed by the allocation engine when
// the collection is created and stored as immutable history; they are not
// recomputed if the member's loan terms change later.
type Collection struct {
	ID             string `json:"id"`
	CollectionDate string `json:"collectionDate"`

	// MemberID references the paying member by display key.
	MemberID string `json:"memberId"`

	// GroupNo is a denormalized copy of the member's group at collection
	// time. Group summaries join on this field, so a member changing
	// groups does not re-attribute old collections.
	GroupNo string `json:"groupNo"`

	// WeekNo is the 1-based installment index. Neither unique nor
	// sequential per member.
	WeekNo int `json:"weekNo"`

	// AmountPaid is the total cash received.
	AmountPaid float64 `json:"amountPaid"`

	PrincipalPaid float64 `json:"principalPaid"`
	InterestPaid  float64 `json:"interestPaid"`

	Status      string `json:"status"`
	CollectedBy string `json:"collectedBy"`
}
