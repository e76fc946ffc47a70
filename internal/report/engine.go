// Package report derives financial summaries from the record store.
//
// Every summary is a pure function of current state, recomputed on each call.
// There is deliberately no cache: the collections are small and recomputation
// avoids a whole class of invalidation bugs.
package report

import (
	"lendtrack/internal/core"
)

// Source is the read surface the engine needs from the record store.
type Source interface {
	Groups() []core.Group
	Members() []core.Member
	Collections() []core.Collection
}

// Engine computes summaries over a record source.
type Engine struct {
	src Source
}

// New returns an engine reading from src.
func New(src Source) *Engine {
	return &Engine{src: src}
}

// MemberSummary is a member's derived financial position.
type MemberSummary struct {
	core.Member

	TotalPayable            float64 `json:"totalPayable"`
	TotalPrincipalCollected float64 `json:"totalPrincipalCollected"`
	TotalInterestCollected  float64 `json:"totalInterestCollected"`
	TotalCollected          float64 `json:"totalCollected"`

	// Balances may go negative on overpayment; they are not clamped.
	PrincipalBalance float64 `json:"principalBalance"`
	InterestBalance  float64 `json:"interestBalance"`
	TotalBalance     float64 `json:"totalBalance"`

	// WeeksPaid counts collection records, not distinct week numbers:
	// duplicate weekNo entries each count.
	WeeksPaid int `json:"weeksPaid"`
}

// GroupSummary is a group's derived financial position.
type GroupSummary struct {
	core.Group

	TotalMembers            int     `json:"totalMembers"`
	TotalLoanAmount         float64 `json:"totalLoanAmount"`
	TotalInterest           float64 `json:"totalInterest"`
	TotalPayable            float64 `json:"totalPayable"`
	TotalPrincipalCollected float64 `json:"totalPrincipalCollected"`
	TotalInterestCollected  float64 `json:"totalInterestCollected"`
	TotalCollected          float64 `json:"totalCollected"`
	TotalBalance            float64 `json:"totalBalance"`

	// CollectionRate is collected over payable as a percentage with two
	// decimals, 0 when nothing is payable.
	CollectionRate float64 `json:"collectionRate"`
}

// OverallSummary aggregates the whole book.
type OverallSummary struct {
	TotalGroups    int `json:"totalGroups"`
	TotalMembers   int `json:"totalMembers"`
	ActiveLoans    int `json:"activeLoans"`
	CompletedLoans int `json:"completedLoans"`

	TotalLoanDisbursed      float64 `json:"totalLoanDisbursed"`
	TotalInterestDue        float64 `json:"totalInterestDue"`
	TotalPayable            float64 `json:"totalPayable"`
	TotalPrincipalCollected float64 `json:"totalPrincipalCollected"`
	TotalInterestCollected  float64 `json:"totalInterestCollected"`
	TotalAmountCollected    float64 `json:"totalAmountCollected"`
	TotalOutstanding        float64 `json:"totalOutstanding"`

	AverageLoanSize       float64 `json:"averageLoanSize"`
	OverallCollectionRate float64 `json:"overallCollectionRate"`
	PrincipalRecoveryRate float64 `json:"principalRecoveryRate"`
	InterestRecoveryRate  float64 `json:"interestRecoveryRate"`
}

// WeekEntry is one week's rollup across all groups.
type WeekEntry struct {
	WeekNo           int     `json:"weekNo"`
	AmountCollected  float64 `json:"amountCollected"`
	NumberOfPayments int     `json:"numberOfPayments"`
}

// MemberSummary computes the summary for one member, or nil when no member
// carries that display key.
func (e *Engine) MemberSummary(memberID string) *MemberSummary {
	for _, m := range e.src.Members() {
		if m.MemberID == memberID {
			return e.summarizeMember(m, e.src.Collections())
		}
	}
	return nil
}

func (e *Engine) summarizeMember(m core.Member, collections []core.Collection) *MemberSummary {
	s := &MemberSummary{
		Member:       m,
		TotalPayable: m.TotalPayable(),
	}
	for _, c := range collections {
		if c.MemberID != m.MemberID {
			continue
		}
		s.TotalPrincipalCollected += c.PrincipalPaid
		s.TotalInterestCollected += c.InterestPaid
		s.WeeksPaid++
	}
	s.TotalCollected = s.TotalPrincipalCollected + s.TotalInterestCollected
	s.PrincipalBalance = m.LoanAmount - s.TotalPrincipalCollected
	s.InterestBalance = m.TotalInterest - s.TotalInterestCollected
	s.TotalBalance = s.TotalPayable - s.TotalCollected
	return s
}

// AllMemberSummaries returns a summary per member in listing order.
func (e *Engine) AllMemberSummaries() []MemberSummary {
	collections := e.src.Collections()
	var out []MemberSummary
	for _, m := range e.src.Members() {
		if s := e.summarizeMember(m, collections); s != nil {
			out = append(out, *s)
		}
	}
	return out
}

// GroupSummary computes the summary for one group, or nil when no group
// carries that display key.
//
// Collections are joined by their own stored groupNo, not by following
// memberId to the member's current group: a collection whose member has since
// changed groups stays attributed to the group it was collected under.
func (e *Engine) GroupSummary(groupNo string) *GroupSummary {
	for _, g := range e.src.Groups() {
		if g.GroupNo == groupNo {
			return e.summarizeGroup(g, e.src.Members(), e.src.Collections())
		}
	}
	return nil
}

func (e *Engine) summarizeGroup(g core.Group, members []core.Member, collections []core.Collection) *GroupSummary {
	s := &GroupSummary{Group: g}
	for _, m := range members {
		if m.GroupNo != g.GroupNo {
			continue
		}
		s.TotalMembers++
		s.TotalLoanAmount += m.LoanAmount
		s.TotalInterest += m.TotalInterest
	}
	for _, c := range collections {
		if c.GroupNo != g.GroupNo {
			continue
		}
		s.TotalPrincipalCollected += c.PrincipalPaid
		s.TotalInterestCollected += c.InterestPaid
	}
	s.TotalPayable = s.TotalLoanAmount + s.TotalInterest
	s.TotalCollected = s.TotalPrincipalCollected + s.TotalInterestCollected
	s.TotalBalance = s.TotalPayable - s.TotalCollected
	s.CollectionRate = core.Pct(s.TotalCollected, s.TotalPayable)
	return s
}

// AllGroupSummaries returns a summary per group in listing order.
func (e *Engine) AllGroupSummaries() []GroupSummary {
	members := e.src.Members()
	collections := e.src.Collections()
	var out []GroupSummary
	for _, g := range e.src.Groups() {
		if s := e.summarizeGroup(g, members, collections); s != nil {
			out = append(out, *s)
		}
	}
	return out
}

// OverallSummary aggregates all members and all collections unconditionally.
func (e *Engine) OverallSummary() OverallSummary {
	members := e.src.Members()
	collections := e.src.Collections()

	s := OverallSummary{
		TotalGroups:  len(e.src.Groups()),
		TotalMembers: len(members),
	}
	for _, m := range members {
		s.TotalLoanDisbursed += m.LoanAmount
		s.TotalInterestDue += m.TotalInterest
		switch m.Status {
		case core.StatusActive:
			s.ActiveLoans++
		case core.StatusCompleted:
			s.CompletedLoans++
		}
	}
	for _, c := range collections {
		s.TotalPrincipalCollected += c.PrincipalPaid
		s.TotalInterestCollected += c.InterestPaid
	}
	s.TotalPayable = s.TotalLoanDisbursed + s.TotalInterestDue
	s.TotalAmountCollected = s.TotalPrincipalCollected + s.TotalInterestCollected
	s.TotalOutstanding = s.TotalPayable - s.TotalAmountCollected

	if s.TotalMembers > 0 {
		s.AverageLoanSize = core.Round2(s.TotalLoanDisbursed / float64(s.TotalMembers))
	}
	s.OverallCollectionRate = core.Pct(s.TotalAmountCollected, s.TotalPayable)
	s.PrincipalRecoveryRate = core.Pct(s.TotalPrincipalCollected, s.TotalLoanDisbursed)
	s.InterestRecoveryRate = core.Pct(s.TotalInterestCollected, s.TotalInterestDue)
	return s
}

// WeeklyData produces one entry per week from 1 to the highest weekNo on
// record, zero-filled for weeks without collections. No collections at all
// yields an empty slice.
func (e *Engine) WeeklyData() []WeekEntry {
	collections := e.src.Collections()

	maxWeek := 0
	for _, c := range collections {
		if c.WeekNo > maxWeek {
			maxWeek = c.WeekNo
		}
	}
	if maxWeek == 0 {
		return nil
	}

	entries := make([]WeekEntry, maxWeek)
	for i := range entries {
		entries[i].WeekNo = i + 1
	}
	for _, c := range collections {
		if c.WeekNo < 1 || c.WeekNo > maxWeek {
			continue
		}
		entry := &entries[c.WeekNo-1]
		entry.AmountCollected += c.AmountPaid
		entry.NumberOfPayments++
	}
	return entries
}

// CollectionsForWeek returns all collections with the given weekNo, across
// every group and member, in store order.
func (e *Engine) CollectionsForWeek(weekNo int) []core.Collection {
	var out []core.Collection
	for _, c := range e.src.Collections() {
		if c.WeekNo == weekNo {
			out = append(out, c)
		}
	}
	return out
}

// ExpectedCollectionsForWeek returns the summaries of active members who
// still owe installments (weeksPaid < weeks).
//
// The week parameter is accepted but ignored: the original tracker never
// filtered by it, callers depend on seeing the full list of members still
// owing, and the behavior is pinned by tests. Flagged for product
// clarification rather than silently changed.
func (e *Engine) ExpectedCollectionsForWeek(weekNo int) []MemberSummary {
	_ = weekNo

	collections := e.src.Collections()
	var out []MemberSummary
	for _, m := range e.src.Members() {
		if m.Status != core.StatusActive {
			continue
		}
		s := e.summarizeMember(m, collections)
		if s.WeeksPaid < m.Weeks {
			out = append(out, *s)
		}
	}
	return out
}
