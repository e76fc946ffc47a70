// Package seed carries the built-in demonstration dataset used when the
// persistence substrate has no saved state. Values are literal and fixed so
// first runs are reproducible.
package seed

import "lendtrack/internal/core"

// Groups returns the three sample lending groups.
func Groups() []core.Group {
	return []core.Group{
		{
			ID:            "seed-g1",
			GroupNo:       "G001",
			GroupName:     "Lakshmi Self Help Group",
			GroupHeadName: "Meena Kumari",
			HeadContact:   "9876543210",
			MeetingDay:    "Monday",
			FormationDate: "2024-01-15",
		},
		{
			ID:            "seed-g2",
			GroupNo:       "G002",
			GroupName:     "Durga Mahila Mandal",
			GroupHeadName: "Savita Patil",
			HeadContact:   "9876501234",
			MeetingDay:    "Wednesday",
			FormationDate: "2024-02-01",
		},
		{
			ID:            "seed-g3",
			GroupNo:       "G003",
			GroupName:     "Annapurna Group",
			GroupHeadName: "Rekha Sharma",
			HeadContact:   "9876512345",
			MeetingDay:    "Friday",
			FormationDate: "2024-03-10",
		},
	}
}

// Members returns the five sample borrowers.
func Members() []core.Member {
	return []core.Member{
		{
			ID: "seed-m1", MemberID: "M001", MemberName: "Devi Lakshmi",
			Address: "12 Gandhi Nagar", Landmark: "Near temple", GroupNo: "G001",
			LoanAmount: 10000, TotalInterest: 4000, Weeks: 14,
			StartDate: "2024-01-22", Status: core.StatusActive,
		},
		{
			ID: "seed-m2", MemberID: "M002", MemberName: "Asha Rani",
			Address: "45 Nehru Street", Landmark: "Opposite school", GroupNo: "G001",
			LoanAmount: 5000, TotalInterest: 1000, Weeks: 10,
			StartDate: "2024-01-22", Status: core.StatusActive,
		},
		{
			ID: "seed-m3", MemberID: "M003", MemberName: "Kavita Bai",
			Address: "8 Market Road", Landmark: "Behind bus stand", GroupNo: "G002",
			LoanAmount: 8000, TotalInterest: 1600, Weeks: 12,
			StartDate: "2024-02-07", Status: core.StatusActive,
		},
		{
			ID: "seed-m4", MemberID: "M004", MemberName: "Sunita Devi",
			Address: "23 Station Road", Landmark: "Next to mill", GroupNo: "G002",
			LoanAmount: 12000, TotalInterest: 3600, Weeks: 16,
			StartDate: "2024-02-07", Status: core.StatusActive,
		},
		{
			ID: "seed-m5", MemberID: "M005", MemberName: "Radha Krishnan",
			Address: "67 Lake View", Landmark: "Near well", GroupNo: "G003",
			LoanAmount: 6000, TotalInterest: 1200, Weeks: 12,
			StartDate: "2024-03-15", Status: core.StatusActive,
		},
	}
}

// Collections returns the five sample repayment events. Principal and
// interest follow the allocation formula over each member's original terms
// (M001: 1000 x 10000/14000 = 714.29, and so on).
func Collections() []core.Collection {
	return []core.Collection{
		{
			ID: "seed-c1", CollectionDate: "2024-01-29", MemberID: "M001", GroupNo: "G001",
			WeekNo: 1, AmountPaid: 1000, PrincipalPaid: 714.29, InterestPaid: 285.71,
			Status: "Collected", CollectedBy: "Meena Kumari",
		},
		{
			ID: "seed-c2", CollectionDate: "2024-02-05", MemberID: "M001", GroupNo: "G001",
			WeekNo: 2, AmountPaid: 1000, PrincipalPaid: 714.29, InterestPaid: 285.71,
			Status: "Collected", CollectedBy: "Meena Kumari",
		},
		{
			ID: "seed-c3", CollectionDate: "2024-01-29", MemberID: "M002", GroupNo: "G001",
			WeekNo: 1, AmountPaid: 600, PrincipalPaid: 500, InterestPaid: 100,
			Status: "Collected", CollectedBy: "Meena Kumari",
		},
		{
			ID: "seed-c4", CollectionDate: "2024-02-14", MemberID: "M003", GroupNo: "G002",
			WeekNo: 1, AmountPaid: 800, PrincipalPaid: 666.67, InterestPaid: 133.33,
			Status: "Collected", CollectedBy: "Savita Patil",
		},
		{
			ID: "seed-c5", CollectionDate: "2024-02-14", MemberID: "M004", GroupNo: "G002",
			WeekNo: 1, AmountPaid: 975, PrincipalPaid: 750, InterestPaid: 225,
			Status: "Collected", CollectedBy: "Savita Patil",
		},
	}
}
