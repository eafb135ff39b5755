package models

import "time"

// Certificate eligibility reasons.
const (
	ReasonNotRegistered = "Student is not registered for this event."
	ReasonNoAttendance  = "No attendance record found for this student."
	ReasonAbsent        = "Student was absent for this event."
	ReasonEligible      = "Student is eligible for certificate."
)

// CertificateEligibility is the outcome of an eligibility check.
type CertificateEligibility struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason"`
}

// CertificateVerification describes a validated verification code.
type CertificateVerification struct {
	Valid       bool      `json:"valid"`
	StudentID   string    `json:"studentId"`
	StudentName string    `json:"studentName"`
	EventID     string    `json:"eventId"`
	EventTitle  string    `json:"eventTitle"`
	IssuedAt    time.Time `json:"issuedAt"`
}
