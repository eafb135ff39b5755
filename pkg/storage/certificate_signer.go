package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CertificateSigner issues and validates the verification codes printed on
// certificates. A code binds a student, an event and the issue time.
type CertificateSigner struct {
	secret []byte
}

// NewCertificateSigner constructs a signer with the provided secret.
func NewCertificateSigner(secret string) *CertificateSigner {
	return &CertificateSigner{secret: []byte(secret)}
}

// Generate returns a signed code for the student/event pair.
func (s *CertificateSigner) Generate(studentID, eventID string, issuedAt time.Time) (string, error) {
	if studentID == "" || eventID == "" {
		return "", fmt.Errorf("studentID and eventID required")
	}
	if len(s.secret) == 0 {
		return "", fmt.Errorf("signing secret missing")
	}
	ts := strconv.FormatInt(issuedAt.Unix(), 10)
	signature := s.sign(studentID, eventID, ts)
	return strings.Join([]string{studentID, eventID, ts, signature}, "."), nil
}

// Parse validates a code and returns the embedded metadata.
func (s *CertificateSigner) Parse(code string) (studentID, eventID string, issuedAt time.Time, err error) {
	parts := strings.Split(code, ".")
	if len(parts) != 4 {
		return "", "", time.Time{}, fmt.Errorf("invalid code format")
	}
	studentID, eventID = parts[0], parts[1]
	ts, signature := parts[2], parts[3]

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("invalid timestamp")
	}

	expected := s.sign(studentID, eventID, ts)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return "", "", time.Time{}, fmt.Errorf("invalid code signature")
	}
	return studentID, eventID, time.Unix(unix, 0).UTC(), nil
}

func (s *CertificateSigner) sign(studentID, eventID, ts string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(studentID + "|" + eventID + "|" + ts))
	return hex.EncodeToString(mac.Sum(nil))
}
