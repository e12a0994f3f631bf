package pipeline

import (
	"strings"
	"time"
)

// Privilege is a consultant's access level.
type Privilege int

const (
	PrivilegeAll              Privilege = 1
	PrivilegeExternalExtra    Privilege = 2
	PrivilegeExternalFull     Privilege = 3
	PrivilegeExternalReadOnly Privilege = 4
)

// ParsePrivilege accepts the numeric level or its name.
func ParsePrivilege(value string) (Privilege, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "all", "insider":
		return PrivilegeAll, true
	case "2", "external_extra", "external-extra":
		return PrivilegeExternalExtra, true
	case "3", "external_full", "external-full":
		return PrivilegeExternalFull, true
	case "4", "external_readonly", "external-readonly":
		return PrivilegeExternalReadOnly, true
	}
	return 0, false
}

func (p Privilege) String() string {
	switch p {
	case PrivilegeAll:
		return "all"
	case PrivilegeExternalExtra:
		return "external_extra"
	case PrivilegeExternalFull:
		return "external_full"
	case PrivilegeExternalReadOnly:
		return "external_readonly"
	default:
		return "unknown"
	}
}

// Consultant is a user of the tracker: an interviewer, a subsidiary
// responsible, or an external recruiter.
type Consultant struct {
	ID              int64
	Trigram         string
	FullName        string
	Email           string
	Privilege       Privilege
	LimitedToSource *int64
	SubsidiaryID    *int64
	Active          bool
	DateJoined      time.Time
}

// IsExternal reports whether the consultant works outside the company.
func (c Consultant) IsExternal() bool {
	return c.LimitedToSource != nil || c.Privilege != PrivilegeAll
}

// CanWrite reports whether the consultant may mutate processes and interviews.
func (c Consultant) CanWrite() bool {
	return c.Privilege != PrivilegeExternalReadOnly && c.Active
}

// Subsidiary is a company entity processes are run for.
type Subsidiary struct {
	ID            int64
	Name          string
	Code          string
	ResponsibleID *int64
	Informed      []int64
}

// Candidate is a person going through one or more processes.
type Candidate struct {
	ID                    int64
	Name                  string
	Email                 string
	Phone                 string
	LinkedinURL           string
	Anonymized            bool
	AnonymizedHashedName  string
	AnonymizedHashedEmail string
	CreatedAt             time.Time
}

// DocumentKind classifies an uploaded candidate document.
type DocumentKind string

const (
	DocumentCV          DocumentKind = "CV"
	DocumentCoverLetter DocumentKind = "CL"
	DocumentOther       DocumentKind = "OT"
)

// ParseDocumentKind converts a user-supplied kind.
func ParseDocumentKind(value string) (DocumentKind, bool) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "CV":
		return DocumentCV, true
	case "CL", "COVER_LETTER":
		return DocumentCoverLetter, true
	case "OT", "OTHER":
		return DocumentOther, true
	}
	return "", false
}

// Document is a file attached to a candidate.
type Document struct {
	ID          int64
	CandidateID int64
	Kind        DocumentKind
	Path        string
	StillValid  bool
	CreatedAt   time.Time
}

// Source is where a candidate came from (job board, referral, agency).
type Source struct {
	ID       int64
	Name     string
	Category string
	Archived bool
}

// ContractType describes an offered contract.
type ContractType struct {
	ID          int64
	Name        string
	HasDuration bool
}
