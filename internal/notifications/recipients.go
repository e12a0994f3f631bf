package notifications

import (
	"sort"
	"strings"

	"hiretrack/internal/pipeline"
)

// SourceKind names why a recipient is on the list.
type SourceKind string

const (
	SourceResponsible SourceKind = "responsible"
	SourceSubscriber  SourceKind = "subscriber"
	SourceInformed    SourceKind = "informed"
	SourceOwner       SourceKind = "owner"
	SourceHR          SourceKind = "hr"
)

// RecipientSource is one member of the recipient union: a kind plus either
// consultant ids or a literal mailbox.
type RecipientSource struct {
	Kind          SourceKind
	ConsultantIDs []int64
	Email         string
}

// Recipient is one deduplicated address with every source that selected it.
type Recipient struct {
	Email        string       `json:"email"`
	ConsultantID int64        `json:"consultant_id,omitempty"`
	Sources      []SourceKind `json:"sources"`
}

// SourcesFor lists the recipient sources of a process after recomputation.
// The subsidiary responsible is always copied, even when not currently
// responsible.
func SourcesFor(p pipeline.Process, subsidiary pipeline.Subsidiary, hrEmail string) []RecipientSource {
	sources := []RecipientSource{
		{Kind: SourceResponsible, ConsultantIDs: p.Responsible},
		{Kind: SourceSubscriber, ConsultantIDs: p.Subscribers},
		{Kind: SourceInformed, ConsultantIDs: subsidiary.Informed},
	}
	if subsidiary.ResponsibleID != nil {
		sources = append(sources, RecipientSource{Kind: SourceOwner, ConsultantIDs: []int64{*subsidiary.ResponsibleID}})
	}
	if strings.TrimSpace(hrEmail) != "" {
		sources = append(sources, RecipientSource{Kind: SourceHR, Email: hrEmail})
	}
	return sources
}

// ConsultantIDs returns every consultant id referenced by the sources.
func ConsultantIDs(sources []RecipientSource) []int64 {
	var ids []int64
	for _, src := range sources {
		ids = append(ids, src.ConsultantIDs...)
	}
	return pipeline.NormalizeIDs(ids)
}

// ResolveRecipients merges sources into addresses. Unknown consultants,
// consultants without an email, and inactive consultants are skipped.
// Addresses are compared case-insensitively and returned sorted.
func ResolveRecipients(sources []RecipientSource, consultants map[int64]pipeline.Consultant) []Recipient {
	byEmail := make(map[string]*Recipient)
	add := func(email string, consultantID int64, kind SourceKind) {
		key := strings.ToLower(strings.TrimSpace(email))
		if key == "" {
			return
		}
		r, ok := byEmail[key]
		if !ok {
			r = &Recipient{Email: key, ConsultantID: consultantID}
			byEmail[key] = r
		}
		if r.ConsultantID == 0 {
			r.ConsultantID = consultantID
		}
		for _, existing := range r.Sources {
			if existing == kind {
				return
			}
		}
		r.Sources = append(r.Sources, kind)
	}

	for _, src := range sources {
		if src.Email != "" {
			add(src.Email, 0, src.Kind)
		}
		for _, id := range src.ConsultantIDs {
			c, ok := consultants[id]
			if !ok || !c.Active {
				continue
			}
			add(c.Email, c.ID, src.Kind)
		}
	}

	out := make([]Recipient, 0, len(byEmail))
	for _, r := range byEmail {
		sort.Slice(r.Sources, func(a, b int) bool { return r.Sources[a] < r.Sources[b] })
		out = append(out, *r)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Email < out[b].Email })
	return out
}

// Emails flattens recipients to their addresses.
func Emails(recipients []Recipient) []string {
	out := make([]string, 0, len(recipients))
	for _, r := range recipients {
		out = append(out, r.Email)
	}
	return out
}
