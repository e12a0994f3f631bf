package testsupport

import (
	"context"
	"testing"
	"time"

	"hiretrack/internal/config"
	"hiretrack/internal/pipeline"
	"hiretrack/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// Fixture is a small organisation: one subsidiary with a responsible, an
// informed watcher, two interviewers, an external recruiter limited to a
// source, and one candidate.
type Fixture struct {
	Owner       pipeline.Consultant
	Watcher     pipeline.Consultant
	Interviewer pipeline.Consultant
	Second      pipeline.Consultant
	External    pipeline.Consultant
	Source      pipeline.Source
	Subsidiary  pipeline.Subsidiary
	Candidate   pipeline.Candidate
}

// Seed inserts the standard fixture.
func Seed(t testing.TB, st *store.Store) Fixture {
	t.Helper()

	var fx Fixture
	joined := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	err := st.Update(context.Background(), func(tx *store.Tx) error {
		ctx := context.Background()
		fx.Source = pipeline.Source{Name: "Agency", Category: "agency"}
		if err := tx.InsertSource(ctx, &fx.Source); err != nil {
			return err
		}
		people := []*pipeline.Consultant{&fx.Owner, &fx.Watcher, &fx.Interviewer, &fx.Second}
		specs := []struct{ trigram, email string }{
			{"OWN", "owner@example.com"},
			{"WAT", "watcher@example.com"},
			{"ITW", "interviewer@example.com"},
			{"SEC", "second@example.com"},
		}
		for idx, c := range people {
			*c = pipeline.Consultant{
				Trigram:    specs[idx].trigram,
				FullName:   specs[idx].trigram,
				Email:      specs[idx].email,
				Privilege:  pipeline.PrivilegeAll,
				Active:     true,
				DateJoined: joined,
			}
			if err := tx.InsertConsultant(ctx, c); err != nil {
				return err
			}
		}
		sourceID := fx.Source.ID
		fx.External = pipeline.Consultant{
			Trigram:         "EXT",
			Email:           "external@example.com",
			Privilege:       pipeline.PrivilegeExternalReadOnly,
			LimitedToSource: &sourceID,
			Active:          true,
			DateJoined:      joined,
		}
		if err := tx.InsertConsultant(ctx, &fx.External); err != nil {
			return err
		}
		ownerID := fx.Owner.ID
		fx.Subsidiary = pipeline.Subsidiary{
			Name:          "Acme",
			Code:          "ACME",
			ResponsibleID: &ownerID,
			Informed:      []int64{fx.Watcher.ID},
		}
		if err := tx.InsertSubsidiary(ctx, &fx.Subsidiary); err != nil {
			return err
		}
		fx.Candidate = pipeline.Candidate{
			Name:        "Jane Doe",
			Email:       "jane.doe@example.com",
			Phone:       "+33 6 00 00 00 00",
			LinkedinURL: "https://linkedin.example/jane",
		}
		return tx.InsertCandidate(ctx, &fx.Candidate)
	})
	if err != nil {
		t.Fatalf("seed fixture: %v", err)
	}
	return fx
}
