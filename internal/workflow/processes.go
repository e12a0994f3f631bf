package workflow

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"hiretrack/internal/fileutil"
	"hiretrack/internal/logging"
	"hiretrack/internal/pipeline"
	"hiretrack/internal/services"
	"hiretrack/internal/store"
	"hiretrack/internal/textutil"
)

// ProcessInput describes a new process.
type ProcessInput struct {
	CandidateID       int64
	SubsidiaryID      int64
	SourceID          *int64
	ContractTypeID    *int64
	SalaryExpectation *int
	ContractDuration  *int
	ContractStartDate *time.Time
	// StartDate defaults to today.
	StartDate         time.Time
	OtherInformations string
	Subscribers       []int64
}

// CreateCandidate stores a new candidate.
func (m *Manager) CreateCandidate(ctx context.Context, candidate pipeline.Candidate, opts ...WriteOption) (pipeline.Candidate, error) {
	options := resolveWriteOptions(opts)
	if err := options.authorize("create candidate"); err != nil {
		return pipeline.Candidate{}, err
	}
	candidate.ID = 0
	candidate.Anonymized = false
	candidate.AnonymizedHashedName = ""
	candidate.AnonymizedHashedEmail = ""
	err := m.store.Update(ctx, func(tx *store.Tx) error {
		return tx.InsertCandidate(ctx, &candidate)
	})
	if err != nil {
		return pipeline.Candidate{}, err
	}
	return candidate, nil
}

// CreateProcess opens a process for a candidate. The new process starts in
// WAITING_INTERVIEWER_TO_BE_DESIGNED with the subsidiary responsible in charge.
func (m *Manager) CreateProcess(ctx context.Context, in ProcessInput, opts ...WriteOption) (pipeline.Process, error) {
	options := resolveWriteOptions(opts)
	if err := options.authorize("create process"); err != nil {
		return pipeline.Process{}, err
	}
	start := in.StartDate
	if start.IsZero() {
		start = m.now()
	}
	p := pipeline.Process{
		CandidateID:       in.CandidateID,
		SubsidiaryID:      in.SubsidiaryID,
		SourceID:          in.SourceID,
		ContractTypeID:    in.ContractTypeID,
		SalaryExpectation: in.SalaryExpectation,
		ContractDuration:  in.ContractDuration,
		ContractStartDate: in.ContractStartDate,
		StartDate:         pipeline.StartOfDay(start),
		OtherInformations: strings.TrimSpace(in.OtherInformations),
		Subscribers:       pipeline.NormalizeIDs(in.Subscribers),
	}
	if options.actor != nil && !pipeline.CanSee(*options.actor, p) {
		return pipeline.Process{}, services.Wrap(services.ErrPermission, "workflow", "create process",
			"process would not be visible to "+options.actor.Trigram, nil)
	}

	var enqueued bool
	err := m.store.Update(ctx, func(tx *store.Tx) error {
		candidate, err := tx.Candidate(ctx, in.CandidateID)
		if err != nil {
			return err
		}
		if candidate.Anonymized {
			return validation("create process", fmt.Sprintf("candidate %d is anonymized", candidate.ID))
		}
		if p.ContractTypeID != nil {
			ct, err := tx.ContractType(ctx, *p.ContractTypeID)
			if err != nil {
				return err
			}
			if !ct.HasDuration {
				p.ContractDuration = nil
			}
		}
		if err := requireConsultants(ctx, tx, "create process", p.Subscribers); err != nil {
			return err
		}
		enqueued, err = m.commitProcess(ctx, tx, &p, nil, options)
		return err
	})
	if err != nil {
		return pipeline.Process{}, err
	}
	m.logger.Info("process created",
		logging.Int64(logging.FieldProcessID, p.ID),
		logging.Int64(logging.FieldCandidateID, p.CandidateID),
		logging.String("state", string(p.State)),
	)
	m.afterCommit(ctx, enqueued)
	return p, nil
}

// SetProcessState sets an explicit state override. Only HIRED, NO_GO,
// CANDIDATE_DECLINED, JOB_OFFER, JOB_OFFER_DECLINED and OTHER are accepted;
// closed states stamp the end date.
func (m *Manager) SetProcessState(ctx context.Context, processID int64, state string, comment string, opts ...WriteOption) (pipeline.Process, error) {
	target, ok := pipeline.ParseProcessState(state)
	if !ok || !target.IsOverride() {
		return pipeline.Process{}, invalidTransition("set process state",
			fmt.Sprintf("%q cannot be set explicitly", state))
	}
	return m.updateProcess(ctx, processID, "set process state", opts, func(tx *store.Tx, p *pipeline.Process) error {
		p.Close(target, comment)
		return nil
	})
}

// CloseProcess ends a process with a closed state.
func (m *Manager) CloseProcess(ctx context.Context, processID int64, state string, comment string, opts ...WriteOption) (pipeline.Process, error) {
	target, ok := pipeline.ParseProcessState(state)
	if !ok || !target.IsClosed() {
		return pipeline.Process{}, invalidTransition("close process",
			fmt.Sprintf("%q is not a closed state", state))
	}
	return m.SetProcessState(ctx, processID, string(target), comment, opts...)
}

// ReopenProcess clears the override and end date of a closed process (or a
// JOB_OFFER). A NO_GO on the current last interview stops counting, so the
// process resumes waiting for the next interviewer.
func (m *Manager) ReopenProcess(ctx context.Context, processID int64, opts ...WriteOption) (pipeline.Process, error) {
	return m.updateProcess(ctx, processID, "reopen process", opts, func(tx *store.Tx, p *pipeline.Process) error {
		if p.Override == "" && !p.State.IsClosed() {
			return invalidTransition("reopen process", fmt.Sprintf("process %d is already open", p.ID))
		}
		interviews, err := tx.InterviewsByProcess(ctx, p.ID)
		if err != nil {
			return err
		}
		p.Reopen(interviews)
		return nil
	})
}

// Subscribe adds a consultant to the process's notification list.
func (m *Manager) Subscribe(ctx context.Context, processID, consultantID int64, opts ...WriteOption) (pipeline.Process, error) {
	return m.updateProcess(ctx, processID, "subscribe", opts, func(tx *store.Tx, p *pipeline.Process) error {
		if err := requireConsultants(ctx, tx, "subscribe", []int64{consultantID}); err != nil {
			return err
		}
		p.Subscribers = pipeline.NormalizeIDs(append(p.Subscribers, consultantID))
		return nil
	})
}

// Unsubscribe removes a consultant from the process's notification list.
func (m *Manager) Unsubscribe(ctx context.Context, processID, consultantID int64, opts ...WriteOption) (pipeline.Process, error) {
	return m.updateProcess(ctx, processID, "unsubscribe", opts, func(tx *store.Tx, p *pipeline.Process) error {
		kept := p.Subscribers[:0:0]
		for _, id := range p.Subscribers {
			if id != consultantID {
				kept = append(kept, id)
			}
		}
		p.Subscribers = kept
		return nil
	})
}

// UpdateProcessNotes replaces the free-text information of a process.
func (m *Manager) UpdateProcessNotes(ctx context.Context, processID int64, notes string, opts ...WriteOption) (pipeline.Process, error) {
	return m.updateProcess(ctx, processID, "update process notes", opts, func(tx *store.Tx, p *pipeline.Process) error {
		p.OtherInformations = strings.TrimSpace(notes)
		return nil
	})
}

func (m *Manager) updateProcess(ctx context.Context, processID int64, operation string, opts []WriteOption, mutate func(*store.Tx, *pipeline.Process) error) (pipeline.Process, error) {
	options := resolveWriteOptions(opts)
	var (
		p        pipeline.Process
		prev     pipeline.ProcessState
		enqueued bool
	)
	err := m.store.Update(ctx, func(tx *store.Tx) error {
		loaded, err := loadProcessForWrite(ctx, tx, processID, operation, options)
		if err != nil {
			return err
		}
		p = loaded
		prev = p.State
		before := snapshotOf(p)
		if err := mutate(tx, &p); err != nil {
			return err
		}
		enqueued, err = m.commitProcess(ctx, tx, &p, before, options)
		return err
	})
	if err != nil {
		return pipeline.Process{}, err
	}
	if prev != p.State {
		m.logger.Info("process state changed",
			logging.Int64(logging.FieldProcessID, p.ID),
			logging.String("operation", operation),
			logging.String("old_state", string(prev)),
			logging.String("new_state", string(p.State)),
		)
	}
	m.afterCommit(ctx, enqueued)
	return p, nil
}

// AddDocument copies a file into the documents directory and attaches it to
// the candidate.
func (m *Manager) AddDocument(ctx context.Context, candidateID int64, kind string, sourcePath string, opts ...WriteOption) (pipeline.Document, error) {
	options := resolveWriteOptions(opts)
	if err := options.authorize("add document"); err != nil {
		return pipeline.Document{}, err
	}
	docKind, ok := pipeline.ParseDocumentKind(kind)
	if !ok {
		return pipeline.Document{}, validation("add document", fmt.Sprintf("unknown document kind %q", kind))
	}

	dir := filepath.Join(m.cfg.Paths.DocumentsDir, strconv.FormatInt(candidateID, 10))
	target := filepath.Join(dir, fmt.Sprintf("%s_%d_%s", docKind, m.now().UnixNano(), textutil.SanitizeFileName(filepath.Base(sourcePath))))
	doc := pipeline.Document{CandidateID: candidateID, Kind: docKind, Path: target, StillValid: true}

	err := m.store.Update(ctx, func(tx *store.Tx) error {
		candidate, err := tx.Candidate(ctx, candidateID)
		if err != nil {
			return err
		}
		if candidate.Anonymized {
			return validation("add document", fmt.Sprintf("candidate %d is anonymized", candidateID))
		}
		if _, err := fileutil.CopyDocument(sourcePath, target); err != nil {
			return services.Wrap(services.ErrValidation, "workflow", "add document", "copy document", err)
		}
		if err := tx.InsertDocument(ctx, &doc); err != nil {
			_ = fileutil.RemoveIfExists(target)
			return err
		}
		return nil
	})
	if err != nil {
		return pipeline.Document{}, err
	}
	return doc, nil
}
