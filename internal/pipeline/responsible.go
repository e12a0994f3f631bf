package pipeline

// ResolveResponsible returns the consultants who must act next for a process
// in the given state. last is the highest-ranked interview, or nil. A missing
// subsidiary responsible is simply omitted.
func ResolveResponsible(state ProcessState, last *Interview, subsidiary Subsidiary) []int64 {
	var owner []int64
	if subsidiary.ResponsibleID != nil {
		owner = []int64{*subsidiary.ResponsibleID}
	}

	switch state {
	case StateWaitingInterviewer, StateWaitingNextInterviewer, StateJobOffer:
		return NormalizeIDs(owner)
	case StateWaitingInterviewPlanification, StateInterviewIsPlanned:
		if last == nil {
			return NormalizeIDs(owner)
		}
		return NormalizeIDs(last.Interviewers)
	case StateWaitingITWMinute:
		if last == nil {
			return NormalizeIDs(owner)
		}
		ids := append([]int64(nil), last.Interviewers...)
		if !last.HasMinute() {
			ids = append(ids, owner...)
		}
		return NormalizeIDs(ids)
	default:
		return []int64{}
	}
}
