package pipeline

// CanSee reports whether a consultant may read a process. Nobody sees
// processes started before they joined. A consultant restricted to a source
// only sees processes coming from it; an external without a source sees none.
func CanSee(user Consultant, p Process) bool {
	if !user.DateJoined.IsZero() && StartOfDay(p.StartDate).Before(StartOfDay(user.DateJoined)) {
		return false
	}
	if user.LimitedToSource == nil {
		return user.Privilege == PrivilegeAll
	}
	return p.SourceID != nil && *p.SourceID == *user.LimitedToSource
}

// ForUser returns the processes visible to a consultant, preserving order.
func ForUser(user Consultant, processes []Process) []Process {
	visible := make([]Process, 0, len(processes))
	for _, p := range processes {
		if CanSee(user, p) {
			visible = append(visible, p)
		}
	}
	return visible
}

// InterviewsForUser keeps interviews whose process is visible. Interviews of
// processes absent from the map are dropped.
func InterviewsForUser(user Consultant, interviews []Interview, processes map[int64]Process) []Interview {
	visible := make([]Interview, 0, len(interviews))
	for _, itw := range interviews {
		p, ok := processes[itw.ProcessID]
		if !ok || !CanSee(user, p) {
			continue
		}
		visible = append(visible, itw)
	}
	return visible
}
