package booking

import (
	"fmt"
	"time"
)

// Stage names one of the three sequential approval checkpoints.
type Stage string

const (
	StageGroupDirector     Stage = "gd"
	StageDirectorSecretary Stage = "ds"
	StageAdministration    Stage = "admin"
)

// Stages lists every stage in approval order.
var Stages = []Stage{StageGroupDirector, StageDirectorSecretary, StageAdministration}

// ParseStage converts a string to a Stage.
func ParseStage(s string) (Stage, error) {
	for _, st := range Stages {
		if string(st) == s {
			return st, nil
		}
	}
	return "", ErrUnknownStage
}

// Role returns the approver role behind the stage.
func (s Stage) Role() string {
	switch s {
	case StageGroupDirector:
		return "Group Director"
	case StageDirectorSecretary:
		return "Director Secretary"
	case StageAdministration:
		return "Administration"
	}
	return string(s)
}

// StageStatus is the state of a single approval stage.
type StageStatus string

const (
	StagePending       StageStatus = "PENDING"
	StageApproved      StageStatus = "APPROVED"
	StageRejected      StageStatus = "REJECTED"
	StageNotApplicable StageStatus = "NOT_APPLICABLE"
)

// IsResolved reports whether an approver has decided the stage.
func (s StageStatus) IsResolved() bool {
	return s == StageApproved || s == StageRejected
}

// ParseStageStatus converts a string to a StageStatus.
func ParseStageStatus(s string) (StageStatus, error) {
	switch st := StageStatus(s); st {
	case StagePending, StageApproved, StageRejected, StageNotApplicable:
		return st, nil
	}
	return "", fmt.Errorf("invalid stage status: %s", s)
}

// Outcome is an approver's decision on a stage.
type Outcome = StageStatus

// StageRecord holds the state of one approval stage.
type StageRecord struct {
	Status    StageStatus `json:"status"`
	Note      string      `json:"note"`
	Timestamp *time.Time  `json:"timestamp"`
}

// Approvals is the fixed set of approval stages on a booking.
type Approvals struct {
	GD    StageRecord `json:"gd"`
	DS    StageRecord `json:"ds"`
	Admin StageRecord `json:"admin"`
}

// InitialApprovals returns the approvals of a freshly submitted booking:
// gd and ds awaiting review, admin not yet applicable.
func InitialApprovals() Approvals {
	return Approvals{
		GD:    StageRecord{Status: StagePending, Note: awaitingNote(StageGroupDirector)},
		DS:    StageRecord{Status: StagePending, Note: awaitingNote(StageDirectorSecretary)},
		Admin: StageRecord{Status: StageNotApplicable, Note: awaitingNote(StageAdministration)},
	}
}

// Get returns the record for stage.
func (a Approvals) Get(stage Stage) (StageRecord, error) {
	switch stage {
	case StageGroupDirector:
		return a.GD, nil
	case StageDirectorSecretary:
		return a.DS, nil
	case StageAdministration:
		return a.Admin, nil
	}
	return StageRecord{}, ErrUnknownStage
}

// with returns a copy of a with stage replaced by rec.
func (a Approvals) with(stage Stage, rec StageRecord) Approvals {
	switch stage {
	case StageGroupDirector:
		a.GD = rec
	case StageDirectorSecretary:
		a.DS = rec
	case StageAdministration:
		a.Admin = rec
	}
	return a
}

// PrerequisitesApproved reports whether gd and ds have both cleared.
func (a Approvals) PrerequisitesApproved() bool {
	return a.GD.Status == StageApproved && a.DS.Status == StageApproved
}

// AllApproved reports whether every stage has cleared.
func (a Approvals) AllApproved() bool {
	return a.PrerequisitesApproved() && a.Admin.Status == StageApproved
}

// AnyRejected reports whether any stage was rejected.
func (a Approvals) AnyRejected() bool {
	return a.GD.Status == StageRejected || a.DS.Status == StageRejected || a.Admin.Status == StageRejected
}

// StageDecision is an approver outcome for a single stage.
type StageDecision struct {
	Stage   Stage
	Outcome Outcome
	Note    string
}

func awaitingNote(stage Stage) string {
	return "Awaiting " + stage.Role() + " review"
}
