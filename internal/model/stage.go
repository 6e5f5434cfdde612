package model

// Stage is the workflow state of a return case.  A case passes through the
// five stages strictly in order; workflow_status on the cases table is the
// single source of truth for which stage currently owns the case.  The
// canonical keys below are what is persisted and what the API exchanges;
// human-readable labels live in labels.go and are never parsed back.
type Stage string

const (
	StageDelivered         Stage = "DELIVERED"          // intake by support
	StageTechnicalReview   Stage = "TECHNICAL_REVIEW"   // inspection by a technician
	StagePaymentCollection Stage = "PAYMENT_COLLECTION" // payment handling by sales
	StageShipping          Stage = "SHIPPING"           // return shipment by logistics
	StageCompleted         Stage = "COMPLETED"          // terminal state
)

// stageOrder lists all stages in forward order.  Transition logic and the
// ordinal comparison below derive from this slice, so it must stay sorted.
var stageOrder = []Stage{
	StageDelivered,
	StageTechnicalReview,
	StagePaymentCollection,
	StageShipping,
	StageCompleted,
}

// Stages returns the canonical forward ordering of all workflow stages.
func Stages() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// ParseStage maps a canonical stage key to a Stage.  It returns false for
// anything that is not one of the five known keys; callers must treat that
// as a bad request, never as a default stage.
func ParseStage(s string) (Stage, bool) {
	for _, st := range stageOrder {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// ordinal returns the position of the stage in the forward order, or -1 for
// an unknown value.
func (s Stage) ordinal() int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the five known stages.
func (s Stage) Valid() bool { return s.ordinal() >= 0 }

// Next returns the stage that follows s in the forward order.  The second
// return value is false when s is terminal (COMPLETED) or unknown.
func (s Stage) Next() (Stage, bool) {
	i := s.ordinal()
	if i < 0 || i == len(stageOrder)-1 {
		return "", false
	}
	return stageOrder[i+1], true
}

// Terminal reports whether s has no forward transition.
func (s Stage) Terminal() bool { return s == StageCompleted }

// After reports whether s comes strictly after other in the forward order.
// Unknown stages compare as -1 and therefore never come after anything.
func (s Stage) After(other Stage) bool { return s.ordinal() > other.ordinal() }
