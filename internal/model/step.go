package model

// StepState is the outcome of one extraction step
type StepState string

const (
	StepSuccess StepState = "success"
	StepSkip    StepState = "skip" // Collaborator unavailable or nothing to do
	StepFail    StepState = "fail" // Attempted and failed; evidence gathered so far is kept
)

// StepOutcome is the explicit result of one extraction step
type StepOutcome struct {
	Name      string
	State     StepState
	Fragments []Fragment
	Err       error
}

// Succeeded builds a success outcome
func Succeeded(name string, fragments ...Fragment) StepOutcome {
	return StepOutcome{Name: name, State: StepSuccess, Fragments: fragments}
}

// Skipped builds a skip outcome
func Skipped(name string, reason error) StepOutcome {
	return StepOutcome{Name: name, State: StepSkip, Err: reason}
}

// Failed builds a failure outcome
func Failed(name string, err error) StepOutcome {
	return StepOutcome{Name: name, State: StepFail, Err: err}
}

// StepReport is the serialisable form of a StepOutcome
type StepReport struct {
	Name  string    `json:"name"`
	State StepState `json:"state"`
	Error string    `json:"error,omitempty"`
}

// Report converts the outcome for responses
func (o StepOutcome) Report() StepReport {
	r := StepReport{Name: o.Name, State: o.State}
	if o.Err != nil {
		r.Error = o.Err.Error()
	}
	return r
}
