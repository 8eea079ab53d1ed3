package loadcase

import (
	"fmt"
	"strings"
)

// Status is the resolution state of a load case.
type Status int

const (
	Pending Status = iota
	Resolved
	Failed
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// LoadCase is one operating condition of the rotor.
//
// Resolved data is written once per calc_loads pass by the worker that ran
// the case and read only after all workers finished, so it carries no lock.
type LoadCase struct {
	Name       string     `json:"name"`
	Speed      float64    `json:"speed"`           // flight speed, m/s
	RPM        float64    `json:"rpm"`             // 1/min
	Pitch      float64    `json:"pitch,omitempty"` // collective pitch change, deg
	Atmosphere Atmosphere `json:"atmosphere"`

	// Prescription overrides the default, which prescribes RPM.
	Prescription *Prescription `json:"prescription,omitempty"`

	status  Status
	result  *Result
	failure error
}

// New creates a load case prescribing rotational speed.
func New(name string, speed, rpm float64) *LoadCase {
	return &LoadCase{Name: name, Speed: speed, RPM: rpm}
}

// Operating returns the prescription sent to the solver.
func (c *LoadCase) Operating() Prescription {
	if c.Prescription != nil {
		return *c.Prescription
	}
	return Prescription{Mode: RPM, Value: c.RPM}
}

// Validate checks the operating condition.
func (c *LoadCase) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{"load case must have a name"}
	}
	if c.Speed < 0 {
		return &ValidationError{fmt.Sprintf("load case %s: flight speed must not be negative", c.Name)}
	}
	if c.Prescription == nil && c.RPM <= 0 {
		return &ValidationError{fmt.Sprintf("load case %s: rpm must be positive", c.Name)}
	}
	if err := c.Operating().Validate(); err != nil {
		return &ValidationError{fmt.Sprintf("load case %s: %v", c.Name, err)}
	}
	if err := c.Atmosphere.Validate(); err != nil {
		return &ValidationError{fmt.Sprintf("load case %s: %v", c.Name, err)}
	}
	return nil
}

// Status returns the resolution state.
func (c *LoadCase) Status() Status {
	return c.status
}

// Result returns the resolved data, or nil unless the case is resolved.
func (c *LoadCase) Result() *Result {
	if c.status != Resolved {
		return nil
	}
	return c.result
}

// Failure returns why the case failed, or nil.
func (c *LoadCase) Failure() error {
	return c.failure
}

// Resolve stores the result of a successful run.
func (c *LoadCase) Resolve(r *Result) {
	c.status = Resolved
	c.result = r
	c.failure = nil
}

// Fail marks the case as failed and drops any earlier result.
func (c *LoadCase) Fail(err error) {
	c.status = Failed
	c.result = nil
	c.failure = err
}

// Reset returns the case to pending.
func (c *LoadCase) Reset() {
	c.status = Pending
	c.result = nil
	c.failure = nil
}

func (c *LoadCase) String() string {
	return fmt.Sprintf("%s (V=%g m/s, %s)", c.Name, c.Speed, c.Operating())
}

// ValidationError represents an invalid load case definition.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}
