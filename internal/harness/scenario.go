package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/portmanteau/internal/criteria"
	"github.com/roach88/portmanteau/internal/interval"
	"github.com/roach88/portmanteau/internal/ir"
)

// Scenario is a weak-convergence test case.
// Field tags serve both the YAML loader and CUE decoding.
type Scenario struct {
	// Name uniquely identifies this scenario; golden files are keyed by it.
	Name string `yaml:"name" json:"name"`

	// Description explains what this scenario demonstrates.
	Description string `yaml:"description" json:"description"`

	// Limit is the candidate limit measure.
	Limit MeasureSpec `yaml:"limit" json:"limit"`

	// Sequence is the measure sequence mu_n.
	Sequence SequenceSpec `yaml:"sequence" json:"sequence"`

	// Sets are the targets of the derivation. Each must be a continuity
	// set of the limit for the derivation to succeed.
	Sets []string `yaml:"sets,omitempty" json:"sets,omitempty"`

	// Opens and Closeds are checked directly with the one-sided criteria.
	Opens   []string `yaml:"opens,omitempty" json:"opens,omitempty"`
	Closeds []string `yaml:"closeds,omitempty" json:"closeds,omitempty"`

	// Assertions validate the run.
	Assertions []Assertion `yaml:"assertions" json:"assertions"`

	// RunID is an optional fixed run id base for deterministic ledgers.
	RunID string `yaml:"run_id,omitempty" json:"run_id,omitempty"`
}

// MeasureSpec describes a probability measure on [0,1].
type MeasureSpec struct {
	Kind  string     `yaml:"kind" json:"kind"`
	A     string     `yaml:"a,omitempty" json:"a,omitempty"`
	B     string     `yaml:"b,omitempty" json:"b,omitempty"`
	At    string     `yaml:"at,omitempty" json:"at,omitempty"`
	Atoms []AtomSpec `yaml:"atoms,omitempty" json:"atoms,omitempty"`
	Parts []PartSpec `yaml:"parts,omitempty" json:"parts,omitempty"`
}

// AtomSpec is one weighted point of an atoms measure.
type AtomSpec struct {
	At     string `yaml:"at" json:"at"`
	Weight string `yaml:"weight" json:"weight"`
}

// PartSpec is one weighted component of a mixture.
type PartSpec struct {
	Weight  string      `yaml:"weight" json:"weight"`
	Measure MeasureSpec `yaml:"measure" json:"measure"`
}

// SequenceSpec is a finite head followed by a repeating cycle of paths.
type SequenceSpec struct {
	Head  []MeasureSpec `yaml:"head,omitempty" json:"head,omitempty"`
	Cycle []PathSpec    `yaml:"cycle" json:"cycle"`
}

// PathSpec describes one cycle path.
type PathSpec struct {
	Kind string `yaml:"kind" json:"kind"`

	// Measure is used by steady.
	Measure *MeasureSpec `yaml:"measure,omitempty" json:"measure,omitempty"`

	// From and To are used by blend.
	From *MeasureSpec `yaml:"from,omitempty" json:"from,omitempty"`
	To   *MeasureSpec `yaml:"to,omitempty" json:"to,omitempty"`

	// At and Offset are used by drift.
	At     string `yaml:"at,omitempty" json:"at,omitempty"`
	Offset string `yaml:"offset,omitempty" json:"offset,omitempty"`
}

// Assertion validates one property of a run.
type Assertion struct {
	Type  string `yaml:"type" json:"type"`
	Set   string `yaml:"set,omitempty" json:"set,omitempty"`
	Value string `yaml:"value,omitempty" json:"value,omitempty"`

	// Kind and Code are used by violation.
	Kind string `yaml:"kind,omitempty" json:"kind,omitempty"`
	Code string `yaml:"code,omitempty" json:"code,omitempty"`
}

// Measure kinds.
const (
	MeasureUniform   = "uniform"
	MeasureUniformOn = "uniform_on"
	MeasureDirac     = "dirac"
	MeasureAtoms     = "atoms"
	MeasureMixture   = "mixture"
)

// Path kinds.
const (
	PathSteady = "steady"
	PathBlend  = "blend"
	PathDrift  = "drift"
)

// Assertion type constants.
const (
	AssertLiminfHolds    = "liminf_holds"
	AssertLimsupHolds    = "limsup_holds"
	AssertPointwiseLimit = "pointwise_limit"
	AssertContinuity     = "continuity"
	AssertNotContinuity  = "not_continuity"
	AssertMass           = "mass"
	AssertRoundTrip      = "round_trip"
	AssertViolation      = "violation"
)

// ErrInvalidScenario wraps every structural problem found by Validate.
var ErrInvalidScenario = errors.New("invalid scenario")

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ReadScenario reads a scenario YAML file without validating it, so a
// caller can collect every problem instead of the first.
func ReadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return DecodeScenario(data)
}

// ParseScenario decodes and validates a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	scenario, err := DecodeScenario(data)
	if err != nil {
		return nil, err
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	return scenario, nil
}

// DecodeScenario decodes a YAML scenario, rejecting unknown fields.
func DecodeScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse YAML: empty document")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// Validate checks required fields and set syntax. It does not build the
// measures; Build reports numeric problems.
func (s *Scenario) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidScenario, fmt.Sprintf(format, args...))
	}

	if s.Name == "" {
		return fail("name is required")
	}
	if s.Description == "" {
		return fail("description is required")
	}
	if err := validateMeasure("limit", &s.Limit); err != nil {
		return fail("%v", err)
	}
	for i := range s.Sequence.Head {
		if err := validateMeasure(fmt.Sprintf("sequence.head[%d]", i), &s.Sequence.Head[i]); err != nil {
			return fail("%v", err)
		}
	}
	if len(s.Sequence.Cycle) == 0 {
		return fail("sequence.cycle is required and must be non-empty")
	}
	for i := range s.Sequence.Cycle {
		if err := validatePath(fmt.Sprintf("sequence.cycle[%d]", i), &s.Sequence.Cycle[i]); err != nil {
			return fail("%v", err)
		}
	}

	for field, list := range map[string][]string{"sets": s.Sets, "opens": s.Opens, "closeds": s.Closeds} {
		for i, text := range list {
			if _, err := interval.Parse(text); err != nil {
				return fail("%s[%d]: %v", field, i, err)
			}
		}
	}

	if len(s.Assertions) == 0 {
		return fail("assertions list is required and must be non-empty")
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return fail("%v", err)
		}
	}
	return nil
}

func validateMeasure(field string, m *MeasureSpec) error {
	switch m.Kind {
	case "":
		return fmt.Errorf("%s: kind is required", field)
	case MeasureUniform:
	case MeasureUniformOn:
		if m.A == "" || m.B == "" {
			return fmt.Errorf("%s: uniform_on needs a and b", field)
		}
	case MeasureDirac:
		if m.At == "" {
			return fmt.Errorf("%s: dirac needs at", field)
		}
	case MeasureAtoms:
		if len(m.Atoms) == 0 {
			return fmt.Errorf("%s: atoms list is required", field)
		}
	case MeasureMixture:
		if len(m.Parts) == 0 {
			return fmt.Errorf("%s: parts list is required", field)
		}
		for i := range m.Parts {
			if err := validateMeasure(fmt.Sprintf("%s.parts[%d].measure", field, i), &m.Parts[i].Measure); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%s: unknown measure kind %q", field, m.Kind)
	}
	return nil
}

func validatePath(field string, p *PathSpec) error {
	switch p.Kind {
	case "":
		return fmt.Errorf("%s: kind is required", field)
	case PathSteady:
		if p.Measure == nil {
			return fmt.Errorf("%s: steady needs measure", field)
		}
		return validateMeasure(field+".measure", p.Measure)
	case PathBlend:
		if p.From == nil || p.To == nil {
			return fmt.Errorf("%s: blend needs from and to", field)
		}
		if err := validateMeasure(field+".from", p.From); err != nil {
			return err
		}
		return validateMeasure(field+".to", p.To)
	case PathDrift:
		if p.At == "" || p.Offset == "" {
			return fmt.Errorf("%s: drift needs at and offset", field)
		}
	default:
		return fmt.Errorf("%s: unknown path kind %q", field, p.Kind)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	needSet := func() error {
		if a.Set == "" {
			return fmt.Errorf("assertions[%d]: set is required for %s", index, a.Type)
		}
		if _, err := interval.Parse(a.Set); err != nil {
			return fmt.Errorf("assertions[%d]: %v", index, err)
		}
		return nil
	}

	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertLiminfHolds, AssertLimsupHolds, AssertPointwiseLimit,
		AssertContinuity, AssertNotContinuity:
		return needSet()
	case AssertMass:
		if a.Value == "" {
			return fmt.Errorf("assertions[%d]: value is required for mass", index)
		}
		return needSet()
	case AssertRoundTrip:
		return nil
	case AssertViolation:
		switch criteria.Kind(a.Kind) {
		case criteria.KindLiminf, criteria.KindLimsup, criteria.KindPointwise:
		default:
			return fmt.Errorf("assertions[%d]: violation kind must be %s, %s or %s",
				index, criteria.KindLiminf, criteria.KindLimsup, criteria.KindPointwise)
		}
		return needSet()
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
}

// IR returns the normalized form hashed by ir.ScenarioDigest. Assertions
// and run ids are excluded: they do not change what is derived.
func (s *Scenario) IR() ir.IRObject {
	cycle := make(ir.IRArray, len(s.Sequence.Cycle))
	for i, p := range s.Sequence.Cycle {
		cycle[i] = p.IR()
	}
	head := make(ir.IRArray, len(s.Sequence.Head))
	for i, m := range s.Sequence.Head {
		head[i] = m.IR()
	}
	return ir.Object(
		ir.O("name", ir.IRString(s.Name)),
		ir.O("limit", s.Limit.IR()),
		ir.O("head", head),
		ir.O("cycle", cycle),
		ir.O("sets", ir.Strings(canonicalSets(s.Sets))),
		ir.O("opens", ir.Strings(canonicalSets(s.Opens))),
		ir.O("closeds", ir.Strings(canonicalSets(s.Closeds))),
	)
}

// IR returns the normalized form of a measure spec.
func (m MeasureSpec) IR() ir.IRObject {
	obj := ir.Object(ir.O("kind", ir.IRString(m.Kind)))
	for k, v := range map[string]string{"a": m.A, "b": m.B, "at": m.At} {
		if v != "" {
			obj[k] = ir.IRString(v)
		}
	}
	if len(m.Atoms) > 0 {
		atoms := make(ir.IRArray, len(m.Atoms))
		for i, a := range m.Atoms {
			atoms[i] = ir.Object(ir.O("at", ir.IRString(a.At)), ir.O("weight", ir.IRString(a.Weight)))
		}
		obj["atoms"] = atoms
	}
	if len(m.Parts) > 0 {
		parts := make(ir.IRArray, len(m.Parts))
		for i, p := range m.Parts {
			parts[i] = ir.Object(ir.O("weight", ir.IRString(p.Weight)), ir.O("measure", p.Measure.IR()))
		}
		obj["parts"] = parts
	}
	return obj
}

// IR returns the normalized form of a path spec.
func (p PathSpec) IR() ir.IRObject {
	obj := ir.Object(ir.O("kind", ir.IRString(p.Kind)))
	if p.Measure != nil {
		obj["measure"] = p.Measure.IR()
	}
	if p.From != nil {
		obj["from"] = p.From.IR()
	}
	if p.To != nil {
		obj["to"] = p.To.IR()
	}
	if p.At != "" {
		obj["at"] = ir.IRString(p.At)
	}
	if p.Offset != "" {
		obj["offset"] = ir.IRString(p.Offset)
	}
	return obj
}

// canonicalSets rewrites set literals in canonical form so "[0, 0.50]" and
// "[0,0.5]" hash alike. Unparseable text is kept verbatim.
func canonicalSets(in []string) []string {
	out := make([]string, len(in))
	for i, text := range in {
		if s, err := interval.Parse(text); err == nil {
			out[i] = s.String()
		} else {
			out[i] = text
		}
	}
	return out
}
