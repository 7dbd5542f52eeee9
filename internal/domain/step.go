package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// StepKind is the wire tag of a step.
type StepKind string

const (
	StepThink   StepKind = "think"
	StepAction  StepKind = "action"
	StepObserve StepKind = "observe"
	StepOutput  StepKind = "output"
)

// Step is one structured unit produced by the model. The set of
// implementations is closed: ThinkStep, ActionStep, ObserveStep, OutputStep.
type Step interface {
	Kind() StepKind
	isStep()
}

// ThinkStep carries model reasoning.
type ThinkStep struct{ Content string }

// ActionStep asks for a tool invocation.
type ActionStep struct {
	Tool  string
	Input string
}

// ObserveStep carries an observation, either model-emitted or synthesized
// from a tool result.
type ObserveStep struct{ Content string }

// OutputStep is the final user-visible answer.
type OutputStep struct{ Content string }

func (ThinkStep) Kind() StepKind   { return StepThink }
func (ActionStep) Kind() StepKind  { return StepAction }
func (ObserveStep) Kind() StepKind { return StepObserve }
func (OutputStep) Kind() StepKind  { return StepOutput }

func (ThinkStep) isStep()   {}
func (ActionStep) isStep()  {}
func (ObserveStep) isStep() {}
func (OutputStep) isStep()  {}

type wireStep struct {
	Step    StepKind `json:"step" validate:"required,oneof=think action observe output"`
	Content string   `json:"content,omitempty"`
	Tool    string   `json:"tool,omitempty"`
	Input   string   `json:"input,omitempty"`
}

var stepValidator = validator.New(validator.WithRequiredStructEnabled())

// ParseStep decodes one model reply. Any failure wraps ErrProtocolViolation.
func ParseStep(raw string) (Step, error) {
	var w wireStep
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &w); err != nil {
		return nil, fmt.Errorf("%w: invalid step JSON: %v", ErrProtocolViolation, err)
	}
	if err := stepValidator.Struct(w); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Field() == "Step" {
			return nil, fmt.Errorf("%w: unknown step %q", ErrProtocolViolation, w.Step)
		}
		return nil, fmt.Errorf("%w: %v", ErrProtocolViolation, err)
	}

	switch w.Step {
	case StepThink:
		return ThinkStep{Content: w.Content}, nil
	case StepAction:
		return ActionStep{Tool: w.Tool, Input: w.Input}, nil
	case StepObserve:
		return ObserveStep{Content: w.Content}, nil
	default:
		return OutputStep{Content: w.Content}, nil
	}
}

// MarshalStep encodes a step in the wire shape. HTML characters are left
// unescaped so file contents read back verbatim.
func MarshalStep(step Step) (string, error) {
	var w wireStep
	switch s := step.(type) {
	case ThinkStep:
		w = wireStep{Step: StepThink, Content: s.Content}
	case ActionStep:
		w = wireStep{Step: StepAction, Tool: s.Tool, Input: s.Input}
	case ObserveStep:
		w = wireStep{Step: StepObserve, Content: s.Content}
	case OutputStep:
		w = wireStep{Step: StepOutput, Content: s.Content}
	default:
		return "", fmt.Errorf("unsupported step type %T", step)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(w); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
