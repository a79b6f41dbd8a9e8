package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Rubric weights evidence components into a composite score.
// Weights need not sum to 1; the composite is clamped to [0,1].
// Anchors and policies are guidance for the model and are not enforced in code.
type Rubric struct {
	Weights  map[string]float64 `json:"weights" yaml:"weights" validate:"required,min=1,dive,keys,required,endkeys,gte=0"`
	Anchors  map[string]any     `json:"anchors,omitempty" yaml:"anchors,omitempty"`
	Policies []string           `json:"policies,omitempty" yaml:"policies,omitempty" validate:"dive,required"`
}

// Validate validates the rubric using the validator.
func (r *Rubric) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid rubric: %w", err)
	}
	return nil
}

// ComponentNames returns the weight keys.
func (r *Rubric) ComponentNames() []string {
	names := make([]string, 0, len(r.Weights))
	for k := range r.Weights {
		names = append(names, k)
	}
	return names
}
