package driver

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"primesum/internal/partition"
	"primesum/internal/registry"
)

// ErrInvalidConfiguration is wrapped by every error that rejects a run
// before any worker starts.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// MaxPrimeRangeEnd is the largest accepted range end. Keeping it at half the
// int64 range leaves headroom for partition arithmetic and the p++ loop step.
const MaxPrimeRangeEnd int64 = math.MaxInt64 / 2

// Options describes a run: which integers to scan, in which bases, with how
// many workers and under which violation policy.
type Options struct {
	PrimeRangeStart int64           `validate:"gte=1"`
	PrimeRangeEnd   int64           `validate:"gtefield=PrimeRangeStart"`
	Bases           []int64         `validate:"required,min=1,dive,gte=2"`
	Workers         int             `validate:"gte=1"`
	Policy          registry.Policy `validate:"policy"`
}

// optionsValidate is the validator instance for run options.
// Initialized in init() with the policy validator.
var optionsValidate *validator.Validate

func init() {
	optionsValidate = validator.New()
	_ = optionsValidate.RegisterValidation("policy", validatePolicy)
}

func validatePolicy(fl validator.FieldLevel) bool {
	p := registry.Policy(fl.Field().Int())
	for _, known := range registry.Policies {
		if p == known {
			return true
		}
	}
	return false
}

// Validate checks the options and returns an error wrapping
// ErrInvalidConfiguration that names every offending field.
func (o Options) Validate() error {
	var msgs []string
	if err := optionsValidate.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
		}
		for _, fe := range verrs {
			msgs = append(msgs, describe(fe))
		}
	}

	// Upper bounds live in constants, not tags.
	if o.PrimeRangeEnd > MaxPrimeRangeEnd {
		msgs = append(msgs, fmt.Sprintf("PrimeRangeEnd must be <= %d (got %d)", MaxPrimeRangeEnd, o.PrimeRangeEnd))
	}
	if o.Workers > partition.MaxWorkers {
		msgs = append(msgs, fmt.Sprintf("Workers must be <= %d (got %d)", partition.MaxWorkers, o.Workers))
	}

	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "min":
		return fmt.Sprintf("%s must not be empty", field)
	case "gte":
		return fmt.Sprintf("%s must be >= %s (got %v)", field, fe.Param(), fe.Value())
	case "gtefield":
		return fmt.Sprintf("%s must be >= %s (got %v)", field, fe.Param(), fe.Value())
	case "policy":
		return fmt.Sprintf("%s %v is not a known policy", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// EffectiveRange clamps the start to 2, the smallest prime. The result is
// empty when the whole requested range lies below 2.
func (o Options) EffectiveRange() partition.WorkRange {
	return partition.WorkRange{Start: max(o.PrimeRangeStart, 2), End: o.PrimeRangeEnd}
}
