package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/habit-tracker-api/internal/constants"
	"github.com/yukikurage/habit-tracker-api/internal/logger"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrStoreTimeout = errors.New("the request timed out, please retry")
)

// ValidationError reports input that failed its schema. Kind is the sentinel
// callers match with errors.Is; Fields maps field name to the failed rule.
type ValidationError struct {
	Kind   error
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return e.Kind.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Field limits live in constants; tags refer to them through aliases.
	v.RegisterAlias("habitname", fmt.Sprintf("max=%d", constants.MaxHabitNameLength))
	v.RegisterAlias("habitdesc", fmt.Sprintf("max=%d", constants.MaxHabitDescriptionLength))
	v.RegisterAlias("habiticon", fmt.Sprintf("max=%d", constants.MaxHabitIconLength))
	v.RegisterAlias("habitcolor", "len=7,hexcolor")
	v.RegisterAlias("suggesttext", fmt.Sprintf("max=%d", constants.MaxAIInputLength))
	return v
}

func validateStruct(kind error, v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Kind: kind}
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = fe.ActualTag()
	}
	return &ValidationError{Kind: kind, Fields: fields}
}

// Options carries the settings shared by the services.
type Options struct {
	// StoreTimeout bounds each store round trip; zero means no bound.
	StoreTimeout time.Duration
	// EnforceNoFutureDates rejects entry toggles for days after today.
	EnforceNoFutureDates bool
	Logger               *log.Logger
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = logger.Discard()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// DefaultOptions mirrors the production defaults.
func DefaultOptions() Options {
	return Options{
		StoreTimeout:         constants.DefaultStoreTimeout,
		EnforceNoFutureDates: true,
	}.withDefaults()
}

func (o Options) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.StoreTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.StoreTimeout)
}

// storeFailure wraps an unexpected store error. Deadlines become the
// retryable ErrStoreTimeout; anything else is logged and wrapped.
func (o Options) storeFailure(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		o.Logger.Warn("store timeout", "op", op, "timeout", o.StoreTimeout)
		return fmt.Errorf("%s: %w", op, ErrStoreTimeout)
	}
	o.Logger.Error("store failure", "op", op, "err", err)
	return fmt.Errorf("failed to %s: %w", op, err)
}

// TruncateToDay drops the time of day, keeping t's calendar date.
func TruncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthRange returns [first day of month, first day of next month) in UTC.
func MonthRange(month time.Time) (time.Time, time.Time) {
	y, m, _ := month.Date()
	from := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}
