package handlers

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"ecom-dashboard/internal/engine"
	"ecom-dashboard/internal/errors"
)

const dateLayout = "2006-01-02"

// filterInput is the wire form of a filter, shared by query strings and stream signals.
type filterInput struct {
	Countries []string `validate:"dive,required"`
	Start     string   `validate:"omitempty,datetime=2006-01-02"`
	End       string   `validate:"omitempty,datetime=2006-01-02"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseFilter reads country (repeatable), start and end from a query string.
func ParseFilter(q url.Values) (engine.Filter, error) {
	return filterInput{
		Countries: q["country"],
		Start:     strings.TrimSpace(q.Get("start")),
		End:       strings.TrimSpace(q.Get("end")),
	}.filter()
}

func (in filterInput) filter() (engine.Filter, error) {
	if err := validate.Struct(in); err != nil {
		return engine.Filter{}, errors.ValidationWrap(err, "invalid filter").WithDetails(describe(err))
	}

	f := engine.Filter{Countries: in.Countries}
	if in.Start != "" {
		f.Start, _ = time.Parse(dateLayout, in.Start)
	}
	if in.End != "" {
		f.End, _ = time.Parse(dateLayout, in.End)
	}
	if !f.Start.IsZero() && !f.End.IsZero() && f.Start.After(f.End) {
		return engine.Filter{}, errors.Validation("invalid filter").
			WithDetails(fmt.Sprintf("start date %s is after end date %s", in.Start, in.End))
	}
	return f, nil
}

func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "datetime":
			msgs = append(msgs, fmt.Sprintf("%s must be a date in YYYY-MM-DD form, got %q", strings.ToLower(fe.Field()), fe.Value()))
		case "required":
			msgs = append(msgs, "country values must not be empty")
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
