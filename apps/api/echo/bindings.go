package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/xenthrall/academy/core"
	"github.com/xenthrall/academy/core/report"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// pathID parses the `name` path param. Anything but a positive integer is not found.
func pathID(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

// queryInt parses an optional positive integer query param; 0 when missing.
func queryInt(ctx echo.Context, name string) (int, error) {
	val := strings.TrimSpace(ctx.QueryParam(name))
	if val == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return 0, core.NewValidationError(nil, core.FieldError{Field: name, Error: "must be a positive integer"})
	}
	return n, nil
}

// bindDateRange reads the optional `from` and `to` query params.
func bindDateRange(ctx echo.Context) (report.DateRange, error) {
	var rng report.DateRange
	var fldErrs []core.FieldError
	for _, p := range []struct {
		name string
		dst  *core.Date
	}{{"from", &rng.From}, {"to", &rng.To}} {
		d, err := core.ParseDate(ctx.QueryParam(p.name))
		if err != nil {
			fldErrs = append(fldErrs, core.FieldError{Field: p.name, Error: "must be a date in YYYY-MM-DD format"})
			continue
		}
		*p.dst = d
	}
	if fldErrs != nil {
		return report.DateRange{}, core.NewValidationError(nil, fldErrs...)
	}
	return rng, nil
}
