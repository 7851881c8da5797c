package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/model"
)

var (
	// Latin letters plus the Turkish alphabet, spaces, apostrophes and hyphens
	personNamePattern   = regexp.MustCompile(`^[A-Za-zÇçĞğİıÖöŞşÜü]+(?:[ '\-][A-Za-zÇçĞğİıÖöŞşÜü]+)*$`)
	stationTitlePattern = regexp.MustCompile(`^[0-9A-Za-zÇçĞğİıÖöŞşÜü .'\-()]+$`)
	phonePattern        = regexp.MustCompile(`^\+?[0-9]{10,13}$`)
	ticketIDPattern     = regexp.MustCompile(`^[A-Za-z0-9\-]{4,32}$`)
)

// MinVoyageDuration is the shortest allowed gap between departure and arrival
const MinVoyageDuration = 40 * time.Minute

// Errors maps a form field (its JSON name) to a message
type Errors map[string]string

// Empty reports whether the form may be submitted
func (e Errors) Empty() bool { return len(e) == 0 }

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// First returns the first invalid field in the declaration order of form,
// which is the field that receives focus.
func (e Errors) First(form interface{}) string {
	for _, name := range FieldOrder(form) {
		if _, ok := e[name]; ok {
			return name
		}
	}
	return ""
}

// AsErrors unwraps validation errors from err
func AsErrors(err error) (Errors, bool) {
	var errs Errors
	if errors.As(err, &errs) {
		return errs, true
	}
	return nil, false
}

// Touched records the fields the user has interacted with
type Touched map[string]bool

// Touch marks a field as touched
func (t Touched) Touch(field string) { t[field] = true }

// TouchAll marks every field of form as touched, as a submit attempt does
func (t Touched) TouchAll(form interface{}) {
	for _, name := range FieldOrder(form) {
		t[name] = true
	}
}

// Visible filters errs to the fields that should render a message
func (t Touched) Visible(errs Errors) Errors {
	out := Errors{}
	for field, msg := range errs {
		if t[field] {
			out[field] = msg
		}
	}
	return out
}

// Validator validates forms with field tags and cross-field rules
type Validator struct {
	v   *validator.Validate
	now func() time.Time
}

// New creates a validator. now supplies "today" for date rules; nil means time.Now.
func New(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	x := &Validator{v: validator.New(), now: now}

	// Report fields by their JSON names
	x.v.RegisterTagNameFunc(jsonName)

	mustRegister(x.v, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(x.v, "personname", func(fl validator.FieldLevel) bool {
		return personNamePattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	mustRegister(x.v, "stationtitle", func(fl validator.FieldLevel) bool {
		return stationTitlePattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	mustRegister(x.v, "phoneno", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(strings.ReplaceAll(fl.Field().String(), " ", ""))
	})
	mustRegister(x.v, "ticketid", func(fl validator.FieldLevel) bool {
		return ticketIDPattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	mustRegister(x.v, "hhmm", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(model.TimeLayout, fl.Field().String())
		return err == nil
	})
	mustRegister(x.v, "isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(model.DateLayout, fl.Field().String())
		return err == nil
	})
	mustRegister(x.v, "b64image", func(fl validator.FieldLevel) bool {
		return ValidateImageBase64(fl.Field().String()) == nil
	})

	x.v.RegisterStructValidation(x.voyageRules, VoyageForm{})
	x.v.RegisterStructValidation(x.searchRules, SearchForm{})

	return x
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s: %v", tag, err))
	}
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// ValidateForm validates every field of form. The result is empty when the form may be submitted.
func (x *Validator) ValidateForm(form interface{}) Errors {
	out := Errors{}
	err := x.v.Struct(form)
	if err == nil {
		return out
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		out["_form"] = err.Error()
		return out
	}
	for _, fe := range fieldErrs {
		// Keep the first message per field
		if _, seen := out[fe.Field()]; !seen {
			out[fe.Field()] = message(fe)
		}
	}
	return out
}

// ValidateField validates one field of form and returns its message, or "" when valid.
// Rules of other fields never leak into the result.
func (x *Validator) ValidateField(form interface{}, field string) string {
	return x.ValidateForm(form)[field]
}

// Check validates form and returns Errors as an error, or nil
func (x *Validator) Check(form interface{}) error {
	if errs := x.ValidateForm(form); !errs.Empty() {
		return errs
	}
	return nil
}

func (x *Validator) today() time.Time {
	now := x.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func (x *Validator) parseDate(s string) (time.Time, bool) {
	d, err := time.ParseInLocation(model.DateLayout, s, x.now().Location())
	return d, err == nil
}

// voyageRules: departure date not in the past and at most one year ahead,
// arrival strictly after departure with at least MinVoyageDuration in between.
func (x *Validator) voyageRules(sl validator.StructLevel) {
	f := sl.Current().Interface().(VoyageForm)

	if d, ok := x.parseDate(f.DepartureDate); ok {
		today := x.today()
		if d.Before(today) {
			sl.ReportError(f.DepartureDate, "departureDate", "DepartureDate", "notpast", "")
		} else if d.After(today.AddDate(1, 0, 0)) {
			sl.ReportError(f.DepartureDate, "departureDate", "DepartureDate", "withinyear", "")
		}
	}

	dep, depErr := time.Parse(model.TimeLayout, f.DepartureTime)
	arr, arrErr := time.Parse(model.TimeLayout, f.ArrivalTime)
	if depErr == nil && arrErr == nil && arr.Sub(dep) < MinVoyageDuration {
		sl.ReportError(f.ArrivalTime, "arrivalTime", "ArrivalTime", "mingap", "40")
	}

	if f.PromoSeats+f.EconomySeats+f.BusinessSeats == 0 {
		sl.ReportError(f.EconomySeats, "economySeats", "EconomySeats", "seats", "")
	}
}

// searchRules: travel date not in the past, return not before departure
func (x *Validator) searchRules(sl validator.StructLevel) {
	f := sl.Current().Interface().(SearchForm)

	dep, ok := x.parseDate(f.DepartureDate)
	if ok && dep.Before(x.today()) {
		sl.ReportError(f.DepartureDate, "departureDate", "DepartureDate", "notpast", "")
	}

	if !f.RoundTrip {
		return
	}
	if f.ReturnDate == "" {
		sl.ReportError(f.ReturnDate, "returnDate", "ReturnDate", "required", "")
		return
	}
	if ret, retOK := x.parseDate(f.ReturnDate); retOK && ok && ret.Before(dep) {
		sl.ReportError(f.ReturnDate, "returnDate", "ReturnDate", "afterdeparture", "")
	}
}

// message renders a field error for display
func message(fe validator.FieldError) string {
	label := Label(fe.Field())
	isText := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required", "notblank":
		return label + " is required"
	case "min":
		if isText {
			return fmt.Sprintf("%s is too short (minimum %s characters)", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "max":
		if isText {
			return fmt.Sprintf("%s is too long (maximum %s characters)", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	case "gt", "gte":
		return fmt.Sprintf("%s must be at least %s", label, minParam(fe))
	case "lte", "lt":
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	case "personname", "stationtitle":
		return label + " contains invalid characters"
	case "email":
		return label + " must be a valid email address"
	case "phoneno":
		return label + " must be a valid phone number"
	case "ticketid":
		return label + " must be a valid ticket ID"
	case "hhmm":
		return label + " must be a valid time (HH:MM)"
	case "isodate":
		return label + " must be a valid date (YYYY-MM-DD)"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", label, Label(lowerFirst(fe.Param())))
	case "b64image":
		return label + " must be a JPEG, PNG, GIF or WebP image of at most 2MB"
	case "notpast":
		return label + " cannot be in the past"
	case "withinyear":
		return label + " cannot be more than one year ahead"
	case "mingap":
		return label + " must be at least 40 minutes after departure time"
	case "afterdeparture":
		return label + " cannot be before the departure date"
	case "seats":
		return "At least one seat class must have seats"
	}
	return label + " is invalid"
}

func minParam(fe validator.FieldError) string {
	if fe.Tag() == "gt" {
		if fe.Param() == "0" {
			return "1"
		}
		return "more than " + fe.Param()
	}
	return fe.Param()
}

// Label turns a JSON field name like "departureDate" into "Departure date"
func Label(field string) string {
	var b strings.Builder
	var prev rune
	for i, r := range field {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case r == '_':
			b.WriteRune(' ')
		case unicode.IsUpper(r) && !unicode.IsUpper(prev):
			b.WriteRune(' ')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(unicode.ToLower(r))
		}
		prev = r
	}
	label := b.String()
	if strings.HasSuffix(label, " id") {
		label = strings.TrimSuffix(label, " id") + " ID"
	}
	return label
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// FieldOrder lists the JSON names of form's fields in declaration order
func FieldOrder(form interface{}) []string {
	t := reflect.TypeOf(form)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if name := jsonName(t.Field(i)); name != "" {
			names = append(names, name)
		}
	}
	return names
}
