package checkout

import (
	"regexp"
	"sort"
	"strings"

	"github.com/fjod/bagshop/internal/domain"
)

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	postalPattern = regexp.MustCompile(`^[0-9]{6}$`)
)

// ValidationErrors maps a form field to what is wrong with it.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "invalid checkout form: " + strings.Join(parts, "; ")
}

// Validate checks every field and reports all problems at once. Phone and
// email are checked after normalization.
func Validate(r Request) ValidationErrors {
	r.trim()
	errs := ValidationErrors{}

	if r.Contact.Name == "" {
		errs["name"] = "is required"
	}
	switch {
	case r.Contact.Phone == "":
		errs["phone"] = "is required"
	default:
		if _, ok := domain.NormalizePhone(r.Contact.Phone); !ok {
			errs["phone"] = "must be a 10-digit Indian mobile number"
		}
	}
	switch {
	case r.Contact.Email == "":
		errs["email"] = "is required"
	case !emailPattern.MatchString(r.Contact.Email):
		errs["email"] = "is not a valid email address"
	}

	if r.Shipping.Line1 == "" {
		errs["line1"] = "is required"
	}
	if r.Shipping.City == "" {
		errs["city"] = "is required"
	}
	if r.Shipping.State == "" {
		errs["state"] = "is required"
	}
	switch {
	case r.Shipping.PostalCode == "":
		errs["postalCode"] = "is required"
	case !postalPattern.MatchString(r.Shipping.PostalCode):
		errs["postalCode"] = "must be 6 digits"
	}

	if _, err := domain.ParsePaymentMethod(r.PaymentMethod); err != nil {
		errs["paymentMethod"] = "must be online or cod"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
