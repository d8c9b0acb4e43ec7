package blog

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
)

// defaultPhoneRegion is assumed when a number has no international prefix.
const defaultPhoneRegion = "US"

// NormalizePhone validates the given phone number and returns its E.164 form,
// which is the representation the unique column stores.
func NormalizePhone(raw string) (string, error) {
	if raw == "" {
		return "", goerrors.New("phone number is required", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	num, err := phonenumbers.Parse(raw, defaultPhoneRegion)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryValidation, "invalid phone number").
			WithCode(goerrors.CodeBadRequest)
	}

	if !phonenumbers.IsValidNumber(num) {
		return "", goerrors.New("invalid phone number", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"phone_number": raw})
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}
