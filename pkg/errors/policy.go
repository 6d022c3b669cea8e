package errors

import (
	"github.com/giantswarm/microerror"
)

var PolicyParseError = &microerror.Error{
	Kind: "PolicyParseError",
	Desc: "The service policy document could not be decoded.",
}

// IsPolicyParse asserts PolicyParseError.
func IsPolicyParse(err error) bool {
	return microerror.Cause(err) == PolicyParseError
}

var PolicyValidationError = &microerror.Error{
	Kind: "PolicyValidationError",
	Desc: "A service entry of the policy document is invalid and has been skipped.",
}

// IsPolicyValidation asserts PolicyValidationError.
func IsPolicyValidation(err error) bool {
	return microerror.Cause(err) == PolicyValidationError
}
