package errors

import (
	"github.com/giantswarm/microerror"
)

var UnitsFailedError = &microerror.Error{
	Kind: "UnitsFailedError",
	Desc: "At least one resource could not be reconciled and all of them were required to succeed.",
}

// IsUnitsFailed asserts UnitsFailedError.
func IsUnitsFailed(err error) bool {
	return microerror.Cause(err) == UnitsFailedError
}

var UnitPanicError = &microerror.Error{
	Kind: "UnitPanicError",
}

// IsUnitPanic asserts UnitPanicError.
func IsUnitPanic(err error) bool {
	return microerror.Cause(err) == UnitPanicError
}
