package errors

import (
	"github.com/giantswarm/microerror"
)

var ResourceLookupError = &microerror.Error{
	Kind: "ResourceLookupError",
}

// IsResourceLookup asserts ResourceLookupError.
func IsResourceLookup(err error) bool {
	return microerror.Cause(err) == ResourceLookupError
}

var ResourceCreateError = &microerror.Error{
	Kind: "ResourceCreateError",
}

// IsResourceCreate asserts ResourceCreateError.
func IsResourceCreate(err error) bool {
	return microerror.Cause(err) == ResourceCreateError
}

var ResourceUpdateError = &microerror.Error{
	Kind: "ResourceUpdateError",
}

// IsResourceUpdate asserts ResourceUpdateError.
func IsResourceUpdate(err error) bool {
	return microerror.Cause(err) == ResourceUpdateError
}

var CapacityInsufficientError = &microerror.Error{
	Kind: "CapacityInsufficientError",
	Desc: "The prefix list capacity could not be raised, so its entries were left unchanged.",
}

// IsCapacityInsufficient asserts CapacityInsufficientError.
func IsCapacityInsufficient(err error) bool {
	return microerror.Cause(err) == CapacityInsufficientError
}

var ScopePreconditionError = &microerror.Error{
	Kind: "ScopePreconditionError",
	Desc: "CLOUDFRONT scoped IP sets can only be managed from the us-east-1 region.",
}

// IsScopePrecondition asserts ScopePreconditionError.
func IsScopePrecondition(err error) bool {
	return microerror.Cause(err) == ScopePreconditionError
}

var UnmanagedResourceConflictError = &microerror.Error{
	Kind: "UnmanagedResourceConflictError",
	Desc: "A resource with the derived name exists but is not tagged as managed by update-aws-ip-ranges.",
}

// IsUnmanagedResourceConflict asserts UnmanagedResourceConflictError.
func IsUnmanagedResourceConflict(err error) bool {
	return microerror.Cause(err) == UnmanagedResourceConflictError
}

var PrefixListNotFoundError = &microerror.Error{
	Kind: "PrefixListNotFoundError",
}

// IsPrefixListNotFound asserts PrefixListNotFoundError.
func IsPrefixListNotFound(err error) bool {
	return microerror.Cause(err) == PrefixListNotFoundError
}

var PrefixListConflictError = &microerror.Error{
	Kind: "PrefixListConflictError",
}

// IsPrefixListConflict asserts PrefixListConflictError.
func IsPrefixListConflict(err error) bool {
	return microerror.Cause(err) == PrefixListConflictError
}

var PrefixListStateError = &microerror.Error{
	Kind: "PrefixListStateError",
}

// IsPrefixListState asserts PrefixListStateError.
func IsPrefixListState(err error) bool {
	return microerror.Cause(err) == PrefixListStateError
}

var PrefixListIdNotSetError = &microerror.Error{
	Kind: "PrefixListIdNotSetError",
}

// IsPrefixListIdNotSet asserts PrefixListIdNotSetError.
func IsPrefixListIdNotSet(err error) bool {
	return microerror.Cause(err) == PrefixListIdNotSetError
}

var IPSetNotFoundError = &microerror.Error{
	Kind: "IPSetNotFoundError",
}

// IsIPSetNotFound asserts IPSetNotFoundError.
func IsIPSetNotFound(err error) bool {
	return microerror.Cause(err) == IPSetNotFoundError
}
