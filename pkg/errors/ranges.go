package errors

import (
	"github.com/giantswarm/microerror"
)

var DocumentParseError = &microerror.Error{
	Kind: "DocumentParseError",
	Desc: "The IP ranges document is structurally invalid.",
}

// IsDocumentParse asserts DocumentParseError.
func IsDocumentParse(err error) bool {
	return microerror.Cause(err) == DocumentParseError
}

var DocumentFetchError = &microerror.Error{
	Kind: "DocumentFetchError",
}

// IsDocumentFetch asserts DocumentFetchError.
func IsDocumentFetch(err error) bool {
	return microerror.Cause(err) == DocumentFetchError
}

var DocumentChecksumMismatchError = &microerror.Error{
	Kind: "DocumentChecksumMismatchError",
	Desc: "The MD5 checksum of the downloaded IP ranges document does not match the expected one.",
}

// IsDocumentChecksumMismatch asserts DocumentChecksumMismatchError.
func IsDocumentChecksumMismatch(err error) bool {
	return microerror.Cause(err) == DocumentChecksumMismatchError
}

var NotificationParseError = &microerror.Error{
	Kind: "NotificationParseError",
}

// IsNotificationParse asserts NotificationParseError.
func IsNotificationParse(err error) bool {
	return microerror.Cause(err) == NotificationParseError
}
