package errors

import (
	"errors"
	"net/http"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/smithy-go"
)

const (
	wafOptimisticLockErrorCode = "WAFOptimisticLockException"
	wafNonexistentItemCode     = "WAFNonexistentItemException"
	wafDuplicateItemCode       = "WAFDuplicateItemException"
	ec2PrefixListNotFoundCode  = "InvalidPrefixListID.NotFound"
	ec2PrefixListMaxEntriesErr = "PrefixListMaxEntriesExceeded"
)

// IsAWSHTTPStatusNotFound asserts that the AWS API responded with HTTP 404.
func IsAWSHTTPStatusNotFound(err error) bool {
	if err == nil {
		return false
	}

	var responseError *awshttp.ResponseError
	if errors.As(err, &responseError) {
		return responseError.HTTPStatusCode() == http.StatusNotFound
	}

	return false
}

// AWSErrorCode returns the API error code of err, or an empty string when err
// does not come from an AWS API.
func AWSErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}

	return ""
}

// IsWAFOptimisticLock asserts that an IP set update was rejected because the
// lock token is stale.
func IsWAFOptimisticLock(err error) bool {
	return AWSErrorCode(err) == wafOptimisticLockErrorCode
}

// IsWAFNonexistentItem asserts that WAF could not find the referenced item.
func IsWAFNonexistentItem(err error) bool {
	return AWSErrorCode(err) == wafNonexistentItemCode
}

// IsWAFDuplicateItem asserts that WAF rejected a create because the name is
// taken.
func IsWAFDuplicateItem(err error) bool {
	return AWSErrorCode(err) == wafDuplicateItemCode
}

// IsEC2PrefixListNotFound asserts that the prefix list ID is unknown to EC2.
func IsEC2PrefixListNotFound(err error) bool {
	return AWSErrorCode(err) == ec2PrefixListNotFoundCode || IsAWSHTTPStatusNotFound(err)
}

// IsEC2PrefixListMaxEntriesExceeded asserts that EC2 rejected more entries
// than the prefix list can hold.
func IsEC2PrefixListMaxEntriesExceeded(err error) bool {
	return AWSErrorCode(err) == ec2PrefixListMaxEntriesErr
}
