package invoice

import "errors"

var (
	// ErrMissingSourceURL is returned when the caller did not supply a URL.
	ErrMissingSourceURL = errors.New("source url is required")
	// ErrInvalidSourceURL is returned for malformed or disallowed URLs.
	ErrInvalidSourceURL = errors.New("invalid source url")
	// ErrMissingOwner is returned when no authenticated user owns the run.
	ErrMissingOwner = errors.New("owner user is required")

	// ErrFetchFailed wraps any failure retrieving or decoding the invoice document.
	ErrFetchFailed = errors.New("fetch invoice document failed")
	// ErrCompanyResolutionFailed wraps lookup and insert failures of the issuer.
	ErrCompanyResolutionFailed = errors.New("company resolution failed")
	// ErrDuplicateInvoice reports that the owner already stored this invoice number.
	ErrDuplicateInvoice = errors.New("invoice already added for this user")
	// ErrPersistenceFailed wraps every other failure of the atomic write.
	ErrPersistenceFailed = errors.New("persist invoice failed")
)
