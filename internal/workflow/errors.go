package workflow

import "errors"

var (
	// ErrExtractionFailed means a document yielded no usable text.
	ErrExtractionFailed = errors.New("extraction failed")
	// ErrClassificationFailed means the document type could not be determined.
	ErrClassificationFailed = errors.New("classification failed")
	// ErrDataUnavailable means a required upstream result is missing.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrComputationImpossible means valuation has neither market data nor an appraisal.
	ErrComputationImpossible = errors.New("computation impossible")
)

// IsPermanent reports whether err is one of the taxonomy errors that
// retrying cannot fix.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrExtractionFailed) ||
		errors.Is(err, ErrClassificationFailed) ||
		errors.Is(err, ErrDataUnavailable) ||
		errors.Is(err, ErrComputationImpossible)
}
