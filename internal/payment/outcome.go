package payment

import (
	"fmt"
	"regexp"
)

type Status string

const (
	StatusSuccess Status = "Success"
	StatusFailed  Status = "Failed"
)

const DefaultDescription = "No description available."

var (
	// Successfully processed transactions.
	successPattern = regexp.MustCompile(`^(000\.000\.|000\.100\.1|000\.[36])`)
	// Successful transactions that the gateway flags for manual review.
	reviewPattern = regexp.MustCompile(`^(000\.400\.0[^3]|000\.400\.[0-1]{2}0)`)
)

// Outcome is the classified result of a gateway payment-status lookup.
type Outcome struct {
	Status      Status
	Description string
}

// Classify maps a gateway result code to Success or Failed.
// Unknown and empty codes are Failed.
func Classify(code string) Status {
	if successPattern.MatchString(code) || reviewPattern.MatchString(code) {
		return StatusSuccess
	}
	return StatusFailed
}

func NewOutcome(code, description string) Outcome {
	if description == "" {
		description = DefaultDescription
	}
	return Outcome{
		Status:      Classify(code),
		Description: description,
	}
}

// AppRedirectURL builds the deep link that hands control back to the mobile app.
func AppRedirectURL(scheme string, status Status) string {
	return fmt.Sprintf("%s://%s", scheme, status)
}
