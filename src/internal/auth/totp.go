package auth

import (
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// TOTPService handles two-factor authentication
type TOTPService struct {
	issuer string
}

// NewTOTPService creates a new TOTP service
func NewTOTPService(issuer string) *TOTPService {
	return &TOTPService{
		issuer: issuer,
	}
}

// TOTPSetup contains the setup information for TOTP
type TOTPSetup struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
}

// GenerateTOTP generates a new TOTP secret for a user
func (t *TOTPService) GenerateTOTP(email string) (*TOTPSetup, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      t.issuer,
		AccountName: email,
		Period:      30,
		SecretSize:  20,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	return &TOTPSetup{
		Secret: key.Secret(),
		URL:    key.URL(),
	}, nil
}

// ValidateTOTP validates a TOTP code
func (t *TOTPService) ValidateTOTP(secret, code string) bool {
	return totp.Validate(code, secret)
}

// CurrentCode returns the code valid right now. Used by the CLI to confirm
// enrolment and by tests.
func (t *TOTPService) CurrentCode(secret string) (string, error) {
	return totp.GenerateCode(secret, time.Now())
}
