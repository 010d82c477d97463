package plugin

import (
	"encoding/base64"

	"github.com/rs/zerolog"
)

// SecurityPlugin is the hospital information system security integration.
// The encoding here is a placeholder for the site-specific cipher that gets
// swapped in per deployment.
type SecurityPlugin struct {
	secretKey string
	logger    zerolog.Logger
}

func NewSecurityPlugin(secretKey string, logger zerolog.Logger) *SecurityPlugin {
	return &SecurityPlugin{secretKey: secretKey, logger: logger}
}

func (p *SecurityPlugin) Name() string { return "his-security" }

func (p *SecurityPlugin) Version() string { return "1.0.0" }

// EncryptData encodes sensitive payloads before they leave the service.
func (p *SecurityPlugin) EncryptData(data string) string {
	return base64.StdEncoding.EncodeToString([]byte(data))
}

// DecryptData reverses EncryptData. Returns an error for malformed input.
func (p *SecurityPlugin) DecryptData(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ValidateMedicalData reports whether a payload is present and non-empty.
func (p *SecurityPlugin) ValidateMedicalData(data map[string]interface{}) bool {
	return len(data) > 0
}

// LogAuditEvent emits a structured audit event for the security trail.
func (p *SecurityPlugin) LogAuditEvent(event, userID string, details map[string]interface{}) {
	p.logger.Info().
		Str("type", "security_audit").
		Str("event", event).
		Str("user_id", userID).
		Interface("details", details).
		Msg("audit event")
}
