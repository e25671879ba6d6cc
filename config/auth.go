package config

import (
	"fmt"
	"strings"
)

// AuthMethod selects the challenge factor used during login.
type AuthMethod string

const (
	// AuthMethodSMS requests the one-time code by text message.
	AuthMethodSMS AuthMethod = "sms"
	// AuthMethodEmail requests the one-time code by email.
	AuthMethodEmail AuthMethod = "email"
)

// Valid reports whether the method is one the upstream supports.
func (m AuthMethod) Valid() bool {
	return m == AuthMethodSMS || m == AuthMethodEmail
}

// UnmarshalText implements encoding.TextUnmarshaler for AuthMethod.
func (m *AuthMethod) UnmarshalText(text []byte) error {
	v := AuthMethod(strings.ToLower(string(text)))
	if !v.Valid() {
		return fmt.Errorf("invalid AuthMethod: %q (valid options: sms, email)", string(text))
	}
	*m = v
	return nil
}

// AuthConfig groups login-related configuration.
type AuthConfig struct {
	// Username is the dashboard identity (email) to log in as.
	Username string `env:"USERNAME"`

	// Method is the challenge factor to request when the device is not
	// remembered.
	Method AuthMethod `env:"METHOD" envDefault:"sms"`

	// TOTPSecret, when set, derives the one-time code from a registered
	// authenticator secret instead of prompting for it interactively.
	TOTPSecret string `env:"TOTP_SECRET"`

	// RememberDevice asks the upstream to bind this device so future
	// logins can skip the challenge.
	RememberDevice bool `env:"REMEMBER_DEVICE" envDefault:"true"`
}

// Sanitize applies guardrails to auth configuration.
func (c *AuthConfig) Sanitize() {
	if c.Method == "" {
		c.Method = AuthMethodSMS
	}
}
