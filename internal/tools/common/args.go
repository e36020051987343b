package common

import (
	"fmt"
	"strings"
)

// UserEmailArg is the argument every booking tool identifies the user by.
const UserEmailArg = "user_email"

// GetUserEmailFromArgs returns the user_email argument, or "" if absent.
func GetUserEmailFromArgs(args map[string]interface{}) string {
	if email, ok := args[UserEmailArg].(string); ok {
		return strings.TrimSpace(email)
	}
	return ""
}

// RequireString returns a required, non-blank string argument.
func RequireString(args map[string]interface{}, name string) (string, error) {
	s, err := RequirePresentString(args, name)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%s cannot be empty", name)
	}
	return s, nil
}

// RequirePresentString returns a string argument that must be present but
// may be empty.
func RequirePresentString(args map[string]interface{}, name string) (string, error) {
	val, ok := args[name]
	if !ok || val == nil {
		return "", fmt.Errorf("%s is required", name)
	}
	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", name)
	}
	return s, nil
}
