package common

import "github.com/teemow/textcal/internal/google"

// GetAccountFromArgs returns the "account" argument, or the default account
// name when it is missing, empty or not a string.
func GetAccountFromArgs(args map[string]interface{}) string {
	if accountVal, ok := args["account"].(string); ok && accountVal != "" {
		return accountVal
	}
	return google.DefaultAccount
}

// GetStringArg returns the string argument name, or "" when it is missing or
// of another type.
func GetStringArg(args map[string]interface{}, name string) string {
	if v, ok := args[name].(string); ok {
		return v
	}
	return ""
}
