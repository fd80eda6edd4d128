// Package google provides OAuth2 token handling for the Google Calendar API.
//
// Tokens come from one of two places: the bearer token of an incoming HTTP
// request (StaticTokenProvider, BearerToken) or a JSON token file in the user
// cache directory written by "textcal auth" (FileTokenProvider).
//
// The TokenProvider interface lets the planner stay agnostic of where a
// request's credentials came from.
package google
