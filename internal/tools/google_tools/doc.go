// Package google_tools provides MCP tools for Google OAuth authentication.
//
// The OAuth flow:
//  1. Call google_get_auth_url to get the authorization URL
//  2. User visits the URL and authorizes calendar access
//  3. User provides the authorization code
//  4. Call google_save_auth_code with the code to save the token
//
// The saved token is refreshed automatically and used by the calendar tools
// for the same account. The tools are only registered when the server's
// token provider can run the code flow.
package google_tools
