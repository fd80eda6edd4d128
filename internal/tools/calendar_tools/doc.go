// Package calendar_tools provides the MCP tools that apply free-text
// requests to a calendar.
//
// calendar_apply_text translates the text into a plan and executes it;
// calendar_preview_text returns the plan without executing it;
// calendar_mirror_list returns the locally mirrored events. Tokens come from
// the server's token provider, selected by the optional "account" argument.
package calendar_tools
