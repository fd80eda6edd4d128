// Package translator turns free text into a validated plan.Plan by asking a
// language model for a JSON batch of calendar operations.
//
// The prompt is a fixed instruction template followed by the user's text.
// The template embeds the current time and the resolved time zone so that
// relative phrases ("tomorrow at 3") resolve to concrete timestamps.
// Whatever the model returns is run through plan.FromResponse; candidates
// that fail validation are reported in Translation.Rejected and never reach
// execution.
//
// Transport failures, including an empty choice list, wrap ErrBackend.
package translator
