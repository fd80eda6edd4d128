// Package plan defines the operations a free-text request is translated into
// and the rules an operation must satisfy before it is executed.
//
// A Plan is an ordered batch of Operations. Each Operation is one of:
//   - create: a new event with a required start and end
//   - update: a partial change to an existing remote event
//   - delete: removal of an existing remote event
//
// Candidates produced by the language model are untrusted. ParseResponse turns
// a raw model response into candidate objects, and Validate turns each candidate
// into an Operation or a *RejectionError. Rejected candidates never reach the
// executor.
package plan
