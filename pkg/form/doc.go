// Package form wires the engine together the way every add/edit screen in
// the clinic admin uses it: mount a schema (optionally seeded from an
// existing record), route user input through typed widgets, and on submit
// hand the minimal change-set plus its transport encoding to an external
// submit collaborator. Mounting fails fast on structurally invalid schemas;
// unmounting releases every scoped resource the form acquired (image
// previews, suggestion-list dismissal subscriptions).
//
// The form does not guard against double-submit; callers serialize
// submission themselves.
package form
