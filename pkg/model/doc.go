// Package model defines the form definitions served by the form service and
// the small set of companion types (overviews, create requests, service
// limits) exchanged with it. A FieldDefinition is a discriminated union keyed
// by its `type` tag: common attributes live on the struct while the
// type-specific constraints sit behind the sealed Attributes interface, so
// every consumer switches over the same nine FieldType constants. Decoding
// never fails on an unrecognised type; such fields carry UnknownAttributes and
// downstream packages skip them.
package model
