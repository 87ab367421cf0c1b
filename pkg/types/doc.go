// Package types defines the Catalog and store interfaces, entity types,
// and standard error types for the Atlas resource directory.
//
// Resources carry an open-ended set of attributes. An attribute is defined at
// runtime by a Descriptor and attached to a Resource through one of two typed
// join entities: a TextAssociation for free-form descriptors and an
// OptionAssociation for descriptors with a closed list of values.
package types
