// Package field defines the attribute types of an entity description.
//
// Attribute types are a closed enumeration. Text forms are accepted in two
// spellings, the short names used by this module and the CoreData constants
// found in existing model-delta files:
//
//	field.ParseType("string")                   // field.TypeString
//	field.ParseType("NSStringAttributeType")    // field.TypeString
//	field.ParseType("Binary-Data")              // field.TypeBinaryData
//
// Type implements encoding.TextMarshaler and encoding.TextUnmarshaler, so it
// can be used directly in JSON and YAML documents.
package field
