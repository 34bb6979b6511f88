// Package schema provides the validation capability used for manifest metadata.
//
// A Schema maps field names to types. Validate walks every declared field and
// reports every violation in one pass (missing required field, wrong type, empty
// string, pattern mismatch and, for closed schemas, unknown fields) instead of
// stopping at the first one, so a manifest author sees all problems at once.
//
// Basic usage:
//
//	s := schema.Schema{
//	    "id":      schema.NonEmptyString(),
//	    "version": schema.AllOf(schema.NonEmptyString(), schema.Pattern(`\d`)),
//	    "tags":    schema.Optional(schema.Slice(schema.String())),
//	}
//
//	if err := schema.Validate(s, data); err != nil {
//	    for _, v := range schema.ValidationErrors(err) {
//	        // Handle each violation
//	    }
//	}
//
// Schemas can also be declared as type strings, which is how a project supplies
// its own manifest schema from a YAML or JSON file:
//
//	s, err := schema.ParseTypeMap(map[string]string{
//	    "id":    "nonempty",
//	    "owner": "?string",
//	    "tags":  "?[string]",
//	})
//
// This package has no dependencies beyond the Go standard library.
package schema
