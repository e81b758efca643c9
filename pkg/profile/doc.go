// Package profile converts raw provider profile bodies into a generic nested
// tree (RawProfile) that the fieldmap package can project.
//
// JSON bodies decode directly into maps, slices and scalars. Numbers are kept
// as json.Number so large numeric identifiers survive without float rounding.
//
// XML bodies decode into nested maps with these rules:
//   - the root element is unwrapped, its children become the top-level keys
//   - an element without attributes or child elements becomes its trimmed text
//   - repeated sibling elements become a []any in document order
//   - attributes share the namespace of child elements; when an attribute and
//     a child element have the same name, the child element wins
//   - text of an element that also has attributes or children is kept under "#text"
//
// Decode reports parse faults. Normalize swallows them and returns an empty
// profile, so a malformed body degrades to "no fields" instead of aborting
// the surrounding flow.
package profile
