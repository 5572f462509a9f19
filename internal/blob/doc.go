// Package blob recovers the structured result embedded in a Lens results page.
//
// The page carries its data as script calls of the form
//
//	AF_initDataCallback({key: 'ds:0', hash: '1', data: [...], sideChannel: {}});
//
// whose argument is a JavaScript object literal rather than strict JSON: keys
// are bare identifiers, some strings use single quotes, and arrays nest deeply.
// Extract finds every callback argument by balanced-brace scanning, keeps the
// one that mentions the text-detection payload, and decodes it with
// ParseLiteral.
//
// ParseLiteral is a small recursive-descent parser for that literal subset.
// It never evaluates the text. Decoded values use the same Go types as
// encoding/json with an interface{} target:
//
//   - objects: map[string]any
//   - arrays: []any
//   - strings: string
//   - numbers: float64
//   - true/false: bool
//   - null: nil
//
// # Token normalization
//
// The keyword spellings true/True, false/False and null/None/undefined are all
// accepted and normalized to Go values, so payloads that were re-serialized by
// other tooling decode the same way as the live page.
package blob
