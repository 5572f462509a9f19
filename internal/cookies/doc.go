// Package cookies implements the session cookie handling used when talking to
// the Lens upload endpoints.
//
// The package has three layers:
//
//   - SplitSetCookie: splits a folded, comma-joined Set-Cookie header back into
//     individual directives. A comma only separates two cookies when the text
//     after it reaches "=" before ";" or ",", so the comma inside an
//     "Expires=Wed, 09-Jun-2025 10:18:14 GMT" date stays part of the value.
//   - Parse: turns one directive into a Cookie record.
//   - Jar: the set of live cookies for one session, keyed by name.
//
// # Expiry
//
// The jar evicts lazily. Absorbing a cookie that has already expired is legal;
// it is dropped the next time Header is called. Cookies whose Expires value is
// empty or cannot be parsed never expire.
//
// # Thread Safety
//
// Jar is safe for concurrent use. Absorb and AbsorbHeader parse every directive
// before taking the lock, so a response is applied to the jar as a whole or not
// at all.
//
// # Persistence
//
// LoadFile and SaveFile exchange jar snapshots with a JSON file on disk. The
// snapshot format is a map from cookie name to Cookie.
package cookies
