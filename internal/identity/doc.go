// Package identity models the user identity and scope that a push
// connection is bound to.
//
// Key pieces:
//   - NormalizeScope canonicalizes raw scope values for wire transmission
//   - Identity is a comparable value type (user id + normalized scopes)
//   - Store implementations deliver identity changes (static, session file)
//
// Scope fields hold their comma-joined normalized form; an empty string
// means the field is omitted from wire payloads entirely.
package identity
