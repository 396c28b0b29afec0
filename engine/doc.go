// Package engine implements the cross-boundary protocol between this
// library and an externally memory-managed query engine: a call-scoped
// handle table and builder set for assembling expression trees one
// opaque reference at a time, a schema visitor driver that renders an
// arrow schema into a caller-owned representation, and a msgpack wire
// codec that replays serialized predicates through the same protocol.
//
// The two memory domains never dereference each other's internals. The
// caller only ever holds integer handles; the library only ever holds
// the caller's lists as opaque values of the visitor's list type.
package engine
