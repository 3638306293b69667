// Package router parses server event frames and dispatches them to handlers.
//
// Key pieces:
//   - Envelope/Payload: loosely typed event model with forgiving accessors
//   - Dispatcher: routes one envelope to at most one Table handler, with
//     handler panics recovered so a bad handler cannot kill the session loop
//   - GrowableBuffer: ring buffer decoupling dispatch from slow consumers
//
// Unknown event kinds are logged and counted, never treated as errors.
package router
