// Package connection owns the persistent push channel to the notification
// service.
//
// Two layers:
//   - Client: a single websocket connection (dial, auth frame, read loop,
//     heartbeat)
//   - Manager: the identity-scoped session above it (Bind/Unbind, bounded
//     reconnection, the identify handshake, state machine, hook dispatch)
//
// Invariant: every successful transport connect, first or reconnect, sends
// exactly one identify message. The server does not retain identity across a
// dropped socket.
//
// Delivery is best effort. Events that arrive while the socket is down are
// gone; nothing here queues, replays, or deduplicates.
package connection
