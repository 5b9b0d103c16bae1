// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the spectator stream.
const (
	BadSubprotocolError = 3000 // Client connected without the "cucu" subprotocol.
	SlowSpectatorError  = 3001 // Client fell too far behind the event stream.
)
