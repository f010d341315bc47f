package chathub

import "chatcore/backend/internal/models"

// Client is one live connection of an authenticated user. A user may hold
// several clients at once (tabs, devices), each with its own session id.
type Client interface {
	// GetSessionID returns the id of this connection, unique per process.
	GetSessionID() string
	// GetIdentity returns the user the connection was authenticated as.
	GetIdentity() models.Identity

	// GetSendChannel returns the channel the hub pushes outbound events into.
	// The hub never blocks on it; a full channel gets the client dropped.
	GetSendChannel() chan<- models.OutboundEvent

	// Run starts the client's read and write pumps.
	Run()
	// Close closes the send channel, which stops the write pump and the
	// connection with it. Only the hub calls Close.
	Close()
}
