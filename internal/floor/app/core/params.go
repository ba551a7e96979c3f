package core

// ServerParams carries the CLI-tunable knobs of the floor server.
type ServerParams struct {
	Port int
}

const (
	// WaitTime bounds request-scoped work and graceful shutdown, in seconds.
	WaitTime = 10

	// DefaultPaidBy labels partial payments with no customer name.
	DefaultPaidBy = "Cliente"

	MaxItemsPerOrder = 50
	MaxObservation   = 200
	MaxUserNameLen   = 100
)
