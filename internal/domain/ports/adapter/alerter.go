package adapter

import "context"

// Alerter delivers operator-facing alerts (data-integrity problems and the like).
type Alerter interface {
	Alert(ctx context.Context, text string) error
}
