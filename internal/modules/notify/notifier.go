// README: Fire-and-forget delivery stub standing in for the push/socket layer.
package notify

import (
	"context"

	"github.com/rs/zerolog"

	"taskhive/internal/types"
)

// LogNotifier records deliveries in the log. The real push and socket
// providers live behind the same method shape and can be swapped in at the
// composition root.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "notify").Logger()}
}

func (n *LogNotifier) Notify(ctx context.Context, userID types.ID, event string, payload map[string]any) {
	n.log.Info().
		Str("user_id", string(userID)).
		Str("event", event).
		Fields(payload).
		Msg("notification dispatched")
}
