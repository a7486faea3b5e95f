package flow

import (
	"context"
	"log/slog"

	"github.com/treinafit/luka/internal/models"
)

// Handler processes one conversation turn. It returns the reply and true when
// it owns the turn, or ("", false, nil) to pass the turn to the next handler
// in the pipeline. The pass signal is explicit so precedence between the
// transactional and conversational layers stays visible.
type Handler interface {
	Handle(ctx context.Context, sessionID string, sc *models.SessionContext, text string) (reply string, handled bool, err error)
}

// Engine runs an ordered pipeline of handlers over each turn. The booking
// interceptor comes first so side effects happen exactly once, at the single
// transition where the router would otherwise only acknowledge; the router is
// last and total, so every turn produces a reply.
type Engine struct {
	handlers []Handler
}

// NewEngine creates an engine running the given handlers in order.
func NewEngine(handlers ...Handler) *Engine {
	return &Engine{handlers: handlers}
}

// HandleTurn processes one raw user message against the session context,
// mutating it in place, and returns the reply. It never returns an empty
// reply: handler errors are logged, the session degrades to the menu, and
// the user sees an apology instead of a raw failure.
func (e *Engine) HandleTurn(ctx context.Context, sessionID string, sc *models.SessionContext, rawText string) string {
	for _, h := range e.handlers {
		reply, handled, err := h.Handle(ctx, sessionID, sc, rawText)
		if err != nil {
			slog.Error("Engine.HandleTurn: handler failed", "error", err, "sessionID", sessionID, "flow", sc.Flow, "step", sc.Step)
			sc.SetFlow(models.FlowIdle, models.StepMenu)
			return "Uy, algo salió mal de mi lado 😅. Volvamos al menú.\n\n" + menuMessage(sc, false)
		}
		if handled {
			if reply == "" {
				// A handled turn with no text would leave the user hanging.
				slog.Warn("Engine.HandleTurn: handler returned empty reply", "sessionID", sessionID, "flow", sc.Flow, "step", sc.Step)
				reply = menuMessage(sc, false)
			}
			return reply
		}
	}
	// The router is total, so this is only reachable with a misconfigured
	// pipeline. Degrade to the menu rather than crash.
	slog.Warn("Engine.HandleTurn: no handler owned the turn", "sessionID", sessionID, "flow", sc.Flow, "step", sc.Step)
	sc.SetFlow(models.FlowIdle, models.StepMenu)
	return menuMessage(sc, false)
}
