package flow

import (
	"context"
	"log/slog"

	"github.com/treinafit/luka/internal/faq"
	"github.com/treinafit/luka/internal/models"
)

// FAQHandler answers free-text questions from the FAQ index. It only claims
// turns for idle sessions past onboarding, so a question typed mid-flow never
// derails the flow.
type FAQHandler struct {
	index *faq.Index
}

// NewFAQHandler creates a handler over the given index.
func NewFAQHandler(index *faq.Index) *FAQHandler {
	return &FAQHandler{index: index}
}

// Handle looks the text up in the FAQ index.
func (f *FAQHandler) Handle(ctx context.Context, sessionID string, sc *models.SessionContext, text string) (string, bool, error) {
	if sc.Flow != models.FlowIdle || sc.Step != models.StepMenu {
		return "", false, nil
	}
	answer, ok := f.index.Lookup(text)
	if !ok {
		return "", false, nil
	}
	slog.Debug("FAQHandler.Handle matched", "sessionID", sessionID)
	return answer + "\n\n¿Querés que te ayude a **reservar** algo? (escribí *reservar*)", true, nil
}
