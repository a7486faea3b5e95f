package flow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/treinafit/luka/internal/faq"
	"github.com/treinafit/luka/internal/models"
	"github.com/treinafit/luka/internal/sched"
)

func newTestEngine(t *testing.T) (*Engine, *sched.MemoryStore) {
	t.Helper()
	store := sched.NewMemoryStore(interceptorNow)
	index, err := faq.NewIndex()
	if err != nil {
		t.Fatalf("faq.NewIndex: %v", err)
	}
	engine := NewEngine(
		NewBookingInterceptor(store, func() time.Time { return interceptorNow }),
		NewFAQHandler(index),
		NewRouter(sched.Venues(), sched.Activities()),
	)
	return engine, store
}

// TestEngineFullConversation walks a complete session: onboarding, an FAQ
// question, a typo-ridden reservation, listing, and cancellation.
func TestEngineFullConversation(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	sc := models.NewSessionContext()

	turn := func(text string) string {
		t.Helper()
		reply := engine.HandleTurn(ctx, "sess-e2e", sc, text)
		if reply == "" {
			t.Fatalf("HandleTurn(%q) returned empty reply", text)
		}
		return reply
	}

	turn("lucas")
	turn("bajar grasa")
	reply := turn("media")
	if !strings.Contains(reply, "1) **Reservar**") {
		t.Fatalf("menu not reached: %q", reply)
	}

	// FAQ claims idle questions and nudges toward a reservation.
	reply = turn("che, qué horarios tienen?")
	if !strings.Contains(reply, "19:00") || !strings.Contains(reply, "*reservar*") {
		t.Fatalf("faq reply = %q", reply)
	}
	if sc.Flow != models.FlowIdle || sc.Step != models.StepMenu {
		t.Fatalf("faq turn must not move the session: (%s, %s)", sc.Flow, sc.Step)
	}

	turn("reservar")
	turn("2")
	turn("crossw")
	turn("hoy")

	// Off-vocabulary time: the interceptor answers with real availability.
	reply = turn("a la tarde?")
	if !strings.Contains(reply, "Disponibles para hoy") || !strings.Contains(reply, "19:00, 20:00") {
		t.Fatalf("availability reply = %q", reply)
	}
	if sc.Step != models.StepReservarHorario {
		t.Fatalf("step = %q, want to stay at reservar_horario", sc.Step)
	}

	reply = turn("20:00")
	if !strings.Contains(reply, "¿Reservo?") {
		t.Fatalf("confirm prompt not reached: %q", reply)
	}
	if sc.Tmp[models.TmpSede] != "La Pampa 4309" || sc.Tmp[models.TmpActividad] != "Cross" ||
		sc.Tmp[models.TmpHora] != "20:00" {
		t.Fatalf("collected Tmp = %v", sc.Tmp)
	}

	reply = turn("sí")
	if !strings.Contains(reply, "Reserva confirmada") {
		t.Fatalf("reply = %q", reply)
	}
	bookings, err := store.ListBookings(ctx, "sess-e2e")
	if err != nil || len(bookings) != 1 {
		t.Fatalf("bookings=%v err=%v", bookings, err)
	}
	id := bookings[0].ID

	// "mis turnos" transitions; the next turn lists.
	turn("mis turnos")
	reply = turn("ok")
	if !strings.Contains(reply, id) {
		t.Fatalf("listing reply = %q", reply)
	}

	turn("cancelar")
	reply = turn(id)
	if !strings.Contains(reply, "cancelé el turno") {
		t.Fatalf("cancel reply = %q", reply)
	}
	if sc.Flow != models.FlowIdle || sc.Step != models.StepMenu {
		t.Fatalf("session = (%s, %s), want (idle, menu)", sc.Flow, sc.Step)
	}
	bookings, _ = store.ListBookings(ctx, "sess-e2e")
	if bookings[0].Status != models.BookingCancelled {
		t.Fatalf("status = %q", bookings[0].Status)
	}
}

type failingHandler struct{}

func (failingHandler) Handle(ctx context.Context, sessionID string, sc *models.SessionContext, text string) (string, bool, error) {
	return "", false, errors.New("backend down")
}

func TestEngineDegradesOnHandlerError(t *testing.T) {
	engine := NewEngine(failingHandler{}, newTestRouter())
	sc := models.NewSessionContext()
	sc.SetFlow(models.FlowReservar, models.StepReservarSede)

	reply := engine.HandleTurn(context.Background(), "sess-1", sc, "1")
	if !strings.Contains(reply, "algo salió mal") || !strings.Contains(reply, "1) **Reservar**") {
		t.Errorf("reply = %q, want apology plus menu", reply)
	}
	if sc.Flow != models.FlowIdle || sc.Step != models.StepMenu {
		t.Errorf("session = (%s, %s), want (idle, menu)", sc.Flow, sc.Step)
	}
}

func TestEngineWithoutHandlersFallsBackToMenu(t *testing.T) {
	engine := NewEngine()
	sc := models.NewSessionContext()
	reply := engine.HandleTurn(context.Background(), "sess-1", sc, "hola")
	if !strings.Contains(reply, "1) **Reservar**") {
		t.Errorf("reply = %q, want menu", reply)
	}
}
