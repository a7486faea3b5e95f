package flow

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/treinafit/luka/internal/fuzzy"
	"github.com/treinafit/luka/internal/models"
	"github.com/treinafit/luka/internal/sched"
	"github.com/treinafit/luka/internal/util"
)

// BookingInterceptor owns the transactional turns: confirming a reservation,
// cancelling a booking, and listing bookings. It runs before the router and
// passes on every turn whose (flow, step) pair is not one of its own, so the
// router never sees a turn that moves real bookings.
type BookingInterceptor struct {
	store sched.Store
	now   func() time.Time
}

// NewBookingInterceptor creates an interceptor over the scheduling store.
// The now function defaults to time.Now and exists for tests.
func NewBookingInterceptor(store sched.Store, now func() time.Time) *BookingInterceptor {
	if now == nil {
		now = time.Now
	}
	return &BookingInterceptor{store: store, now: now}
}

// Handle claims the turn when the session sits on a transactional (flow, step)
// pair and the text completes the transaction.
func (b *BookingInterceptor) Handle(ctx context.Context, sessionID string, sc *models.SessionContext, text string) (string, bool, error) {
	t := strings.TrimSpace(text)

	switch {
	case sc.Flow == models.FlowReservar && sc.Step == models.StepReservarHorario:
		if isTimeToken(t) {
			return "", false, nil
		}
		reply, err := b.listHours(ctx, sessionID, sc)
		return reply, true, err

	case sc.Flow == models.FlowReservar && sc.Step == models.StepReservarConfirmar:
		if !fuzzy.IsAffirmative(t) {
			return "", false, nil
		}
		reply, err := b.confirmReservation(ctx, sessionID, sc)
		return reply, true, err

	case sc.Flow == models.FlowCancelar && sc.Step == models.StepCancelar:
		reply, err := b.cancelTurn(ctx, sessionID, sc, t)
		return reply, true, err

	case sc.Flow == models.FlowMisTurnos && sc.Step == models.StepMisTurnos:
		reply, err := b.listTurn(ctx, sessionID, sc)
		return reply, true, err
	}

	return "", false, nil
}

// timeTokens are the inputs the router recognizes at the horario step.
// Anything else is answered with the real availability instead.
var timeTokens = map[string]bool{"19:00": true, "1900": true, "20:00": true, "2000": true}

func isTimeToken(t string) bool {
	return timeTokens[fuzzy.Normalize(t)]
}

// listHours shows the actual available hours for the in-progress selection,
// deduplicated and sorted, keeping the session at the horario step.
func (b *BookingInterceptor) listHours(ctx context.Context, sessionID string, sc *models.SessionContext) (string, error) {
	fecha := sc.Tmp[models.TmpFecha]
	if fecha == "" {
		fecha = "hoy"
	}
	isoDate := b.resolveDate(fecha)

	slots, err := b.store.ListSlots(ctx, sc.Tmp[models.TmpSede], sc.Tmp[models.TmpActividad], isoDate)
	if err != nil {
		return "", fmt.Errorf("listing slots: %w", err)
	}
	if len(slots) == 0 {
		return "No hay cupos ese día. Probá *hoy* o *mañana*.", nil
	}

	seen := make(map[string]bool)
	var hours []string
	for _, slot := range slots {
		if !seen[slot.Time] {
			seen[slot.Time] = true
			hours = append(hours, slot.Time)
		}
	}
	sort.Strings(hours)
	slog.Debug("BookingInterceptor.listHours", "sessionID", sessionID, "date", isoDate, "hours", hours)
	return fmt.Sprintf("Disponibles para %s: **%s**. Elegí uno.", fecha, strings.Join(hours, ", ")), nil
}

// confirmReservation books the slot assembled in the session Tmp and resets
// the session to the menu whatever the outcome.
func (b *BookingInterceptor) confirmReservation(ctx context.Context, sessionID string, sc *models.SessionContext) (string, error) {
	sede := sc.Tmp[models.TmpSede]
	actividad := sc.Tmp[models.TmpActividad]
	fecha := sc.Tmp[models.TmpFecha]
	hora := sc.Tmp[models.TmpHora]

	isoDate := b.resolveDate(fecha)
	slotID := sched.SlotID(sede, actividad, isoDate, hora)

	slot, err := b.store.GetSlot(ctx, slotID)
	if err != nil {
		sc.SetFlow(models.FlowIdle, models.StepMenu)
		return "", fmt.Errorf("resolving slot %s: %w", slotID, err)
	}
	if slot == nil {
		slog.Warn("BookingInterceptor.confirmReservation slot not found",
			"sessionID", sessionID, "slotID", slotID)
		sc.SetFlow(models.FlowIdle, models.StepMenu)
		return "Uy, ese horario ya no está disponible 😕. Escribí *reservar* para elegir otro.", nil
	}

	bookingID, err := b.store.CreateBooking(ctx, sessionID, slotID)
	if err != nil {
		sc.SetFlow(models.FlowIdle, models.StepMenu)
		return "", fmt.Errorf("creating booking for slot %s: %w", slotID, err)
	}

	slog.Info("BookingInterceptor.confirmReservation succeeded",
		"sessionID", sessionID, "bookingID", bookingID, "slotID", slotID)
	sc.SetFlow(models.FlowIdle, models.StepMenu)
	return fmt.Sprintf(
		"✅ ¡Reserva confirmada!\nID **%s**\n%s · %s · %s %s\n\n"+
			"Si no llegás, escribí *cancelar* y lo liberamos.",
		bookingID, slot.Venue, slot.Activity, slot.Date, slot.Time), nil
}

// cancelTurn treats the text as a booking id when it plausibly is one and it
// belongs to the session; otherwise it lists the active bookings and asks
// again.
func (b *BookingInterceptor) cancelTurn(ctx context.Context, sessionID string, sc *models.SessionContext, t string) (string, error) {
	bookings, err := b.store.ListBookings(ctx, sessionID)
	if err != nil {
		sc.SetFlow(models.FlowIdle, models.StepMenu)
		return "", fmt.Errorf("listing bookings: %w", err)
	}

	if id, ok := candidateBookingID(t, bookings); ok {
		cancelled, err := b.store.CancelBooking(ctx, sessionID, id)
		if err != nil {
			sc.SetFlow(models.FlowIdle, models.StepMenu)
			return "", fmt.Errorf("cancelling booking %s: %w", id, err)
		}
		sc.SetFlow(models.FlowIdle, models.StepMenu)
		if cancelled {
			slog.Info("BookingInterceptor.cancelTurn succeeded",
				"sessionID", sessionID, "bookingID", id)
			return fmt.Sprintf("✅ Listo, cancelé el turno **%s**. ¡Gracias por avisar!", id), nil
		}
		return fmt.Sprintf("El turno **%s** ya estaba cancelado.", id), nil
	}

	active := confirmedOnly(bookings)
	if len(active) == 0 {
		sc.SetFlow(models.FlowIdle, models.StepMenu)
		return "No tenés turnos activos para cancelar. Escribí *reservar* si querés sacar uno 🙂.", nil
	}

	lines, err := b.bookingLines(ctx, active)
	if err != nil {
		sc.SetFlow(models.FlowIdle, models.StepMenu)
		return "", err
	}
	return "Estos son tus turnos activos:\n" + lines +
		"\nDecime el **ID** exacto del que querés cancelar.", nil
}

// listTurn shows the session's bookings and returns to the menu.
func (b *BookingInterceptor) listTurn(ctx context.Context, sessionID string, sc *models.SessionContext) (string, error) {
	bookings, err := b.store.ListBookings(ctx, sessionID)
	if err != nil {
		sc.SetFlow(models.FlowIdle, models.StepMenu)
		return "", fmt.Errorf("listing bookings: %w", err)
	}
	sc.SetFlow(models.FlowIdle, models.StepMenu)

	if len(bookings) == 0 {
		return "Todavía no tenés turnos. Escribí *reservar* y sacamos uno 💪.", nil
	}
	lines, err := b.bookingLines(ctx, bookings)
	if err != nil {
		return "", err
	}
	return "Tus turnos:\n" + lines + "\nEscribí *menu* para volver al menú.", nil
}

// bookingLines renders one markdown bullet per booking, expanding each slot.
func (b *BookingInterceptor) bookingLines(ctx context.Context, bookings []models.Booking) (string, error) {
	var sb strings.Builder
	for _, bk := range bookings {
		slot, err := b.store.GetSlot(ctx, bk.SlotID)
		if err != nil {
			return "", fmt.Errorf("resolving slot %s: %w", bk.SlotID, err)
		}
		if slot == nil {
			fmt.Fprintf(&sb, "- ID **%s** · %s\n", bk.ID, bk.Status)
			continue
		}
		fmt.Fprintf(&sb, "- ID **%s** · %s · %s · %s %s · %s\n",
			bk.ID, slot.Venue, slot.Activity, slot.Date, slot.Time, bk.Status)
	}
	return sb.String(), nil
}

// resolveDate maps the conversational date keyword to an ISO date.
func (b *BookingInterceptor) resolveDate(fecha string) string {
	day := b.now()
	if fuzzy.Normalize(fecha) != "hoy" {
		day = day.AddDate(0, 0, 1)
	}
	return day.Format("2006-01-02")
}

// candidateBookingID decides whether the text names one of the session's
// bookings. Shape alone is not enough: a plausible id that matches none of
// the session's bookings is treated as noise so the caller re-lists instead
// of failing the cancellation.
func candidateBookingID(t string, bookings []models.Booking) (string, bool) {
	low := strings.ToLower(t)
	if len(t) < util.BookingIDLength-2 || strings.HasPrefix(low, "cancelar") || low == "2" {
		return "", false
	}
	id := strings.ToUpper(t)
	for _, bk := range bookings {
		if bk.ID == id {
			return id, true
		}
	}
	return "", false
}

// confirmedOnly filters the bookings down to the confirmed ones.
func confirmedOnly(bookings []models.Booking) []models.Booking {
	var out []models.Booking
	for _, bk := range bookings {
		if bk.Status == models.BookingConfirmed {
			out = append(out, bk)
		}
	}
	return out
}
