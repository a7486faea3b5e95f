package flow

import (
	"context"
	"strings"
	"testing"

	"github.com/treinafit/luka/internal/models"
	"github.com/treinafit/luka/internal/sched"
)

func newTestRouter() *Router {
	return NewRouter(sched.Venues(), sched.Activities())
}

func routeTurn(t *testing.T, r *Router, sc *models.SessionContext, text string) string {
	t.Helper()
	reply, handled, err := r.Handle(context.Background(), "sess-1", sc, text)
	if err != nil {
		t.Fatalf("Handle(%q) returned error: %v", text, err)
	}
	if !handled {
		t.Fatalf("Handle(%q) did not claim the turn", text)
	}
	if reply == "" {
		t.Fatalf("Handle(%q) returned empty reply", text)
	}
	return reply
}

func TestRouterOnboardingHighMotivation(t *testing.T) {
	r := newTestRouter()
	sc := models.NewSessionContext()

	reply := routeTurn(t, r, sc, "lucas pérez")
	if sc.Name != "Lucas Pérez" {
		t.Errorf("Name = %q, want %q", sc.Name, "Lucas Pérez")
	}
	if !strings.Contains(reply, "Lucas Pérez") || !strings.Contains(reply, "objetivo") {
		t.Errorf("goal prompt missing name or question: %q", reply)
	}
	if sc.Step != models.StepAskGoal {
		t.Fatalf("step = %q, want ask_goal", sc.Step)
	}

	routeTurn(t, r, sc, "bajar grasa")
	if sc.Goal != "bajar grasa" {
		t.Errorf("Goal = %q, want verbatim text", sc.Goal)
	}
	if sc.Step != models.StepAskMotivation {
		t.Fatalf("step = %q, want ask_motivation", sc.Step)
	}

	// Typo still resolves to "alta" and skips the relapse question.
	reply = routeTurn(t, r, sc, "altta")
	if sc.Motivation != models.MotivationAlta {
		t.Errorf("Motivation = %q, want alta", sc.Motivation)
	}
	if sc.Flow != models.FlowIdle || sc.Step != models.StepMenu {
		t.Fatalf("session = (%s, %s), want (idle, menu)", sc.Flow, sc.Step)
	}
	if !strings.Contains(reply, "¡Bien ahí!") || !strings.Contains(reply, "1) **Reservar**") {
		t.Errorf("menu missing reinforcement or options: %q", reply)
	}
}

func TestRouterOnboardingLowMotivation(t *testing.T) {
	r := newTestRouter()
	sc := models.NewSessionContext()
	routeTurn(t, r, sc, "Ana")
	routeTurn(t, r, sc, "salud")

	reply := routeTurn(t, r, sc, "vaja")
	if sc.Motivation != models.MotivationBaja {
		t.Fatalf("Motivation = %q, want baja", sc.Motivation)
	}
	if sc.Step != models.StepAskRelapse {
		t.Fatalf("step = %q, want ask_relapse", sc.Step)
	}
	if !strings.Contains(reply, "tirando abajo") {
		t.Errorf("relapse prompt = %q", reply)
	}

	reply = routeTurn(t, r, sc, "poco tiempo")
	if sc.RelapseReason != "poco tiempo" {
		t.Errorf("RelapseReason = %q", sc.RelapseReason)
	}
	if !strings.Contains(reply, "poco tiempo") || !strings.Contains(reply, "Semana 1") {
		t.Errorf("plan missing reason or schedule: %q", reply)
	}
	if sc.Step != models.StepMenu {
		t.Fatalf("step = %q, want menu", sc.Step)
	}
}

func TestRouterShortNameReprompts(t *testing.T) {
	r := newTestRouter()
	sc := models.NewSessionContext()
	reply := routeTurn(t, r, sc, "L")
	if !strings.Contains(reply, "nombre") {
		t.Errorf("reply = %q, want name reprompt", reply)
	}
	if sc.Step != models.StepStart || sc.Name != "" {
		t.Errorf("short name must not advance: step=%q name=%q", sc.Step, sc.Name)
	}
}

func TestRouterUnrecognizedMotivationReprompts(t *testing.T) {
	r := newTestRouter()
	sc := models.NewSessionContext()
	sc.SetStep(models.StepAskMotivation)
	reply := routeTurn(t, r, sc, "ni idea che")
	if sc.Step != models.StepAskMotivation || sc.Motivation != models.MotivationUnset {
		t.Errorf("unmatched motivation must not advance: step=%q", sc.Step)
	}
	if !strings.Contains(reply, "*Alta*") {
		t.Errorf("reply = %q, want motivation reprompt", reply)
	}
}

func menuContext() *models.SessionContext {
	sc := models.NewSessionContext()
	sc.Name = "Lucas"
	sc.SetStep(models.StepMenu)
	return sc
}

func TestRouterGlobalCommands(t *testing.T) {
	tests := []struct {
		text     string
		wantFlow models.Flow
		wantStep models.Step
	}{
		{"reservar", models.FlowReservar, models.StepReservarSede},
		{"Reservemos", models.FlowReservar, models.StepReservarSede},
		{"1", models.FlowReservar, models.StepReservarSede},
		{"sacar turno", models.FlowReservar, models.StepReservarSede},
		{"cancelar", models.FlowCancelar, models.StepCancelar},
		{"2", models.FlowCancelar, models.StepCancelar},
		{"dar de baja", models.FlowCancelar, models.StepCancelar},
		{"mis turnos", models.FlowMisTurnos, models.StepMisTurnos},
		{"quiero ver mis turnos", models.FlowMisTurnos, models.StepMisTurnos},
		{"3", models.FlowMisTurnos, models.StepMisTurnos},
		{"menú", models.FlowIdle, models.StepMenu},
		{"ayuda", models.FlowIdle, models.StepMenu},
	}
	r := newTestRouter()
	for _, tc := range tests {
		sc := menuContext()
		routeTurn(t, r, sc, tc.text)
		if sc.Flow != tc.wantFlow || sc.Step != tc.wantStep {
			t.Errorf("%q: session = (%s, %s), want (%s, %s)",
				tc.text, sc.Flow, sc.Step, tc.wantFlow, tc.wantStep)
		}
	}
}

func TestRouterPlanCommand(t *testing.T) {
	r := newTestRouter()
	sc := menuContext()
	sc.RelapseReason = "me aburro"
	reply := routeTurn(t, r, sc, "plan")
	if !strings.Contains(reply, "me aburro") || !strings.Contains(reply, "Semana 1") {
		t.Errorf("reply = %q, want plan with reason", reply)
	}
	if sc.Flow != models.FlowIdle || sc.Step != models.StepMenu {
		t.Errorf("session = (%s, %s), want (idle, menu)", sc.Flow, sc.Step)
	}
}

func TestRouterUnknownTextAtMenuShowsMenu(t *testing.T) {
	r := newTestRouter()
	sc := menuContext()
	reply := routeTurn(t, r, sc, "qwerty")
	if !strings.Contains(reply, "1) **Reservar**") {
		t.Errorf("reply = %q, want menu", reply)
	}
	if sc.Flow != models.FlowIdle || sc.Step != models.StepMenu {
		t.Errorf("session = (%s, %s), want (idle, menu)", sc.Flow, sc.Step)
	}
}

func reservarContext(step models.Step) *models.SessionContext {
	sc := menuContext()
	sc.SetFlow(models.FlowReservar, models.StepReservarSede)
	sc.SetStep(step)
	return sc
}

func TestRouterVenueResolution(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"1", "Donado 2244"},
		// Inside the reservation flow "2" picks the second venue; it is
		// not the global cancel command.
		{"2", "La Pampa 4309"},
		{"2)", "La Pampa 4309"},
		{"donado", "Donado 2244"},
		{"La Pampa", "La Pampa 4309"},
		{"pampa", "La Pampa 4309"},
		{"pampa 4309", "La Pampa 4309"},
		{"donaso", "Donado 2244"},
		{"la panpa", "La Pampa 4309"},
	}
	r := newTestRouter()
	for _, tc := range tests {
		sc := reservarContext(models.StepReservarSede)
		reply := routeTurn(t, r, sc, tc.text)
		if got := sc.Tmp[models.TmpSede]; got != tc.want {
			t.Errorf("%q: venue = %q, want %q", tc.text, got, tc.want)
			continue
		}
		if sc.Step != models.StepReservarActividad {
			t.Errorf("%q: step = %q, want reservar_actividad", tc.text, sc.Step)
		}
		if !strings.Contains(reply, tc.want) {
			t.Errorf("%q: reply %q missing venue", tc.text, reply)
		}
	}
}

func TestRouterVenueRepromptOnNoise(t *testing.T) {
	r := newTestRouter()
	sc := reservarContext(models.StepReservarSede)
	reply := routeTurn(t, r, sc, "zzz")
	if sc.Step != models.StepReservarSede {
		t.Errorf("step = %q, want reservar_sede", sc.Step)
	}
	if !strings.Contains(reply, "Elegí una sede") {
		t.Errorf("reply = %q, want venue reprompt", reply)
	}
}

func TestRouterReservationStepsWithTypos(t *testing.T) {
	r := newTestRouter()
	sc := reservarContext(models.StepReservarActividad)
	sc.SetTmp(models.TmpSede, "Donado 2244")

	routeTurn(t, r, sc, "funcionl")
	if sc.Tmp[models.TmpActividad] != "Funcional" {
		t.Fatalf("actividad = %q", sc.Tmp[models.TmpActividad])
	}

	routeTurn(t, r, sc, "manana")
	if sc.Tmp[models.TmpFecha] != "mañana" {
		t.Fatalf("fecha = %q, want mañana", sc.Tmp[models.TmpFecha])
	}

	reply := routeTurn(t, r, sc, "1900")
	if sc.Tmp[models.TmpHora] != "19:00" {
		t.Fatalf("hora = %q, want 19:00", sc.Tmp[models.TmpHora])
	}
	if sc.Step != models.StepReservarConfirmar {
		t.Fatalf("step = %q, want reservar_confirmar", sc.Step)
	}
	if !strings.Contains(reply, "Funcional") || !strings.Contains(reply, "19:00") {
		t.Errorf("confirm prompt = %q", reply)
	}
}

func TestRouterConfirmStep(t *testing.T) {
	r := newTestRouter()

	sc := reservarContext(models.StepReservarConfirmar)
	reply := routeTurn(t, r, sc, "puede ser")
	if sc.Step != models.StepReservarConfirmar {
		t.Errorf("unknown answer must not advance: step = %q", sc.Step)
	}
	if !strings.Contains(reply, "(sí/no)") {
		t.Errorf("reply = %q, want yes/no reprompt", reply)
	}

	sc = reservarContext(models.StepReservarConfirmar)
	reply = routeTurn(t, r, sc, "no")
	if sc.Flow != models.FlowIdle || sc.Step != models.StepMenu {
		t.Errorf("session = (%s, %s), want (idle, menu)", sc.Flow, sc.Step)
	}
	if !strings.Contains(reply, "Cancelado") {
		t.Errorf("reply = %q", reply)
	}

	// Without an interceptor in front the router acknowledges on its own.
	sc = reservarContext(models.StepReservarConfirmar)
	reply = routeTurn(t, r, sc, "dale")
	if !strings.Contains(reply, "reservando") {
		t.Errorf("reply = %q", reply)
	}
	if sc.Flow != models.FlowReservar || sc.Step != models.StepMenu {
		t.Errorf("session = (%s, %s)", sc.Flow, sc.Step)
	}
}

// TestRouterTotality drives every valid (flow, step) pair through the router
// and checks that each turn is claimed, replies, and leaves the session on a
// valid pair again.
func TestRouterTotality(t *testing.T) {
	pairs := []struct {
		flow models.Flow
		step models.Step
	}{
		{models.FlowIdle, models.StepStart},
		{models.FlowIdle, models.StepAskGoal},
		{models.FlowIdle, models.StepAskMotivation},
		{models.FlowIdle, models.StepAskRelapse},
		{models.FlowIdle, models.StepMenu},
		{models.FlowReservar, models.StepReservarSede},
		{models.FlowReservar, models.StepReservarActividad},
		{models.FlowReservar, models.StepReservarFecha},
		{models.FlowReservar, models.StepReservarHorario},
		{models.FlowReservar, models.StepReservarConfirmar},
		{models.FlowReservar, models.StepMenu},
		{models.FlowCancelar, models.StepCancelar},
		{models.FlowMisTurnos, models.StepMisTurnos},
	}
	inputs := []string{"", "hola", "2", "asdfgh", "reservar", "sí"}

	r := newTestRouter()
	for _, p := range pairs {
		for _, in := range inputs {
			sc := models.NewSessionContext()
			sc.Flow = p.flow
			sc.Step = p.step
			reply, handled, err := r.Handle(context.Background(), "sess-t", sc, in)
			if err != nil {
				t.Fatalf("(%s,%s) %q: error %v", p.flow, p.step, in, err)
			}
			if !handled || reply == "" {
				t.Errorf("(%s,%s) %q: handled=%v reply=%q", p.flow, p.step, in, handled, reply)
			}
			if !sc.Step.ValidFor(sc.Flow) {
				t.Errorf("(%s,%s) %q: left invalid pair (%s,%s)",
					p.flow, p.step, in, sc.Flow, sc.Step)
			}
		}
	}
}
