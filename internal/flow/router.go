package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/treinafit/luka/internal/fuzzy"
	"github.com/treinafit/luka/internal/models"
)

var motivationLevels = []string{"alta", "media", "baja"}
var dateKeywords = []string{"hoy", "mañana", "manana"}
var timeKeywords = []string{"19:00", "1900", "20:00", "2000"}

// Router is the onboarding + menu + reservation state machine. It produces a
// reply from text and session state alone; transactional turns are owned by
// the BookingInterceptor, which runs earlier in the pipeline. The router is
// total: it handles every turn that reaches it.
type Router struct {
	venues       []string
	activities   []string
	venueAliases map[string]string
}

// NewRouter creates a router over the configured venue and activity lists.
func NewRouter(venues, activities []string) *Router {
	return &Router{
		venues:       venues,
		activities:   activities,
		venueAliases: buildVenueAliases(venues),
	}
}

// buildVenueAliases maps normalized shorthand spellings to the configured
// venue names: the full name, the name without its street number, and for
// multi-word names the article-less variants ("pampa", "pampa 4309").
func buildVenueAliases(venues []string) map[string]string {
	aliases := make(map[string]string)
	for _, v := range venues {
		norm := fuzzy.Normalize(v)
		aliases[norm] = v
		fields := strings.Fields(norm)
		if len(fields) > 1 {
			aliases[strings.Join(fields[:len(fields)-1], " ")] = v
		}
		if len(fields) > 2 {
			aliases[strings.Join(fields[1:len(fields)-1], " ")] = v
			aliases[strings.Join(fields[1:], " ")] = v
		}
	}
	return aliases
}

// Handle routes one turn through the transition table.
func (r *Router) Handle(ctx context.Context, sessionID string, sc *models.SessionContext, text string) (string, bool, error) {
	t := strings.TrimSpace(text)
	slog.Debug("Router.Handle", "sessionID", sessionID, "flow", sc.Flow, "step", sc.Step)

	if sc.Flow == models.FlowIdle {
		if reply, done := r.handleOnboarding(sc, t); done {
			return reply, true, nil
		}
		return r.handleCommands(sc, t), true, nil
	}

	if sc.Flow == models.FlowReservar {
		return r.handleReservation(sc, t), true, nil
	}

	// FlowCancelar and FlowMisTurnos are owned by the BookingInterceptor.
	// A turn can only fall through to here without one configured; degrade
	// to the menu rather than strand the session.
	sc.SetFlow(models.FlowIdle, models.StepMenu)
	return menuMessage(sc, false), true, nil
}

// handleOnboarding covers the name/goal/motivation/relapse steps. It reports
// done=false when the session is past onboarding and the turn should be
// checked against the global commands.
func (r *Router) handleOnboarding(sc *models.SessionContext, t string) (string, bool) {
	switch sc.Step {
	case models.StepStart:
		if utf8.RuneCountInString(t) < 2 {
			return "Decime tu **nombre** así te hablo bien 🙂", true
		}
		sc.Name = fuzzy.Title(t)
		sc.SetStep(models.StepAskGoal)
		return fmt.Sprintf("¡Genial, %s! ¿Cuál es tu **objetivo principal** ahora? "+
			"(Ej: bajar grasa, ganar masa, rendir en fútbol, salud)", sc.Name), true

	case models.StepAskGoal:
		sc.Goal = t
		sc.SetStep(models.StepAskMotivation)
		return "Anotado 💾. Siendo sincero/a, ¿cómo te sentís de **motivación** esta semana?\n" +
			"Escribí: *Alta*, *Media* o *Baja*.", true

	case models.StepAskMotivation:
		level, ok := fuzzy.ClosestMatch(t, motivationLevels, fuzzy.DefaultCutoff)
		if !ok {
			return "Decime si tu motivación está *Alta*, *Media* o *Baja*.", true
		}
		sc.Motivation = models.Motivation(level)
		if sc.Motivation == models.MotivationBaja {
			sc.SetStep(models.StepAskRelapse)
			return "Gracias por contarlo. ¿Qué te está tirando abajo?\n" +
				"Ej: poco tiempo, dolor/lesión, no veo resultados, me aburro, tema $$, otra cosa…", true
		}
		sc.SetStep(models.StepMenu)
		return menuMessage(sc, true), true

	case models.StepAskRelapse:
		sc.RelapseReason = t
		sc.SetStep(models.StepMenu)
		return planMessage(sc), true
	}
	return "", false
}

// handleCommands resolves the global menu commands available while idle.
// Anything unrecognized falls through to the menu default reply.
func (r *Router) handleCommands(sc *models.SessionContext, t string) string {
	low := strings.ToLower(t)

	switch low {
	case "menu", "menú", "ayuda", "opciones":
		sc.SetFlow(models.FlowIdle, models.StepMenu)
		return menuMessage(sc, false)
	case "plan":
		sc.SetFlow(models.FlowIdle, models.StepMenu)
		return planMessage(sc)
	}

	if strings.HasPrefix(low, "reserv") || low == "1" || low == "turno" || low == "sacar turno" {
		sc.SetFlow(models.FlowReservar, models.StepReservarSede)
		return venuePrompt(r.venues)
	}

	if strings.HasPrefix(low, "cancel") || low == "2" || low == "dar de baja" {
		sc.SetFlow(models.FlowCancelar, models.StepCancelar)
		return "Te muestro tus **próximos turnos**. Decime el **ID** del que querés cancelar."
	}

	if strings.Contains(low, "mis turnos") || low == "3" || low == "turnos" {
		sc.SetFlow(models.FlowMisTurnos, models.StepMisTurnos)
		return "Estos son tus turnos."
	}

	return menuMessage(sc, false)
}

// handleReservation walks the guided reservation steps. The affirmative
// confirmation is normally intercepted before reaching the router; the
// acknowledgement here is the fallback when no interceptor is configured.
func (r *Router) handleReservation(sc *models.SessionContext, t string) string {
	switch sc.Step {
	case models.StepReservarSede:
		chosen := ""
		switch fuzzy.ParseOption12(t) {
		case 1:
			chosen = r.venues[0]
		case 2:
			chosen = r.venues[1]
		default:
			if v, ok := r.venueAliases[fuzzy.Normalize(t)]; ok {
				chosen = v
			} else if v, ok := fuzzy.ClosestMatch(t, r.venues, fuzzy.VenueCutoff); ok {
				chosen = v
			}
		}
		if chosen == "" {
			return venueReprompt(r.venues)
		}
		sc.SetTmp(models.TmpSede, chosen)
		sc.SetStep(models.StepReservarActividad)
		return activityPrompt(chosen, r.activities)

	case models.StepReservarActividad:
		act, ok := fuzzy.ClosestMatch(t, r.activities, fuzzy.DefaultCutoff)
		if !ok {
			bold := make([]string, len(r.activities))
			for i, a := range r.activities {
				bold[i] = "**" + a + "**"
			}
			return "Decime " + strings.Join(bold[:len(bold)-1], ", ") + " o " + bold[len(bold)-1] + "."
		}
		sc.SetTmp(models.TmpActividad, act)
		sc.SetStep(models.StepReservarFecha)
		return "¿Para **qué día**? Escribí *hoy* o *mañana*."

	case models.StepReservarFecha:
		kw, ok := fuzzy.ClosestMatch(t, dateKeywords, fuzzy.DefaultCutoff)
		if !ok {
			return "Decime *hoy* o *mañana*."
		}
		fecha := "mañana"
		if kw == "hoy" {
			fecha = "hoy"
		}
		sc.SetTmp(models.TmpFecha, fecha)
		sc.SetStep(models.StepReservarHorario)
		return "Genial. Horarios disponibles: **19:00** o **20:00**. ¿Cuál te va?"

	case models.StepReservarHorario:
		hr, ok := fuzzy.ClosestMatch(t, timeKeywords, fuzzy.DefaultCutoff)
		if !ok {
			return "Elegí **19:00** o **20:00**."
		}
		hora := "20:00"
		if strings.HasPrefix(hr, "19") {
			hora = "19:00"
		}
		sc.SetTmp(models.TmpHora, hora)
		sc.SetStep(models.StepReservarConfirmar)
		return confirmPrompt(sc)

	case models.StepReservarConfirmar:
		switch fuzzy.ParseYesNo(t) {
		case fuzzy.Yes:
			sc.SetStep(models.StepMenu)
			return "¡Listo! Estoy reservando… ✅"
		case fuzzy.No:
			sc.SetFlow(models.FlowIdle, models.StepMenu)
			return "Cancelado. Volvemos al menú."
		}
		return "¿Confirmo la reserva? (sí/no)"
	}

	return "Seguimos con la reserva. Decime lo último que te pedí 🙂"
}
