// Package flow implements the conversational core: the onboarding and menu
// dialogue router, the booking interceptor that owns transactional turns, and
// the engine that runs them as an ordered handler pipeline.
package flow

import (
	"fmt"
	"strings"

	"github.com/treinafit/luka/internal/models"
)

// FirstMessage is the greeting shown before the user's first turn.
func FirstMessage() string {
	return "¡Hola! Soy **Luka**, asesor de Treina Fit 🙌\n" +
		"Quiero ayudarte a mantenerte constante y motivado.\n" +
		"Para empezar, decime tu **nombre**."
}

// menuMessage renders the main menu. With reinforcement enabled the first
// line is tailored to the motivation collected during onboarding.
func menuMessage(sc *models.SessionContext, reinforce bool) string {
	ref := ""
	if reinforce {
		switch sc.Motivation {
		case models.MotivationAlta:
			ref = "¡Bien ahí! Vamos a mantener esa racha 🔥\n"
		case models.MotivationMedia:
			ref = "¿Que anda pasando? podemos probar bajando el ritmo\n"
		case models.MotivationBaja:
			ref = "¡Arriba ese ánimo!, vamos a hacerlo simple y progresivo para retomar 💙\n"
		}
	}
	return ref +
		"Puedo ayudarte con:\n" +
		"1) **Reservar** una clase\n" +
		"2) **Cancelar** una reserva\n" +
		"3) Ver **mis turnos**\n" +
		"También podemos revisar tu plan cuando quieras: escribí *plan*."
}

// planMessage builds the remediation plan offered after a low-motivation
// onboarding, followed by the menu.
func planMessage(sc *models.SessionContext) string {
	motivo := sc.RelapseReason
	if motivo == "" {
		motivo = "varios motivos"
	}
	plan := fmt.Sprintf("Entiendo lo de *%s*. Te propongo esto:\n", motivo) +
		"- Semana 1: 2 clases cortas (40') sin presión.\n" +
		"- Semana 2: subimos a 3, mezclando fuerza + movilidad.\n" +
		"- Ajuste de alimentación simple (agua + proteína suficiente).\n" +
		"Si te va, ahora **reservamos** la primera así arrancás 😉 Escribí *reservar*."
	return plan + "\n\n" + menuMessage(sc, false)
}

// venuePrompt lists the venues with their menu numbers.
func venuePrompt(venues []string) string {
	return "Perfecto 💪. ¿En qué **sede** te queda mejor?\n" +
		fmt.Sprintf("1) %s\n", venues[0]) +
		fmt.Sprintf("2) %s\n", venues[1]) +
		"Podés responder 1) / 2) o escribir el nombre (ej: *Donado* / *La Pampa*)."
}

// venueReprompt repeats the venue options after a failed resolution.
func venueReprompt(venues []string) string {
	return "Elegí una sede:\n" +
		fmt.Sprintf("1) %s\n", venues[0]) +
		fmt.Sprintf("2) %s\n", venues[1]) +
		"Podés escribir 1) / 2) o parte del nombre (ej: *Donado* / *La Pampa*)."
}

// activityPrompt asks for an activity after the venue was chosen.
func activityPrompt(venue string, activities []string) string {
	return fmt.Sprintf("¡Perfecto! Elegiste **%s**. ¿Qué **actividad** querés? (%s)",
		venue, strings.Join(activities, " / "))
}

// confirmPrompt summarizes the in-progress reservation.
func confirmPrompt(sc *models.SessionContext) string {
	return fmt.Sprintf("Confirmo: %s en %s **%s** a las **%s**. ¿Reservo? (sí/no)",
		sc.Tmp[models.TmpActividad], sc.Tmp[models.TmpSede],
		sc.Tmp[models.TmpFecha], sc.Tmp[models.TmpHora])
}
