// Package models defines the session state structures for Luka conversations.
package models

import "time"

// Flow is the top-level conversational mode of a session.
type Flow string

const (
	// FlowIdle covers onboarding and the main menu.
	FlowIdle Flow = "idle"
	// FlowReservar is the guided class reservation sub-flow.
	FlowReservar Flow = "reservar"
	// FlowCancelar is the booking cancellation sub-flow.
	FlowCancelar Flow = "cancelar"
	// FlowMisTurnos lists the session's bookings.
	FlowMisTurnos Flow = "mis_turnos"
)

// Step is the sub-state within a Flow; it decides which reprompt and
// transition apply on the next turn.
type Step string

const (
	// Onboarding steps (FlowIdle).
	StepStart         Step = "start"
	StepAskGoal       Step = "ask_goal"
	StepAskMotivation Step = "ask_motivation"
	StepAskRelapse    Step = "ask_relapse"
	StepMenu          Step = "menu"

	// Reservation steps (FlowReservar).
	StepReservarSede      Step = "reservar_sede"
	StepReservarActividad Step = "reservar_actividad"
	StepReservarFecha     Step = "reservar_fecha"
	StepReservarHorario   Step = "reservar_horario"
	StepReservarConfirmar Step = "reservar_confirmar"

	// Single-step flows.
	StepCancelar  Step = "cancelar"
	StepMisTurnos Step = "mis_turnos"
)

// stepsByFlow is the closed set of steps valid for each flow.
var stepsByFlow = map[Flow][]Step{
	FlowIdle:      {StepStart, StepAskGoal, StepAskMotivation, StepAskRelapse, StepMenu},
	FlowReservar:  {StepReservarSede, StepReservarActividad, StepReservarFecha, StepReservarHorario, StepReservarConfirmar, StepMenu},
	FlowCancelar:  {StepCancelar},
	FlowMisTurnos: {StepMisTurnos},
}

// ValidFor reports whether the step belongs to the given flow.
func (s Step) ValidFor(f Flow) bool {
	for _, valid := range stepsByFlow[f] {
		if s == valid {
			return true
		}
	}
	return false
}

// Motivation is the self-reported motivation level collected during onboarding.
type Motivation string

const (
	MotivationUnset Motivation = ""
	MotivationAlta  Motivation = "alta"
	MotivationMedia Motivation = "media"
	MotivationBaja  Motivation = "baja"
)

// IsValidMotivation checks if the given motivation level is supported.
func IsValidMotivation(m Motivation) bool {
	switch m {
	case MotivationUnset, MotivationAlta, MotivationMedia, MotivationBaja:
		return true
	default:
		return false
	}
}

// Keys for SessionContext.Tmp scratch data during a reservation.
const (
	TmpSede      = "sede"
	TmpActividad = "actividad"
	TmpFecha     = "fecha"
	TmpHora      = "hora"
)

// SessionContext is the mutable per-conversation state record. It is keyed by
// an opaque session identifier owned by the transport layer and mutated on
// every turn by the router or the booking interceptor.
type SessionContext struct {
	Name          string            `json:"name,omitempty"`
	Goal          string            `json:"goal,omitempty"`
	Motivation    Motivation        `json:"motivation,omitempty"`
	RelapseReason string            `json:"relapse_reason,omitempty"`
	Flow          Flow              `json:"flow"`
	Step          Step              `json:"step"`
	Tmp           map[string]string `json:"tmp,omitempty"`
	History       []ChatMessage     `json:"history,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// NewSessionContext returns a context at the start of onboarding.
func NewSessionContext() *SessionContext {
	now := time.Now()
	return &SessionContext{
		Flow:      FlowIdle,
		Step:      StepStart,
		Tmp:       make(map[string]string),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetFlow updates flow and step as a pair so the context can never hold a
// step that is invalid for its flow. Resetting to FlowIdle clears the
// reservation scratch data.
func (c *SessionContext) SetFlow(flow Flow, step Step) {
	if !step.ValidFor(flow) {
		// Unreachable through the transition table; degrade to the menu
		// rather than store an invalid combination.
		flow, step = FlowIdle, StepMenu
	}
	if flow == FlowIdle && c.Flow != FlowIdle {
		c.Tmp = make(map[string]string)
	}
	c.Flow = flow
	c.Step = step
	c.UpdatedAt = time.Now()
}

// SetStep advances the step within the current flow.
func (c *SessionContext) SetStep(step Step) {
	c.SetFlow(c.Flow, step)
}

// AppendMessage records a transcript entry.
func (c *SessionContext) AppendMessage(role, text string) {
	now := time.Now()
	c.History = append(c.History, ChatMessage{Role: role, Text: text, Time: now.Unix()})
	c.UpdatedAt = now
}

// SetTmp stores a reservation scratch value.
func (c *SessionContext) SetTmp(key, value string) {
	if c.Tmp == nil {
		c.Tmp = make(map[string]string)
	}
	c.Tmp[key] = value
	c.UpdatedAt = time.Now()
}
