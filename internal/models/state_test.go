package models

import "testing"

func TestStepValidFor(t *testing.T) {
	cases := []struct {
		flow Flow
		step Step
		want bool
	}{
		{FlowIdle, StepStart, true},
		{FlowIdle, StepMenu, true},
		{FlowReservar, StepReservarSede, true},
		{FlowReservar, StepMenu, true},
		{FlowCancelar, StepCancelar, true},
		{FlowMisTurnos, StepMisTurnos, true},
		{FlowIdle, StepReservarSede, false},
		{FlowCancelar, StepMenu, false},
		{FlowReservar, StepCancelar, false},
	}
	for _, c := range cases {
		if got := c.step.ValidFor(c.flow); got != c.want {
			t.Errorf("ValidFor(%s, %s) = %v, want %v", c.flow, c.step, got, c.want)
		}
	}
}

func TestSetFlowRejectsInvalidPair(t *testing.T) {
	sc := NewSessionContext()
	sc.SetFlow(FlowCancelar, StepReservarSede)
	if sc.Flow != FlowIdle || sc.Step != StepMenu {
		t.Errorf("invalid pair stored as (%s, %s), want (idle, menu)", sc.Flow, sc.Step)
	}
}

func TestSetFlowClearsTmpOnIdleReset(t *testing.T) {
	sc := NewSessionContext()
	sc.SetFlow(FlowReservar, StepReservarSede)
	sc.SetTmp(TmpSede, "Donado 2244")
	sc.SetTmp(TmpActividad, "Funcional")

	// Moving within the flow keeps the scratch data.
	sc.SetStep(StepReservarFecha)
	if len(sc.Tmp) != 2 {
		t.Fatalf("Tmp = %v, want the scratch data kept mid-flow", sc.Tmp)
	}

	sc.SetFlow(FlowIdle, StepMenu)
	if len(sc.Tmp) != 0 {
		t.Errorf("Tmp = %v, want cleared on return to idle", sc.Tmp)
	}
}

func TestNewSessionContextStartsOnboarding(t *testing.T) {
	sc := NewSessionContext()
	if sc.Flow != FlowIdle || sc.Step != StepStart {
		t.Errorf("new context at (%s, %s), want (idle, start)", sc.Flow, sc.Step)
	}
	if sc.Tmp == nil {
		t.Error("Tmp not initialized")
	}
}
