package calls

import "testing"

func TestCanTransition_ForwardPath(t *testing.T) {
	path := []CallStatus{CallStatusInitiated, CallStatusRinging, CallStatusAnswered, CallStatusCompleted}
	for i := 0; i < len(path)-1; i++ {
		if !CanTransition(path[i], path[i+1]) {
			t.Fatalf("expected %s -> %s to be legal", path[i], path[i+1])
		}
	}
}

func TestCanTransition_RingingAlternateTerminals(t *testing.T) {
	for _, to := range []CallStatus{CallStatusBusy, CallStatusNoAnswer, CallStatusFailed} {
		if !CanTransition(CallStatusRinging, to) {
			t.Fatalf("expected ringing -> %s to be legal", to)
		}
	}
}

func TestCanTransition_AnsweredOnlyCompletesOrFails(t *testing.T) {
	if !CanTransition(CallStatusAnswered, CallStatusCompleted) {
		t.Fatalf("answered -> completed should be legal")
	}
	if !CanTransition(CallStatusAnswered, CallStatusFailed) {
		t.Fatalf("answered -> failed should be legal")
	}
	if CanTransition(CallStatusAnswered, CallStatusBusy) {
		t.Fatalf("answered -> busy must be rejected")
	}
	if CanTransition(CallStatusAnswered, CallStatusNoAnswer) {
		t.Fatalf("answered -> no_answer must be rejected")
	}
}

func TestCanTransition_TerminalAbsorbs(t *testing.T) {
	for _, from := range []CallStatus{CallStatusCompleted, CallStatusBusy, CallStatusNoAnswer, CallStatusFailed} {
		for _, to := range []CallStatus{CallStatusInitiated, CallStatusRinging, CallStatusAnswered, CallStatusCompleted, CallStatusFailed} {
			if CanTransition(from, to) {
				t.Fatalf("terminal %s must absorb %s", from, to)
			}
		}
	}
}

func TestCanTransition_NoRegression(t *testing.T) {
	if CanTransition(CallStatusRinging, CallStatusInitiated) {
		t.Fatalf("ringing -> initiated must be rejected")
	}
	if CanTransition(CallStatusAnswered, CallStatusRinging) {
		t.Fatalf("answered -> ringing must be rejected")
	}
}

func TestCanTransition_SkippingForwardAllowed(t *testing.T) {
	// Providers sometimes skip intermediate events.
	if !CanTransition(CallStatusInitiated, CallStatusAnswered) {
		t.Fatalf("initiated -> answered should be legal")
	}
	if !CanTransition(CallStatusInitiated, CallStatusCompleted) {
		t.Fatalf("initiated -> completed should be legal")
	}
}

func TestValidStatus(t *testing.T) {
	if ValidStatus("canceled") {
		t.Fatalf("unknown status must be invalid")
	}
	if !ValidStatus(CallStatusRinging) {
		t.Fatalf("ringing must be valid")
	}
}
