package repository

import "testing"

func TestCanTransition_ForwardOnly(t *testing.T) {
	allowed := []struct{ from, to AnswerStatus }{
		{AnswerStatusPending, AnswerStatusProcessing},
		{AnswerStatusPending, AnswerStatusCompleted},
		{AnswerStatusPending, AnswerStatusFailed},
		{AnswerStatusProcessing, AnswerStatusCompleted},
		{AnswerStatusProcessing, AnswerStatusFailed},
	}
	for _, tr := range allowed {
		if !CanTransition(tr.from, tr.to) {
			t.Fatalf("expected %s -> %s to be allowed", tr.from, tr.to)
		}
	}
}

func TestCanTransition_TerminalStatesAbsorb(t *testing.T) {
	for _, from := range []AnswerStatus{AnswerStatusCompleted, AnswerStatusFailed} {
		for _, to := range []AnswerStatus{AnswerStatusPending, AnswerStatusProcessing, AnswerStatusCompleted, AnswerStatusFailed} {
			if CanTransition(from, to) {
				t.Fatalf("expected no transition out of terminal state %s (attempted %s)", from, to)
			}
		}
	}
}

func TestCanTransition_NoBackwards(t *testing.T) {
	if CanTransition(AnswerStatusProcessing, AnswerStatusPending) {
		t.Fatal("expected processing -> pending to be rejected")
	}
	if CanTransition(AnswerStatusProcessing, AnswerStatusProcessing) {
		t.Fatal("expected processing -> processing to be rejected")
	}
}

func TestAnswerStatus_Valid(t *testing.T) {
	for _, s := range []AnswerStatus{AnswerStatusPending, AnswerStatusProcessing, AnswerStatusCompleted, AnswerStatusFailed} {
		if !s.Valid() {
			t.Fatalf("expected %s to be valid", s)
		}
	}
	if AnswerStatus("queued").Valid() {
		t.Fatal("expected unknown status to be invalid")
	}
}

func TestAnswer_HasAudio(t *testing.T) {
	var a Answer
	if a.HasAudio() {
		t.Fatal("expected no audio on zero answer")
	}
	empty := ""
	a.AudioObjectKey = &empty
	if a.HasAudio() {
		t.Fatal("expected empty object key to count as no audio")
	}
	key := "answers/abc/audio.webm"
	a.AudioObjectKey = &key
	if !a.HasAudio() {
		t.Fatal("expected audio to be present")
	}
}
