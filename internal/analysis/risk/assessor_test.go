package risk

import "testing"

func TestAssessCrisisTakesPriorityOverConcern(t *testing.T) {
	got := Assess("I feel hopeless and want to kill myself")
	if got.Risk != Crisis {
		t.Fatalf("expected crisis, got %s", got.Risk)
	}
	if got.Reason != ReasonCrisis {
		t.Fatalf("unexpected reason: %q", got.Reason)
	}
}

func TestAssessConcern(t *testing.T) {
	got := Assess("I'm so overwhelmed today")
	if got.Risk != Concern {
		t.Fatalf("expected concern, got %s", got.Risk)
	}
	if got.Reason != ReasonConcern {
		t.Fatalf("unexpected reason: %q", got.Reason)
	}
}

func TestAssessEmptyIsNone(t *testing.T) {
	for _, text := range []string{"", "   ", "\n"} {
		if got := Assess(text); got.Risk != None || got.Reason != "" {
			t.Fatalf("expected none for %q, got %+v", text, got)
		}
	}
}

func TestAssessCrisisVariants(t *testing.T) {
	cases := []string{
		"sometimes I think about SELF-HARM",
		"self harm again",
		"I want to End My Life",
		"I don't want to live anymore",
		"i dont want to live",
		"I could kill them all",
		"took an overdose",
		"thinking about suicide",
		"I don’t want to live",
	}
	for _, text := range cases {
		if got := Assess(text); got.Risk != Crisis {
			t.Fatalf("expected crisis for %q, got %s", text, got.Risk)
		}
	}
}

func TestAssessConcernVariants(t *testing.T) {
	cases := []string{
		"I feel WORTHLESS",
		"I can’t cope with exams",
		"everything is hopeless",
	}
	for _, text := range cases {
		if got := Assess(text); got.Risk != Concern {
			t.Fatalf("expected concern for %q, got %s", text, got.Risk)
		}
	}
}

func TestAssessNeutralText(t *testing.T) {
	if got := Assess("had a nice walk with a friend"); got.Risk != None {
		t.Fatalf("expected none, got %s", got.Risk)
	}
}

func TestAssessIsDeterministic(t *testing.T) {
	text := "I can't cope and feel worthless"
	first := Assess(text)
	second := Assess(text)
	if first != second {
		t.Fatalf("expected identical results, got %+v and %+v", first, second)
	}
}
