package gesture

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/ayusman/mudra/internal/classifier"
)

func TestTable_Symbol_KnownLabels(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		name       string
		label      string
		confidence float64
		want       Symbol
		command    Command
	}{
		{name: "fist plays", label: "fist-hand", confidence: 0.5, want: Fist, command: Play},
		{name: "open hand pauses", label: "five-hand", confidence: 0.9, want: OpenHand, command: Pause},
		{name: "checkmark stops", label: "checkmark-hand", confidence: 0.3, want: Checkmark, command: Stop},
		{name: "just above threshold", label: "fist-hand", confidence: 0.0101, want: Fist, command: Play},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.Symbol(tt.label, tt.confidence)
			if got != tt.want {
				t.Errorf("Symbol(%q, %v) = %v, want %v", tt.label, tt.confidence, got, tt.want)
			}
			if got.Command() != tt.command {
				t.Errorf("Command() = %v, want %v", got.Command(), tt.command)
			}
		})
	}
}

func TestTable_Symbol_UnknownLabelsAnyConfidence(t *testing.T) {
	table := DefaultTable()

	labels := []string{"", "no-hand", "Fist-hand", "fist-hand ", "fist", "five", "thumbs-up"}
	confidences := []float64{0, 0.011, 0.5, 0.99, 1}

	for _, label := range labels {
		for _, c := range confidences {
			if got := table.Symbol(label, c); got != Unknown {
				t.Errorf("Symbol(%q, %v) = %v, want Unknown", label, c, got)
			}
		}
	}
}

func TestTable_Symbol_LowConfidenceAnyLabel(t *testing.T) {
	table := DefaultTable()

	labels := []string{"fist-hand", "five-hand", "checkmark-hand", "other"}
	confidences := []float64{-1, 0, 0.001, 0.005, 0.01}

	for _, label := range labels {
		for _, c := range confidences {
			if got := table.Symbol(label, c); got != Unknown {
				t.Errorf("Symbol(%q, %v) = %v, want Unknown", label, c, got)
			}
		}
	}
}

func TestTable_Symbol_MalformedConfidence(t *testing.T) {
	table := DefaultTable()

	for _, c := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if got := table.Symbol("fist-hand", c); got != Unknown {
			t.Errorf("Symbol(fist-hand, %v) = %v, want Unknown", c, got)
		}
	}
}

func TestTable_Decide(t *testing.T) {
	table := DefaultTable()

	t.Run("empty result", func(t *testing.T) {
		if _, ok := table.Decide(&classifier.Result{}); ok {
			t.Error("Decide() on empty result should report false")
		}
		if _, ok := table.Decide(nil); ok {
			t.Error("Decide() on nil result should report false")
		}
	})

	t.Run("uses the top prediction only", func(t *testing.T) {
		result := classifier.NewResult([]classifier.Prediction{
			{Label: "checkmark-hand", Confidence: 0.2},
			{Label: "no-hand", Confidence: 0.7},
			{Label: "fist-hand", Confidence: 0.1},
		})

		d, ok := table.Decide(result)
		if !ok {
			t.Fatal("Decide() returned false")
		}
		if d.Symbol != Unknown || d.Command != None {
			t.Errorf("decision = %v/%v, want Unknown/None", d.Symbol, d.Command)
		}
		if !d.Confident {
			t.Error("0.7 should be confident")
		}
		if d.Top.Label != "no-hand" {
			t.Errorf("Top = %q, want no-hand", d.Top.Label)
		}
	})

	t.Run("summary of top three", func(t *testing.T) {
		result := classifier.NewResult([]classifier.Prediction{
			{Label: "fist-hand", Confidence: 0.5},
			{Label: "five-hand", Confidence: 0.3},
		})

		d, _ := table.Decide(result)
		want := "TOP 3 Predictions: \nfist-hand : 0.50\nfive-hand : 0.30"
		if d.Summary != want {
			t.Errorf("Summary = %q, want %q", d.Summary, want)
		}
		if d.Symbol != Fist || d.Command != Play {
			t.Errorf("decision = %v/%v, want fist/play", d.Symbol, d.Command)
		}
	})

	t.Run("unparseable confidence", func(t *testing.T) {
		result := classifier.NewResult([]classifier.Prediction{
			{Label: "fist-hand", Confidence: math.NaN()},
		})

		d, ok := table.Decide(result)
		if !ok {
			t.Fatal("Decide() returned false")
		}
		if d.Symbol != Unknown || d.Confident {
			t.Errorf("decision = %v (confident %v), want Unknown", d.Symbol, d.Confident)
		}
	})

	t.Run("unparseable top outranks the rest", func(t *testing.T) {
		result := classifier.Ranked([]classifier.Prediction{
			{Label: "fist-hand", Confidence: math.NaN()},
			{Label: "five-hand", Confidence: 0.3},
		})

		d, ok := table.Decide(result)
		if !ok {
			t.Fatal("Decide() returned false")
		}
		if d.Symbol != Unknown || d.Command != None || d.Confident {
			t.Errorf("decision = %v/%v (confident %v), want Unknown/None", d.Symbol, d.Command, d.Confident)
		}
		if d.Top.Label != "fist-hand" {
			t.Errorf("Top = %q, want fist-hand", d.Top.Label)
		}
	})
}

func TestTable_Bindings(t *testing.T) {
	table := NewTable(DefaultThreshold, nil)

	if got := table.Symbol("thumbs-up", 0.9); got != Unknown {
		t.Errorf("unbound label = %v, want Unknown", got)
	}

	table.Bind("thumbs-up", Fist)
	if got := table.Symbol("thumbs-up", 0.9); got != Fist {
		t.Errorf("bound label = %v, want Fist", got)
	}

	table.Bind("a-hand", Checkmark)
	bindings := table.Bindings()
	if len(bindings) != 2 || bindings[0].Label != "a-hand" {
		t.Errorf("Bindings() = %v, want sorted by label", bindings)
	}

	if !table.Unbind("thumbs-up") {
		t.Error("Unbind() should report an existing binding")
	}
	if table.Unbind("thumbs-up") {
		t.Error("Unbind() twice should report false")
	}
	if got := table.Symbol("thumbs-up", 0.9); got != Unknown {
		t.Errorf("unbound label = %v, want Unknown", got)
	}
}

func TestTable_SetThreshold(t *testing.T) {
	table := DefaultTable()

	table.SetThreshold(0.6)
	if got := table.Symbol("fist-hand", 0.5); got != Unknown {
		t.Errorf("0.5 under threshold 0.6 = %v, want Unknown", got)
	}

	table.SetThreshold(1.5)
	if table.Threshold() != 0.6 {
		t.Errorf("out-of-range threshold should be ignored, got %v", table.Threshold())
	}
}

func TestNewTable_CopiesLabels(t *testing.T) {
	labels := DefaultLabels()
	table := NewTable(DefaultThreshold, labels)

	delete(labels, "fist-hand")
	if got := table.Symbol("fist-hand", 0.5); got != Fist {
		t.Errorf("table should not share the caller's map, got %v", got)
	}
}

func TestSymbol_Glyph(t *testing.T) {
	tests := map[Symbol]string{
		Unknown:    "❓",
		Fist:       "👊",
		OpenHand:   "🖐",
		Checkmark:  "✅",
		Symbol(42): "❓",
	}
	for s, want := range tests {
		if got := s.Glyph(); got != want {
			t.Errorf("%v.Glyph() = %q, want %q", s, got, want)
		}
	}
}

func TestParseSymbol(t *testing.T) {
	for _, s := range Symbols() {
		got, err := ParseSymbol(s.String())
		if err != nil || got != s {
			t.Errorf("ParseSymbol(%q) = %v, %v", s.String(), got, err)
		}
	}

	if _, err := ParseSymbol("thumbs-up"); err == nil {
		t.Error("expected error for unknown symbol")
	}
}

func TestSymbol_JSON(t *testing.T) {
	data, err := json.Marshal(Binding{Label: "five-hand", Symbol: OpenHand})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"label":"five-hand","symbol":"open-hand"}` {
		t.Errorf("Marshal() = %s", data)
	}

	var b Binding
	if err := json.Unmarshal([]byte(`{"label":"x","symbol":"checkmark"}`), &b); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if b.Symbol != Checkmark {
		t.Errorf("Symbol = %v, want Checkmark", b.Symbol)
	}

	if err := json.Unmarshal([]byte(`{"symbol":"wave"}`), &b); err == nil {
		t.Error("expected error for unknown symbol name")
	}
}

func TestParseCommand(t *testing.T) {
	for _, name := range []string{"none", "play", "pause", "stop"} {
		c, err := ParseCommand(name)
		if err != nil {
			t.Errorf("ParseCommand(%q) error = %v", name, err)
		}
		if c.String() != name {
			t.Errorf("ParseCommand(%q).String() = %q", name, c.String())
		}
	}
	if _, err := ParseCommand("rewind"); err == nil {
		t.Error("expected error for unknown command")
	}
}
