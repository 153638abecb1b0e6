package telephony

import (
	"strings"
	"testing"
)

func TestSpeakTwiMLWrapsScript(t *testing.T) {
	doc, err := SpeakTwiML("Hello from the campaign")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(doc, "<Say>Hello from the campaign</Say>") {
		t.Fatalf("expected Say verb in doc: %s", doc)
	}
	if !strings.Contains(doc, "<Response>") {
		t.Fatalf("expected Response root: %s", doc)
	}
}

func TestSpeakTwiMLEscapesMarkup(t *testing.T) {
	doc, err := SpeakTwiML(`Deals & more <today> "limited" it's on`)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if strings.Contains(doc, "<today>") {
		t.Fatalf("raw angle brackets leaked into doc: %s", doc)
	}
	if !strings.Contains(doc, "&amp;") {
		t.Fatalf("ampersand not escaped: %s", doc)
	}
	if !strings.Contains(doc, "&lt;today&gt;") {
		t.Fatalf("angle brackets not escaped: %s", doc)
	}
}

func TestSpeakTwiMLRejectsEmptyScript(t *testing.T) {
	if _, err := SpeakTwiML("   "); err == nil {
		t.Fatalf("expected error for blank script")
	}
}

func TestSpeakTwiMLVoiceAttr(t *testing.T) {
	doc, err := SpeakTwiMLVoice("hi", "alice")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(doc, `voice="alice"`) {
		t.Fatalf("expected voice attribute: %s", doc)
	}
}
