package telephony

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strings"
)

// Minimal Twilio Markup Language builder for outbound announcement calls.
// It intentionally avoids any provider SDK dependency.
//
// Only the verbs needed at the adapter boundary are modeled. Script text is
// escaped by the XML encoder, so &, <, >, quotes and apostrophes in
// LLM-generated scripts can never break the document.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

// SpeakTwiML renders a <Response><Say> document for the given script.
// The script is treated as opaque text; empty scripts are rejected.
func SpeakTwiML(script string) (string, error) {
	return SpeakTwiMLVoice(script, "")
}

// SpeakTwiMLVoice is SpeakTwiML with an explicit Twilio voice name.
func SpeakTwiMLVoice(script, voice string) (string, error) {
	if strings.TrimSpace(script) == "" {
		return "", errors.New("telephony: script required for say document")
	}

	r := twimlResponse{Verbs: []any{twimlSay{Voice: voice, Text: script}}}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
