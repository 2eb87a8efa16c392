package webapi

import (
	"encoding/xml"
	"net/http"
)

const defaultVoiceText = "Alerta sismica. Revise el mensaje de texto para mas detalles."

// twimlResponse is the voice-script document the carrier fetches when
// placing a call.
type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Say     twimlSay `xml:"Say"`
}

type twimlSay struct {
	Language string `xml:"language,attr"`
	Voice    string `xml:"voice,attr"`
	Text     string `xml:",chardata"`
}

func (a *API) handleTwiML(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	if text == "" {
		text = defaultVoiceText
	}

	doc := twimlResponse{
		Say: twimlSay{
			Language: "es-MX",
			Voice:    "alice",
			Text:     text,
		},
	}

	body, err := xml.Marshal(doc)
	if err != nil {
		a.logger.Error(r.Context(), err, "twiml marshal failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	_, _ = w.Write([]byte(xml.Header))
	_, _ = w.Write(body)
}
