package telephony

import (
	"bytes"
	"encoding/xml"
)

// Minimal TwiML builder for the voice webhook IVR. Only the verbs this
// service renders; no provider SDK dependency.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

type twimlGather struct {
	XMLName   xml.Name `xml:"Gather"`
	NumDigits int      `xml:"numDigits,attr"`
	Action    string   `xml:"action,attr"`
	Method    string   `xml:"method,attr"`
	Timeout   int      `xml:"timeout,attr"`
	Say       twimlSay `xml:"Say"`
}

type twimlDial struct {
	XMLName xml.Name `xml:"Dial"`
	Timeout int      `xml:"timeout,attr,omitempty"`
	Record  string   `xml:"record,attr,omitempty"`
	Client  string   `xml:"Client,omitempty"`
}

type twimlRecord struct {
	XMLName     xml.Name `xml:"Record"`
	Action      string   `xml:"action,attr"`
	Method      string   `xml:"method,attr"`
	MaxLength   int      `xml:"maxLength,attr"`
	FinishOnKey string   `xml:"finishOnKey,attr"`
}

type twimlRedirect struct {
	XMLName xml.Name `xml:"Redirect"`
	URL     string   `xml:",chardata"`
}

const ivrVoice = "alice"

// IVRRoutes holds the webhook paths the rendered TwiML points back at.
type IVRRoutes struct {
	VoicePath string
	IVRPath   string
}

// RenderIVRPrompt renders the initial greeting with a one-digit gather.
func RenderIVRPrompt(routes IVRRoutes) (string, error) {
	r := twimlResponse{Verbs: []any{
		twimlGather{
			NumDigits: 1,
			Action:    routes.IVRPath,
			Method:    "POST",
			Timeout:   5,
			Say: twimlSay{
				Voice: ivrVoice,
				Text:  "Thank you for calling. Press 1 to speak with an agent. Press 2 to leave a message.",
			},
		},
		// No input: replay the prompt.
		twimlRedirect{URL: routes.VoicePath},
	}}
	return encodeTwiML(r)
}

// RenderIVRSelection renders the response for a gathered digit.
func RenderIVRSelection(routes IVRRoutes, digits, agentClient string) (string, error) {
	var r twimlResponse

	switch digits {
	case "1":
		r.Verbs = append(r.Verbs,
			twimlSay{Voice: ivrVoice, Text: "Connecting you to an agent. Please wait."},
			twimlDial{Timeout: 30, Record: "record-from-answer", Client: agentClient},
		)
	case "2":
		r.Verbs = append(r.Verbs,
			twimlSay{Voice: ivrVoice, Text: "Please leave your message after the beep. Press any key when finished."},
			twimlRecord{Action: routes.VoicePath, Method: "POST", MaxLength: 120, FinishOnKey: "*"},
		)
	default:
		r.Verbs = append(r.Verbs,
			twimlSay{Voice: ivrVoice, Text: "Invalid selection. Please try again."},
			twimlRedirect{URL: routes.VoicePath},
		)
	}
	return encodeTwiML(r)
}

func encodeTwiML(r twimlResponse) (string, error) {
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
