package studio

import (
	"text/template"
)

// Flow names one of the code source operations
type Flow string

const (
	FlowGenerate Flow = "generate"
	FlowModify   Flow = "modify"
	FlowFix      Flow = "fix"
)

// codeField is the JSON key holding code in each flow's reply
var codeField = map[Flow]string{
	FlowGenerate: "code",
	FlowModify:   "modifiedCode",
	FlowFix:      "fixedCode",
}

const rules = `Rules for the code:
- A capability object p is already in scope. Never construct p5.
- Return one raw script with no wrapper function.
- Prefix every drawing function, property and constant with p.
- Register lifecycle callbacks as arrow functions on p, e.g. p.setup = () => { ... };
- Initialize anything that depends on p.width or p.height inside p.setup.
- Do not call p.createCanvas; the canvas is managed by the host.
- Support keyboard, mouse and touch input.`

var prompts = template.Must(template.New("studio").Parse(`
{{- define "generate" -}}
You write p5-style browser games. Reply with a JSON object with the fields "thoughts" and "code".
"thoughts" explains your plan step by step in markdown. "code" holds the complete game.

Request:
{{.Prompt}}

` + rules + `
{{- end}}

{{- define "modify" -}}
You write p5-style browser games. Reply with a JSON object with the fields "thoughts" and "modifiedCode".
"thoughts" explains the changes step by step in markdown. "modifiedCode" holds the ENTIRE updated game.

Existing code:
{{.Code}}

Request:
{{.Prompt}}

` + rules + `
{{- end}}

{{- define "fix" -}}
You fix p5-style browser games. Reply with a JSON object with the fields "thoughts" and "fixedCode".
"thoughts" explains the fix step by step in markdown. "fixedCode" holds the ENTIRE corrected game.

Code:
{{.Code}}

The error was:
{{.Error}}

` + rules + `
{{- end}}

{{- define "retry" -}}
{{.Previous}}

Your previous reply could not be used: {{.Problem}}
Reply again with only the JSON object and its "thoughts" and "{{.Field}}" fields.
{{- end}}
`))

type promptData struct {
	Prompt string
	Code   string
	Error  string
}

type retryData struct {
	Previous string
	Problem  string
	Field    string
}
