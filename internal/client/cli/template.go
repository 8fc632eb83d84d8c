package cli

import (
	"fmt"
	"text/template"
	"time"
)

var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string {
		return t.Format(dateLayout)
	},
	"price": func(v float64) string {
		return fmt.Sprintf("%.0f FCFA", v)
	},
}

const profileTemplate = `
=== Profile ===

Email:     {{.Email}}
Nom:       {{.Nom}}
Prénom:    {{.Prenom}}
{{- if .Telephone }}
Téléphone: {{.Telephone}}
{{- end}}
{{- if .PhotoURL }}
Photo:     {{.PhotoURL}}
{{- end}}
Member since: {{date .CreatedAt}}
`

const vehicleTemplate = `
=== {{.Brand}} {{.Model}} ({{.Year}}) ===

ID:        {{.ID}}
Plate:     {{.Plate}}
Account:   {{.AccountName}}
{{- if .Location }}
Location:  {{.Location}}
{{- end}}
Price/day: {{price .PricePerDay}}
Available: {{if .Available}}yes{{else}}no{{end}}
`

var (
	profileTmpl = template.Must(template.New("profile").Funcs(templateFuncs).Parse(profileTemplate))
	vehicleTmpl = template.Must(template.New("vehicle").Funcs(templateFuncs).Parse(vehicleTemplate))
)
