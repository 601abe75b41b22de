package document

import (
	"text/template"
	"time"
)

const banner = `MediClass
Clinical Triage Unit
`

var funcs = template.FuncMap{
	"date":  func(t time.Time) string { return t.Format("2006-01-02") },
	"clock": func(t time.Time) string { return t.Format("15:04") },
	"stamp": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
	"yesno": func(b bool) string {
		if b {
			return "Yes"
		}
		return "No"
	},
}

var templates = template.Must(template.New("documents").Funcs(funcs).Parse(`
{{- define "record" -}}
Record of {{.Name}}
CPF: {{.PatientID}}
Contact: {{.Contact}}
Insurance: {{.Insurance}}
Birth date: {{.BirthDate}}
Bed: {{.Bed}}
Triage nurse: {{.TriageNurse}}
Priority: {{yesno .Priority}}

Medical history:
{{range .History}}{{.}}
{{end}}
{{- if .Exams}}
Exams:
{{range .Exams}}{{.Name}}: {{.Value}}
{{end}}
{{- end}}
{{- if .Triage}}
Latest triage:
{{range .Triage}}{{.Name}}: {{.Value}}
{{end}}
{{- else}}
No triage available.
{{end}}
{{- end}}

{{- define "prescription" -}}
` + banner + `Prescription generated on {{stamp .GeneratedAt}}

Patient: {{.PatientName}} (CPF: {{.PatientID}})
Physician: {{.DoctorName}} (CRM: {{.DoctorRegistration}})

{{range .Items}}- {{.Medication}}: {{.DoseMg}}mg every {{.IntervalHours}} hours, for {{.Days}} days;
{{end}}{{.DoctorName}} - CRM {{.DoctorRegistration}}
{{end}}

{{- define "certificate" -}}
` + banner + `Certificate issued on {{date .IssuedAt}} at {{clock .IssuedAt}}

I, {{.DoctorName}}, CRM {{.DoctorRegistration}}, certify for all due purposes that the patient {{.PatientName}}, CPF {{.PatientID}}, attended a clinical consultation on {{date .IssuedAt}}, having been admitted to the unit at {{clock .IssuedAt}}, presenting {{.Category}} symptoms.

Sincerely,
{{.DoctorName}} - CRM {{.DoctorRegistration}}
{{end}}
`))
