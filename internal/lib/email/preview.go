package email

// PreviewData holds sample template data for local previews and tests,
// keyed by template.
var PreviewData = map[Template]any{
	TemplateVerdictAlert: VerdictAlertData{
		PatientID: "P001",
		Name:      "Ananya Verma",
		BMI:       "33.06",
		Verdict:   "Obese",
	},
}
