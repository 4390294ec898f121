package email

import "fmt"

// VerdictAlertData fills templates/verdict_alert.html.
type VerdictAlertData struct {
	PatientID string
	Name      string
	BMI       string
	Verdict   string
}

// SendVerdictAlert tells to that a patient was saved with a verdict other
// than Normal.
func (c *Client) SendVerdictAlert(to string, data VerdictAlertData) error {
	return c.SendEmail(
		to,
		fmt.Sprintf("Patient %s flagged as %s", data.PatientID, data.Verdict),
		TemplateVerdictAlert,
		data,
	)
}
