package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_verdictAlertPreview(t *testing.T) {
	body, err := Render(TemplateVerdictAlert, PreviewData[TemplateVerdictAlert])
	require.NoError(t, err)

	assert.Contains(t, body, "P001")
	assert.Contains(t, body, "Ananya Verma")
	assert.Contains(t, body, "33.06")
	assert.Contains(t, body, "Obese")
}

func TestRender_escapesPatientData(t *testing.T) {
	body, err := Render(TemplateVerdictAlert, VerdictAlertData{
		PatientID: "P002",
		Name:      "<script>alert(1)</script>",
		BMI:       "31.00",
		Verdict:   "Obese",
	})
	require.NoError(t, err)

	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestRender_unknownTemplate(t *testing.T) {
	_, err := Render(Template("welcome"), nil)
	assert.ErrorContains(t, err, "unknown email template welcome")
}

func TestPreviewData_coversEveryTemplate(t *testing.T) {
	for _, name := range []Template{TemplateVerdictAlert} {
		_, ok := PreviewData[name]
		assert.True(t, ok, "missing preview data for %s", name)
	}
}
