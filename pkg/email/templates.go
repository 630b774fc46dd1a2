package email

import (
	"bytes"
	"fmt"
	"html/template"
)

// TemplateManager holds the parsed email templates.
type TemplateManager struct {
	OrderPlacedTmpl    *template.Template
	WorkerAssignedTmpl *template.Template
	CompletedTmpl      *template.Template
}

// NewTemplateManager parses all email templates at startup.
func NewTemplateManager() (*TemplateManager, error) {
	placedTmpl, err := template.New("orderPlaced").Parse(orderPlacedTemplate)
	if err != nil {
		return nil, err
	}
	assignedTmpl, err := template.New("workerAssigned").Parse(workerAssignedTemplate)
	if err != nil {
		return nil, err
	}
	completedTmpl, err := template.New("pickupCompleted").Parse(pickupCompletedTemplate)
	if err != nil {
		return nil, err
	}

	return &TemplateManager{
		OrderPlacedTmpl:    placedTmpl,
		WorkerAssignedTmpl: assignedTmpl,
		CompletedTmpl:      completedTmpl,
	}, nil
}

// OrderTemplateData holds the dynamic data for an order lifecycle email.
type OrderTemplateData struct {
	Name          string
	OrderCode     string
	ScheduledDate string
	ScheduledTime string
	WorkerName    string
	RecycledKg    string
	EcoPoints     int
}

func render(tmpl *template.Template, data OrderTemplateData) (string, error) {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return "", err
	}
	return body.String(), nil
}

// GenerateOrderPlacedEmailHTML renders the confirmation for a new pickup.
func (tm *TemplateManager) GenerateOrderPlacedEmailHTML(data OrderTemplateData) (string, error) {
	return render(tm.OrderPlacedTmpl, data)
}

// GenerateWorkerAssignedEmailHTML renders the worker-assigned notice.
func (tm *TemplateManager) GenerateWorkerAssignedEmailHTML(data OrderTemplateData) (string, error) {
	return render(tm.WorkerAssignedTmpl, data)
}

// GeneratePickupCompletedEmailHTML renders the completion summary.
func (tm *TemplateManager) GeneratePickupCompletedEmailHTML(data OrderTemplateData) (string, error) {
	return render(tm.CompletedTmpl, data)
}

// Plain-text fallbacks for clients that do not render HTML.

func OrderPlacedText(data OrderTemplateData) string {
	return fmt.Sprintf("Hi %s, your pickup %s is scheduled for %s (%s). We'll let you know when a collector is on the way.",
		data.Name, data.OrderCode, data.ScheduledDate, data.ScheduledTime)
}

func WorkerAssignedText(data OrderTemplateData) string {
	return fmt.Sprintf("Hi %s, %s will collect your pickup %s on %s (%s).",
		data.Name, data.WorkerName, data.OrderCode, data.ScheduledDate, data.ScheduledTime)
}

func PickupCompletedText(data OrderTemplateData) string {
	return fmt.Sprintf("Hi %s, pickup %s is complete. %s kg collected, %d eco points earned. Thank you for recycling!",
		data.Name, data.OrderCode, data.RecycledKg, data.EcoPoints)
}

// --- HTML Template Definitions ---

const orderPlacedTemplate = `
<!DOCTYPE html>
<html>
<head>
	<title>Pickup Scheduled</title>
</head>
<body style="font-family: Arial, sans-serif;">
	<h2>Your pickup is scheduled, {{.Name}}!</h2>
	<p>Order <strong>{{.OrderCode}}</strong> is confirmed for {{.ScheduledDate}} ({{.ScheduledTime}}).</p>
	<p>We'll email you again when a collector is assigned.</p>
</body>
</html>
`

const workerAssignedTemplate = `
<!DOCTYPE html>
<html>
<head>
	<title>Collector Assigned</title>
</head>
<body style="font-family: Arial, sans-serif;">
	<h2>A collector is on it, {{.Name}}!</h2>
	<p><strong>{{.WorkerName}}</strong> will collect order <strong>{{.OrderCode}}</strong> on {{.ScheduledDate}} ({{.ScheduledTime}}).</p>
	<p>You can follow their live location from the order page once they are en route.</p>
</body>
</html>
`

const pickupCompletedTemplate = `
<!DOCTYPE html>
<html>
<head>
	<title>Pickup Completed</title>
</head>
<body style="font-family: Arial, sans-serif;">
	<h2>Pickup complete, {{.Name}}!</h2>
	<p>Order <strong>{{.OrderCode}}</strong> has been collected: {{.RecycledKg}} kg of waste.</p>
	<p>You earned <strong>{{.EcoPoints}}</strong> eco points. Thank you for recycling!</p>
</body>
</html>
`
