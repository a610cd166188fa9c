package alert

import (
	"fmt"
	"strings"
)

// Тексты уведомлений. Короткое операторское SMS и минимальный fallback
// намеренно не совпадают, чтобы по тексту было видно, каким путем
// сообщение дошло.

func displayUser(a *Alert) string {
	if a.UserID == "" {
		return "unknown"
	}
	return a.UserID
}

func shortAlertText(a *Alert) string {
	return fmt.Sprintf("🚨 Emergency Alert: %s — Check email/app for details.", displayUser(a))
}

func fallbackSMSText(a *Alert) string {
	return fmt.Sprintf("🚨 SOS fallback: %s — primary SMS failed, check email/app.", displayUser(a))
}

func contactSMSText(a *Alert) string {
	coords := fmt.Sprintf("%g, %g", a.Location.Latitude, a.Location.Longitude)
	return fmt.Sprintf("🚨 Emergency Alert: Your contact triggered an SOS. Location: %s. Open the app for details.", coords)
}

func mapsLink(a *Alert) string {
	return fmt.Sprintf("https://www.google.com/maps?q=%g,%g", a.Location.Latitude, a.Location.Longitude)
}

func alertMessage(a *Alert) string {
	if a.Message == "" {
		return "(no message)"
	}
	return a.Message
}

func alertEmailText(a *Alert) string {
	lines := []string{
		"Emergency alert triggered!",
		fmt.Sprintf("User: %s", displayUser(a)),
		fmt.Sprintf("Time: %s", a.CreatedAt.Format("2006-01-02 15:04:05 MST")),
		fmt.Sprintf("Location: %g, %g", a.Location.Latitude, a.Location.Longitude),
		fmt.Sprintf("Maps: %s", mapsLink(a)),
		fmt.Sprintf("Message: %s", alertMessage(a)),
	}
	return strings.Join(lines, "\n")
}

func alertEmailHTML(a *Alert) string {
	return fmt.Sprintf(`
	<div style="font-family:Arial,Helvetica,sans-serif;line-height:1.6">
	  <h2>🚨 Emergency Alert Triggered</h2>
	  <p><b>User:</b> %s</p>
	  <p><b>Time:</b> %s</p>
	  <p><b>Location:</b> %g, %g —
	    <a href="%s" target="_blank">Open in Google Maps</a>
	  </p>
	  <p><b>Message:</b> %s</p>
	  <hr/>
	  <small>Guardian Safety System</small>
	</div>`,
		displayUser(a),
		a.CreatedAt.Format("2006-01-02 15:04:05 MST"),
		a.Location.Latitude,
		a.Location.Longitude,
		mapsLink(a),
		alertMessage(a),
	)
}
