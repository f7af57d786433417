package notify

import (
	"fmt"
	"time"
)

// DangerAlertTemplate builds the HTML body for a danger alert email.
func DangerAlertTemplate(patientName, caregiverName, reason string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; background-color: #f4f4f4; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 8px; overflow: hidden; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .header { background-color: #DC3545; color: white; padding: 20px; text-align: center; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { padding: 30px; }
        .critical-box { background-color: #F8D7DA; border-left: 4px solid #DC3545; padding: 15px; margin: 20px 0; }
        .footer { background-color: #f8f9fa; padding: 15px; text-align: center; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>🚨 DANGER ALERT</h1>
        </div>
        <div class="content">
            <p>Hello <strong>%s</strong>,</p>

            <div class="critical-box">
                <strong>ALERT:</strong> <strong>%s</strong> may be lost or away from their safe location.
            </div>

            <p><strong>Reason:</strong> %s</p>
            <p><strong>Date/Time:</strong> %s</p>

            <p><strong>Recommended actions:</strong></p>
            <ul>
                <li>Call the patient to check on them</li>
                <li>Open the app to see their last known position</li>
                <li>Use the directions link to reach them</li>
            </ul>
        </div>
        <div class="footer">
            <p>This is an automated email from the PMA Companion</p>
            <p>Do not reply to this email</p>
        </div>
    </div>
</body>
</html>
    `, caregiverName, patientName, reason, time.Now().Format("02/01/2006 15:04"))
}
