package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

var verifyEmailTmpl = template.Must(template.New(TemplateVerifyEmail).Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; text-align: center; background-color: #f5f5f5; color: #333;">
  <div style="background: #fff; padding: 20px; border-radius: 8px; max-width: 600px; margin: auto;">
    <h1 style="color: #4CAF50;">Verify your email</h1>
    <p>Welcome! Click the button below to confirm your email address.</p>
    <a href="{{.Link}}" style="display: inline-block; background: #4CAF50; color: #fff; text-decoration: none; padding: 12px 24px; border-radius: 5px; font-weight: bold;">Verify email</a>
    <p>If you did not sign up, you can ignore this message.</p>
  </div>
</body>
</html>`))

var resetPasswordTmpl = template.Must(template.New(TemplateResetPassword).Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; text-align: center; background-color: #f5f5f5; color: #333;">
  <div style="background: #fff; padding: 20px; border-radius: 8px; max-width: 600px; margin: auto;">
    <h1 style="color: #FF5733;">Reset your password</h1>
    <p>You requested a password reset. Use the code below to complete it:</p>
    <div style="font-size: 18px; font-weight: bold; background: #eee; padding: 10px; border-radius: 5px; display: inline-block;">{{.Token}}</div>
    <p>The code expires in 10 minutes. If you did not request this, ignore this message.</p>
  </div>
</body>
</html>`))

// Render produces the subject and HTML body for a job's template.
func Render(name string, data map[string]any) (subject, html string, err error) {
	var buf bytes.Buffer
	switch name {
	case TemplateVerifyEmail:
		if err = verifyEmailTmpl.Execute(&buf, data); err != nil {
			return "", "", err
		}
		return "Verify your email address", buf.String(), nil
	case TemplateResetPassword:
		if err = resetPasswordTmpl.Execute(&buf, data); err != nil {
			return "", "", err
		}
		return "Reset your password", buf.String(), nil
	default:
		return "", "", fmt.Errorf("unknown email template %q", name)
	}
}
