package mailer

import (
	"fmt"
	"net/smtp"

	"github.com/ikkim/dongnetalk-backend/pkg/logger"
)

// Config represents the SMTP mailer configuration
type Config struct {
	// Host and Port of the SMTP server
	Host string
	Port string

	// Email is the sender address, also used as the SMTP username
	Email string

	// Password is the SMTP password (app password for Gmail)
	Password string

	// BaseURL is the public origin used to build emailed links
	BaseURL string
}

// Mailer sends the transactional emails of the auth workflow.
// Delivery is best-effort: callers log failures and continue.
type Mailer struct {
	config Config
}

// NewMailer creates a new mailer with the given configuration
func NewMailer(config Config) *Mailer {
	return &Mailer{config: config}
}

// devMode reports whether SMTP credentials are missing.
// Without credentials emails are logged instead of sent.
func (m *Mailer) devMode() bool {
	return m.config.Email == "" || m.config.Password == ""
}

// VerificationLink builds the emailed signup verification link for a token
func (m *Mailer) VerificationLink(token string) string {
	return fmt.Sprintf("%s/verify-email?token=%s", m.config.BaseURL, token)
}

// ResetLink builds the emailed password reset link for a token
func (m *Mailer) ResetLink(token string) string {
	return fmt.Sprintf("%s/reset-password?token=%s", m.config.BaseURL, token)
}

// SendWelcomeEmail sends the signup confirmation email with a verification link
func (m *Mailer) SendWelcomeEmail(toEmail, name, verifyLink string) error {
	if m.devMode() {
		logger.Info("[DEV MODE] 가입 확인 이메일", map[string]interface{}{
			"to":   toEmail,
			"link": verifyLink,
		})
		return nil
	}

	subject := "[동네톡] 가입을 환영합니다"
	body := fmt.Sprintf(`
<html>
<body style="font-family: Arial, sans-serif; padding: 20px; background-color: #f5f5f5;">
	<div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 40px; border-radius: 10px; box-shadow: 0 2px 4px rgba(0,0,0,0.1);">
		<h1 style="color: #333; margin-bottom: 20px;">가입을 환영합니다</h1>
		<p style="color: #666; line-height: 1.6; margin-bottom: 30px;">
			%s님, 동네톡에 가입해주셔서 감사합니다.<br>
			아래 버튼을 클릭하여 이메일 인증을 완료해주세요.
		</p>
		<div style="text-align: center; margin-bottom: 30px;">
			<a href="%s" style="display: inline-block; background-color: #4A90D9; color: white; padding: 15px 40px; text-decoration: none; border-radius: 8px; font-weight: bold; font-size: 16px;">
				이메일 인증하기
			</a>
		</div>
		<p style="color: #999; font-size: 14px; margin-bottom: 10px;">
			* 이 링크는 48시간 동안 유효합니다.
		</p>
		<p style="color: #999; font-size: 14px; margin-bottom: 10px;">
			* 버튼이 작동하지 않으면 아래 링크를 복사하여 브라우저에 붙여넣으세요:
		</p>
		<p style="color: #666; font-size: 12px; word-break: break-all; background-color: #f8f9fa; padding: 10px; border-radius: 4px;">
			%s
		</p>
		<p style="color: #999; font-size: 14px; margin-top: 30px;">
			* 본인이 요청하지 않은 경우, 이 이메일을 무시하셔도 됩니다.
		</p>
	</div>
</body>
</html>
`, name, verifyLink, verifyLink)

	if err := m.send(toEmail, subject, body); err != nil {
		logger.Error("가입 확인 이메일 전송 실패", err, map[string]interface{}{
			"to": toEmail,
		})
		return fmt.Errorf("이메일 전송에 실패했습니다: %w", err)
	}

	logger.Info("가입 확인 이메일 발송 완료", map[string]interface{}{
		"to": toEmail,
	})
	return nil
}

// SendPasswordResetEmail sends a password reset link
func (m *Mailer) SendPasswordResetEmail(toEmail, resetLink string) error {
	if m.devMode() {
		logger.Info("[DEV MODE] 비밀번호 재설정 이메일", map[string]interface{}{
			"to":   toEmail,
			"link": resetLink,
		})
		return nil
	}

	subject := "[동네톡] 비밀번호 재설정"
	body := fmt.Sprintf(`
<html>
<body style="font-family: Arial, sans-serif; padding: 20px; background-color: #f5f5f5;">
	<div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 40px; border-radius: 10px; box-shadow: 0 2px 4px rgba(0,0,0,0.1);">
		<h1 style="color: #333; margin-bottom: 20px;">비밀번호 재설정</h1>
		<p style="color: #666; line-height: 1.6; margin-bottom: 30px;">
			동네톡 계정의 비밀번호 재설정을 요청하셨습니다.<br>
			아래 버튼을 클릭하여 새로운 비밀번호를 설정하세요.
		</p>
		<div style="text-align: center; margin-bottom: 30px;">
			<a href="%s" style="display: inline-block; background-color: #4A90D9; color: white; padding: 15px 40px; text-decoration: none; border-radius: 8px; font-weight: bold; font-size: 16px;">
				비밀번호 재설정하기
			</a>
		</div>
		<p style="color: #999; font-size: 14px; margin-bottom: 10px;">
			* 이 링크는 1시간 동안 유효합니다.
		</p>
		<p style="color: #999; font-size: 14px; margin-bottom: 10px;">
			* 버튼이 작동하지 않으면 아래 링크를 복사하여 브라우저에 붙여넣으세요:
		</p>
		<p style="color: #666; font-size: 12px; word-break: break-all; background-color: #f8f9fa; padding: 10px; border-radius: 4px;">
			%s
		</p>
		<p style="color: #999; font-size: 14px; margin-top: 30px;">
			* 본인이 요청하지 않은 경우, 이 이메일을 무시하셔도 됩니다.
		</p>
	</div>
</body>
</html>
`, resetLink, resetLink)

	if err := m.send(toEmail, subject, body); err != nil {
		logger.Error("비밀번호 재설정 이메일 전송 실패", err, map[string]interface{}{
			"to": toEmail,
		})
		return fmt.Errorf("이메일 전송에 실패했습니다: %w", err)
	}

	logger.Info("비밀번호 재설정 이메일 발송 완료", map[string]interface{}{
		"to": toEmail,
	})
	return nil
}

func (m *Mailer) send(toEmail, subject, body string) error {
	message := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		m.config.Email, toEmail, subject, body,
	))

	auth := smtp.PlainAuth("", m.config.Email, m.config.Password, m.config.Host)

	return smtp.SendMail(
		m.config.Host+":"+m.config.Port,
		auth,
		m.config.Email,
		[]string{toEmail},
		message,
	)
}
