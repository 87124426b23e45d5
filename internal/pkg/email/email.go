package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/voxhub/voice_go_server/config"
)

type Service struct {
	cfg *config.EmailConfig
}

func NewService(cfg *config.EmailConfig) *Service {
	return &Service{cfg: cfg}
}

// SendWelcome 发送合作伙伴开通欢迎邮件（含临时密码）
func (s *Service) SendWelcome(to, partnerName, loginURL, tempPassword string) error {
	subject := fmt.Sprintf("欢迎加入 - %s", partnerName)
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #2563eb;">账号已开通</h2>
        <p>您好，</p>
        <p>您的 %s 合作伙伴账号已开通，临时登录密码为：</p>
        <div style="background-color: #f3f4f6; padding: 15px; text-align: center; font-size: 24px; font-weight: bold; letter-spacing: 5px; margin: 20px 0;">
            %s
        </div>
        <p>请点击下方按钮登录，首次登录后需要修改密码：</p>
        <div style="text-align: center; margin: 30px 0;">
            <a href="%s" style="background-color: #2563eb; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">立即登录</a>
        </div>
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">此邮件由系统自动发送，请勿回复。</p>
    </div>
</body>
</html>
`, partnerName, tempPassword, loginURL)

	return s.sendHTML(to, subject, body)
}

// SendPaymentFailed 发送扣款失败通知
func (s *Service) SendPaymentFailed(to, partnerName string, amountCents int64) error {
	subject := fmt.Sprintf("扣款失败提醒 - %s", partnerName)
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #dc2626;">订阅扣款失败</h2>
        <p>您好，</p>
        <p>您在 %s 的订阅本期扣款失败，金额为：</p>
        <div style="background-color: #f3f4f6; padding: 15px; text-align: center; font-size: 24px; font-weight: bold; margin: 20px 0;">
            $%.2f
        </div>
        <p>订阅已标记为逾期，请尽快更新支付方式，避免服务中断。</p>
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">此邮件由系统自动发送，请勿回复。</p>
    </div>
</body>
</html>
`, partnerName, float64(amountCents)/100)

	return s.sendHTML(to, subject, body)
}

// SendLowBalance 发送余额不足提醒
func (s *Service) SendLowBalance(to, workspaceName string, balanceCents int64) error {
	subject := fmt.Sprintf("余额不足提醒 - %s", workspaceName)
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #d97706;">余额不足</h2>
        <p>您好，</p>
        <p>工作区 %s 的通话余额已低于提醒阈值，当前余额：</p>
        <div style="background-color: #f3f4f6; padding: 15px; text-align: center; font-size: 24px; font-weight: bold; margin: 20px 0;">
            $%.2f
        </div>
        <p>余额耗尽后外呼可能被暂停，请及时充值。</p>
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">此邮件由系统自动发送，请勿回复。</p>
    </div>
</body>
</html>
`, workspaceName, float64(balanceCents)/100)

	return s.sendHTML(to, subject, body)
}

// SendRequestRejected 发送入驻申请被拒通知
func (s *Service) SendRequestRejected(to, companyName, reason string) error {
	subject := "入驻申请结果通知"
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #2563eb;">入驻申请结果</h2>
        <p>您好，</p>
        <p>很抱歉，%s 的入驻申请未通过审核。</p>
        <p style="background-color: #f3f4f6; padding: 10px;">%s</p>
        <p>如有疑问，请联系平台运营。</p>
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">此邮件由系统自动发送，请勿回复。</p>
    </div>
</body>
</html>
`, companyName, reason)

	return s.sendHTML(to, subject, body)
}

// sendHTML 发送 HTML 邮件
func (s *Service) sendHTML(to, subject, body string) error {
	headers := make(map[string]string)
	headers["From"] = s.cfg.From
	headers["To"] = to
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	var msg strings.Builder
	for k, v := range headers {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	msg.WriteString("\r\n")
	msg.WriteString(body)

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg.String()))
}
