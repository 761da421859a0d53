package email

import (
	"fmt"
)

// BuildVerificationEmail creates the account verification email sent on
// signup. The code is a short numeric OTP.
func BuildVerificationEmail(to, code string, expiryMinutes int) Message {
	subject := "کد تایید دارویار | Your DaruYar Verification Code"

	textBody := fmt.Sprintf(`سلام،

برای تایید حساب کاربری دارویار از کد زیر استفاده کنید:

%s

این کد برای %d دقیقه معتبر است.

اگر شما این درخواست را نداده‌اید، این ایمیل را نادیده بگیرید.

تیم دارویار`, code, expiryMinutes)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html dir="rtl" lang="fa">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: Tahoma, -apple-system, sans-serif; line-height: 1.8; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; direction: rtl;">
    <h2 style="color: #0d9488;">سلام،</h2>
    <p>برای تایید حساب کاربری دارویار از کد زیر استفاده کنید:</p>
    <p style="text-align: center; margin: 30px 0; background-color: #f3f4f6; padding: 20px; border-radius: 6px;">
        <span style="font-size: 36px; font-weight: bold; font-family: monospace; color: #000; letter-spacing: 6px; direction: ltr;">%s</span>
    </p>
    <p style="color: #ef4444; font-size: 14px; text-align: center;">این کد برای %d دقیقه معتبر است.</p>
    <p>اگر شما این درخواست را نداده‌اید، این ایمیل را نادیده بگیرید.</p>
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px; border-top: 1px solid #e5e7eb; padding-top: 20px;">تیم دارویار</p>
</body>
</html>`, code, expiryMinutes)

	return Message{
		To:       []string{to},
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
	}
}

// BuildPasswordResetEmail creates the password reset email. The link embeds
// a one-time reset token.
func BuildPasswordResetEmail(to, resetURL string, expiryMinutes int) Message {
	subject := "بازیابی رمز عبور دارویار"

	textBody := fmt.Sprintf(`سلام،

درخواست بازیابی رمز عبور برای حساب شما ثبت شد.

برای تعیین رمز عبور جدید روی پیوند زیر کلیک کنید:
%s

این پیوند برای %d دقیقه معتبر است.

اگر شما این درخواست را نداده‌اید، این ایمیل را نادیده بگیرید؛ رمز عبور شما تغییری نکرده است.

تیم دارویار`, resetURL, expiryMinutes)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html dir="rtl" lang="fa">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: Tahoma, -apple-system, sans-serif; line-height: 1.8; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; direction: rtl;">
    <h2 style="color: #0d9488;">سلام،</h2>
    <p>درخواست بازیابی رمز عبور برای حساب شما ثبت شد.</p>
    <p style="text-align: center; margin: 30px 0;">
        <a href="%s" style="background-color: #0d9488; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">تعیین رمز عبور جدید</a>
    </p>
    <p style="color: #ef4444; font-size: 14px; text-align: center;">این پیوند برای %d دقیقه معتبر است.</p>
    <p>اگر شما این درخواست را نداده‌اید، این ایمیل را نادیده بگیرید؛ رمز عبور شما تغییری نکرده است.</p>
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px; border-top: 1px solid #e5e7eb; padding-top: 20px;">تیم دارویار</p>
</body>
</html>`, resetURL, expiryMinutes)

	return Message{
		To:       []string{to},
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
	}
}

// BuildFamilyInviteEmail creates the invitation email sent when a user is
// added to a family circle.
func BuildFamilyInviteEmail(to, inviterName, familyName, acceptURL string) Message {
	subject := fmt.Sprintf("دعوت به گروه خانوادگی «%s» در دارویار", familyName)

	textBody := fmt.Sprintf(`سلام،

%s شما را به گروه خانوادگی «%s» در دارویار دعوت کرده است.

برای پیوستن به گروه روی پیوند زیر کلیک کنید:
%s

تیم دارویار`, inviterName, familyName, acceptURL)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html dir="rtl" lang="fa">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: Tahoma, -apple-system, sans-serif; line-height: 1.8; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; direction: rtl;">
    <h2 style="color: #0d9488;">سلام،</h2>
    <p><strong>%s</strong> شما را به گروه خانوادگی «%s» در دارویار دعوت کرده است.</p>
    <p style="text-align: center; margin: 30px 0;">
        <a href="%s" style="background-color: #16a34a; color: white; padding: 14px 28px; text-decoration: none; border-radius: 6px; display: inline-block; font-size: 16px;">پیوستن به گروه</a>
    </p>
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px; border-top: 1px solid #e5e7eb; padding-top: 20px;">تیم دارویار</p>
</body>
</html>`, inviterName, familyName, acceptURL)

	return Message{
		To:       []string{to},
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
	}
}
