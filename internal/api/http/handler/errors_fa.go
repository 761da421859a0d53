package handler

import (
	"errors"

	"github.com/daruyar/daruyar_backend/internal/service/appointment"
	"github.com/daruyar/daruyar_backend/internal/service/auth"
	"github.com/daruyar/daruyar_backend/internal/service/chat"
	"github.com/daruyar/daruyar_backend/internal/service/document"
	"github.com/daruyar/daruyar_backend/internal/service/family"
	"github.com/daruyar/daruyar_backend/internal/service/intake"
	"github.com/daruyar/daruyar_backend/internal/service/medicine"
	"github.com/daruyar/daruyar_backend/internal/service/notification"
	"github.com/daruyar/daruyar_backend/internal/service/patient"
	"github.com/daruyar/daruyar_backend/internal/service/profile"
	"github.com/daruyar/daruyar_backend/internal/service/schedule"
	"github.com/daruyar/daruyar_backend/internal/service/share"
	"github.com/daruyar/daruyar_backend/internal/service/vitals"
)

// faFallback is returned for errors with no dedicated translation. The
// underlying detail is never exposed to clients.
const faFallback = "خطایی رخ داد؛ لطفاً بعداً دوباره تلاش کنید"

type faEntry struct {
	err error
	msg string
}

// faMessages maps service sentinel errors to the fixed Persian strings the
// product shows. Order matters only where sentinels wrap each other; these
// do not, so the table reads grouped by service.
var faMessages = []faEntry{
	// auth
	{auth.ErrEmailAlreadyExists, "این ایمیل قبلاً ثبت شده است"},
	{auth.ErrInvalidEmail, "آدرس ایمیل نامعتبر است"},
	{auth.ErrPasswordTooShort, "رمز عبور باید حداقل ۸ کاراکتر باشد"},
	{auth.ErrCodeExpired, "کد تأیید منقضی شده است؛ کد جدید درخواست کنید"},
	{auth.ErrCodeInvalid, "کد تأیید اشتباه است"},
	{auth.ErrCodeMaxAttempts, "تعداد تلاش‌های مجاز به پایان رسید؛ کد جدید درخواست کنید"},
	{auth.ErrInvalidCredentials, "ایمیل یا رمز عبور اشتباه است"},
	{auth.ErrAccountSuspended, "حساب کاربری شما مسدود شده است"},
	{auth.ErrEmailNotVerified, "ابتدا ایمیل خود را تأیید کنید"},
	{auth.ErrAccountLocked, "حساب به دلیل ورود ناموفق مکرر موقتاً قفل شده است"},
	{auth.ErrSessionNotFound, "نشست یافت نشد یا منقضی شده است"},
	{auth.ErrInvalidToken, "توکن نامعتبر یا منقضی است"},
	{auth.ErrResetTokenInvalid, "پیوند بازیابی رمز عبور نامعتبر یا منقضی است"},
	{auth.ErrUnknownProvider, "سرویس ورود ناشناخته است"},
	{auth.ErrOAuthNoEmail, "سرویس ورود آدرس ایمیلی برنگرداند"},

	// profile
	{profile.ErrUserNotFound, "کاربر یافت نشد"},
	{profile.ErrInvalidPhone, "شماره تلفن نامعتبر است"},
	{profile.ErrEmptyName, "نام نمی‌تواند خالی باشد"},
	{profile.ErrWrongPassword, "رمز عبور فعلی اشتباه است"},
	{profile.ErrPasswordTooShort, "رمز عبور باید حداقل ۸ کاراکتر باشد"},
	{profile.ErrNoPassword, "برای این حساب رمز عبور تنظیم نشده است"},
	{profile.ErrAvatarTooLarge, "حجم تصویر بیش از حد مجاز است"},
	{profile.ErrAvatarBadType, "تصویر باید JPEG، PNG یا WebP باشد"},

	// patient
	{patient.ErrPatientNotFound, "بیمار یافت نشد"},
	{patient.ErrAccessDenied, "دسترسی به پرونده این بیمار مجاز نیست"},
	{patient.ErrInvalidInput, "اطلاعات بیمار نامعتبر است"},
	{patient.ErrFamilyNotFound, "خانواده یافت نشد"},
	{patient.ErrNotFamilyMember, "شما عضو این خانواده نیستید"},

	// medicine
	{medicine.ErrMedicineNotFound, "دارو یافت نشد"},
	{medicine.ErrInvalidInput, "اطلاعات دارو نامعتبر است"},

	// schedule
	{schedule.ErrScheduleNotFound, "برنامه دارویی یافت نشد"},
	{schedule.ErrMedicineNotFound, "دارو یافت نشد"},
	{schedule.ErrInvalidInput, "اطلاعات برنامه دارویی نامعتبر است"},
	{schedule.ErrInvalidTimeSlot, "زمان‌های مصرف باید با قالب HH:MM باشند"},

	// intake
	{intake.ErrScheduleNotFound, "برنامه دارویی یافت نشد"},
	{intake.ErrInvalidStatus, "وضعیت مصرف نامعتبر است"},

	// vitals
	{vitals.ErrVitalNotFound, "رکورد علائم حیاتی یافت نشد"},
	{vitals.ErrInvalidInput, "اطلاعات علائم حیاتی نامعتبر است"},
	{vitals.ErrUnknownType, "نوع علامت حیاتی ناشناخته است"},

	// appointment
	{appointment.ErrAppointmentNotFound, "نوبت یافت نشد"},
	{appointment.ErrInvalidInput, "اطلاعات نوبت نامعتبر است"},
	{appointment.ErrInvalidStatus, "وضعیت نوبت نامعتبر است"},

	// document
	{document.ErrDocumentNotFound, "سند یافت نشد"},
	{document.ErrCategoryNotFound, "دسته‌بندی یافت نشد"},
	{document.ErrInvalidInput, "اطلاعات سند نامعتبر است"},
	{document.ErrFileTooLarge, "حجم فایل بیش از حد مجاز است"},
	{document.ErrUploadFailed, "بارگذاری فایل ناموفق بود"},

	// family
	{family.ErrFamilyNotFound, "خانواده یافت نشد"},
	{family.ErrMemberNotFound, "عضو خانواده یافت نشد"},
	{family.ErrUserNotFound, "کاربری با این ایمیل یافت نشد"},
	{family.ErrAlreadyMember, "این کاربر از قبل عضو خانواده است"},
	{family.ErrNotMember, "شما عضو این خانواده نیستید"},
	{family.ErrInvalidRole, "نقش خانوادگی نامعتبر است"},
	{family.ErrLastOwner, "خانواده باید حداقل یک مالک داشته باشد"},
	{family.ErrPermissionDenied, "اجازه مدیریت این خانواده را ندارید"},
	{family.ErrInvalidInput, "اطلاعات خانواده نامعتبر است"},

	// chat
	{chat.ErrNotMember, "شما عضو این خانواده نیستید"},
	{chat.ErrEmptyMessage, "متن پیام خالی است"},
	{chat.ErrMessageTooBig, "متن پیام بیش از حد طولانی است"},

	// share
	{share.ErrShareNotFound, "پیوند اشتراک‌گذاری یافت نشد"},
	{share.ErrInvalidPermission, "سطح دسترسی نامعتبر است"},
	{share.ErrInvalidExpiry, "تاریخ انقضا باید در آینده باشد"},

	// notification
	{notification.ErrNotificationNotFound, "اعلان یافت نشد"},
}

// faMessage translates a service error into its fixed Persian string.
func faMessage(err error) string {
	for _, e := range faMessages {
		if errors.Is(err, e.err) {
			return e.msg
		}
	}
	return faFallback
}
