package internaldefs

import (
	tutorAuth "github.com/MrEthical07/tutorAuth"
	internalmetrics "github.com/MrEthical07/tutorAuth/internal/metrics"
)

// CounterDef names one engine counter.
type CounterDef struct {
	ID   tutorAuth.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram.
type HistogramDef struct {
	ID   tutorAuth.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: tutorAuth.MetricRegisterSuccess, Name: "tutorauth_register_success_total", Help: "Registrations that issued an OTP."},
	{ID: tutorAuth.MetricRegisterFailure, Name: "tutorauth_register_failure_total", Help: "Rejected or failed registrations."},
	{ID: tutorAuth.MetricOTPIssued, Name: "tutorauth_otp_issued_total", Help: "OTP codes stored and mailed."},
	{ID: tutorAuth.MetricOTPVerifySuccess, Name: "tutorauth_otp_verify_success_total", Help: "Successful e-mail verifications."},
	{ID: tutorAuth.MetricOTPVerifyFailure, Name: "tutorauth_otp_verify_failure_total", Help: "Failed e-mail verifications."},
	{ID: tutorAuth.MetricLoginSuccess, Name: "tutorauth_login_success_total", Help: "Successful password logins."},
	{ID: tutorAuth.MetricLoginFailure, Name: "tutorauth_login_failure_total", Help: "Failed password logins."},
	{ID: tutorAuth.MetricGoogleAuthSuccess, Name: "tutorauth_google_auth_success_total", Help: "Successful Google sign-ins."},
	{ID: tutorAuth.MetricGoogleAuthFailure, Name: "tutorauth_google_auth_failure_total", Help: "Failed Google sign-ins."},
	{ID: tutorAuth.MetricPrincipalLinked, Name: "tutorauth_principal_linked_total", Help: "Existing accounts linked to a Google identity."},
	{ID: tutorAuth.MetricPasswordResetRequest, Name: "tutorauth_password_reset_request_total", Help: "Password reset requests."},
	{ID: tutorAuth.MetricPasswordResetConfirmSuccess, Name: "tutorauth_password_reset_confirm_success_total", Help: "Successful password resets."},
	{ID: tutorAuth.MetricPasswordResetConfirmFailure, Name: "tutorauth_password_reset_confirm_failure_total", Help: "Failed password resets."},
	{ID: tutorAuth.MetricPrincipalBlocked, Name: "tutorauth_principal_blocked_total", Help: "Block actions."},
	{ID: tutorAuth.MetricPrincipalUnblocked, Name: "tutorauth_principal_unblocked_total", Help: "Unblock actions."},
	{ID: tutorAuth.MetricTokensIssued, Name: "tutorauth_tokens_issued_total", Help: "Access/refresh token pairs issued."},
}

var HistogramDefs = []HistogramDef{
	{ID: tutorAuth.MetricLoginLatency, Name: "tutorauth_login_latency_seconds", Help: "Password login latency."},
}

// BucketUpperBounds are the finite bucket bounds in seconds; the last engine
// bucket is +Inf.
var BucketUpperBounds = internalmetrics.BucketUpperBounds

// NormalizeBuckets copies raw into a fixed-size array, padding with zeros.
func NormalizeBuckets(raw []uint64) [internalmetrics.BucketCount]uint64 {
	var out [internalmetrics.BucketCount]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [internalmetrics.BucketCount]uint64) [internalmetrics.BucketCount]uint64 {
	var out [internalmetrics.BucketCount]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
