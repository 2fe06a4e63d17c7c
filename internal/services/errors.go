package services

import "errors"

var (
	// ErrRateLimited is returned when a code is requested again inside the
	// resend cooldown window of a live challenge.
	ErrRateLimited = errors.New("otp requested too recently")
	// ErrOTPNotFound is returned when no challenge exists for the destination.
	ErrOTPNotFound = errors.New("verification code not found")
	// ErrOTPExpired is returned when the challenge outlived its window. The
	// challenge is deleted on this outcome; no further attempts are possible.
	ErrOTPExpired = errors.New("verification code expired")
	// ErrOTPMismatch is returned on a wrong code while attempts remain.
	ErrOTPMismatch = errors.New("invalid verification code")
	// ErrOTPAttemptsExceeded is returned once the attempt budget is exhausted,
	// even for a correct code.
	ErrOTPAttemptsExceeded = errors.New("too many incorrect attempts")

	// ErrInvalidCredentials covers both unknown identifier and wrong password
	// so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrSessionNotFound means the session id is unknown.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionRevoked means the session existed but was explicitly killed.
	ErrSessionRevoked = errors.New("session has been revoked")
	// ErrSessionExpired means the session outlived its lifetime.
	ErrSessionExpired = errors.New("session expired")
	// ErrInvalidRefreshToken means no live session matches the presented
	// token hash: forged, or already rotated away.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrDeliveryFailed reports a downstream SMS/email gateway problem. The
	// challenge it belongs to still exists and can be resent after cooldown.
	ErrDeliveryFailed = errors.New("failed to deliver code")

	// ErrEmailTaken is returned when an email-change target is already in use.
	ErrEmailTaken = errors.New("email already in use")
)
