package service

// QRCodeService defines the interface for referral QR code generation and parsing.
type QRCodeService interface {
	// GenerateReferralQR renders the signup link of a referral code as a PNG.
	GenerateReferralQR(code string) ([]byte, error)

	// ParseReferralQR extracts the referral code from scanned QR content.
	ParseReferralQR(qrData string) (string, error)

	// ReferralLink returns the signup URL embedded in the QR code.
	ReferralLink(code string) string
}
