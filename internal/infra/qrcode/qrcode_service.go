// Package qrcode renders referral links as QR codes.
package qrcode

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"tradepost/config"
	"tradepost/internal/domain/service"

	"github.com/skip2/go-qrcode"
)

const (
	qrTypeReferral  = "referral"
	defaultSize     = 256
	defaultBaseURL  = "http://localhost:8080"
	referralPath    = "/register"
	referralQueryID = "ref"
)

type qrcodeService struct {
	size                 int
	errorCorrectionLevel qrcode.RecoveryLevel
	baseURL              string
}

// QRCodeData represents the QR code data structure
type QRCodeData struct {
	Type string `json:"type"`
	Code string `json:"code"`
	Link string `json:"link"`
}

// NewQRCodeService creates a new QR code service instance from the qrcode config section.
func NewQRCodeService(cfg *config.Config) service.QRCodeService {
	size, levelName, baseURL := defaultSize, "M", defaultBaseURL
	if cfg != nil && cfg.QRCode != nil {
		if cfg.QRCode.Size > 0 {
			size = cfg.QRCode.Size
		}
		if cfg.QRCode.ErrorCorrectionLevel != "" {
			levelName = cfg.QRCode.ErrorCorrectionLevel
		}
		if cfg.QRCode.BaseURL != "" {
			baseURL = strings.TrimRight(cfg.QRCode.BaseURL, "/")
		}
	}

	return &qrcodeService{
		size:                 size,
		errorCorrectionLevel: parseRecoveryLevel(levelName),
		baseURL:              baseURL,
	}
}

func parseRecoveryLevel(name string) qrcode.RecoveryLevel {
	switch name {
	case "L":
		return qrcode.Low
	case "M":
		return qrcode.Medium
	case "Q":
		return qrcode.High
	case "H":
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

// ReferralLink returns the signup URL that pre-fills the referral code.
func (s *qrcodeService) ReferralLink(code string) string {
	return s.baseURL + referralPath + "?" + url.Values{referralQueryID: {code}}.Encode()
}

// GenerateReferralQR generates a QR code for a referral code
func (s *qrcodeService) GenerateReferralQR(code string) ([]byte, error) {
	if !validCode(code) {
		return nil, fmt.Errorf("invalid referral code %q", code)
	}

	data := QRCodeData{
		Type: qrTypeReferral,
		Code: code,
		Link: s.ReferralLink(code),
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal QR code data: %w", err)
	}

	qrCode, err := qrcode.New(string(jsonData), s.errorCorrectionLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}

	pngBytes, err := qrCode.PNG(s.size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PNG: %w", err)
	}

	return pngBytes, nil
}

// ParseReferralQR parses QR code data and returns the referral code
func (s *qrcodeService) ParseReferralQR(qrData string) (string, error) {
	var data QRCodeData
	if err := json.Unmarshal([]byte(qrData), &data); err != nil {
		return "", fmt.Errorf("failed to unmarshal QR code data: %w", err)
	}

	if data.Type != qrTypeReferral {
		return "", fmt.Errorf("invalid QR code type: %s", data.Type)
	}

	if !validCode(data.Code) {
		return "", fmt.Errorf("invalid referral code %q", data.Code)
	}

	return data.Code, nil
}

func validCode(code string) bool {
	if len(code) < 6 || len(code) > 16 {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}

	return true
}
