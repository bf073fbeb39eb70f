package qrcode

import (
	"encoding/json"
	"testing"

	"tradepost/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(size int, level, baseURL string) *config.Config {
	return &config.Config{QRCode: &config.QRCodeConfig{Size: size, ErrorCorrectionLevel: level, BaseURL: baseURL}}
}

func TestNewQRCodeService(t *testing.T) {
	tests := []struct {
		name                 string
		size                 int
		errorCorrectionLevel string
	}{
		{"Low error correction", 256, "L"},
		{"Medium error correction", 256, "M"},
		{"High error correction", 256, "Q"},
		{"Highest error correction", 256, "H"},
		{"Default error correction", 256, "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewQRCodeService(testConfig(tt.size, tt.errorCorrectionLevel, ""))
			assert.NotNil(t, service)
		})
	}
}

func TestQRCodeService_GenerateReferralQR(t *testing.T) {
	service := NewQRCodeService(testConfig(256, "M", ""))

	qrBytes, err := service.GenerateReferralQR("ABC12345")
	require.NoError(t, err)
	require.Greater(t, len(qrBytes), 4)

	// Verify it's a valid PNG (starts with PNG magic number)
	assert.Equal(t, []byte{0x89, 0x50, 0x4E, 0x47}, qrBytes[:4])
}

func TestQRCodeService_GenerateReferralQR_InvalidCode(t *testing.T) {
	service := NewQRCodeService(nil)

	_, err := service.GenerateReferralQR("bad code")
	assert.Error(t, err)
}

func TestQRCodeService_ReferralLink(t *testing.T) {
	service := NewQRCodeService(testConfig(0, "", "https://tradepost.example/"))

	assert.Equal(t, "https://tradepost.example/register?ref=ABC12345", service.ReferralLink("ABC12345"))
}

func TestQRCodeService_ParseReferralQR(t *testing.T) {
	service := NewQRCodeService(nil)

	jsonData, err := json.Marshal(QRCodeData{Type: "referral", Code: "ABC12345"})
	require.NoError(t, err)

	code, err := service.ParseReferralQR(string(jsonData))
	require.NoError(t, err)
	assert.Equal(t, "ABC12345", code)
}

func TestQRCodeService_ParseReferralQR_Errors(t *testing.T) {
	service := NewQRCodeService(nil)

	_, err := service.ParseReferralQR("invalid json")
	assert.ErrorContains(t, err, "failed to unmarshal QR code data")

	wrongType, err := json.Marshal(QRCodeData{Type: "subscription", Code: "ABC12345"})
	require.NoError(t, err)
	_, err = service.ParseReferralQR(string(wrongType))
	assert.ErrorContains(t, err, "invalid QR code type")

	badCode, err := json.Marshal(QRCodeData{Type: "referral", Code: "x"})
	require.NoError(t, err)
	_, err = service.ParseReferralQR(string(badCode))
	assert.ErrorContains(t, err, "invalid referral code")
}
