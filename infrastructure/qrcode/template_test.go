package qrcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWiFiData(t *testing.T) {
	w := WiFi{SSID: "HomeNet", Password: "hunter2", Encryption: "WPA2"}
	assert.Equal(t, "WIFI:T:WPA2;S:HomeNet;P:hunter2;H:false;;", w.Data())
}

func TestWiFiDataEscapesSeparators(t *testing.T) {
	w := WiFi{SSID: "net;a,b", Password: "p;w,d", Encryption: "WEP", Hidden: true}
	assert.Equal(t, `WIFI:T:WEP;S:net\;a\,b;P:p\;w\,d;H:true;;`, w.Data())
}

func TestWiFiDataDefaultEncryption(t *testing.T) {
	w := WiFi{SSID: "open"}
	assert.Contains(t, w.Data(), "T:WPA2;")
}

func TestVCardDataFull(t *testing.T) {
	v := VCard{
		Name:  "Ada Lovelace",
		Email: "ada@example.com",
		Phone: "+44 1",
		Org:   "Analytical Engines",
		Title: "Programmer",
		URL:   "https://example.com",
	}

	data := v.Data()

	assert.Equal(t, "BEGIN:VCARD\nVERSION:3.0\nFN:Ada Lovelace\nEMAIL:ada@example.com\nTEL:+44 1\nORG:Analytical Engines\nTITLE:Programmer\nURL:https://example.com\nEND:VCARD", data)
}

func TestVCardDataMinimal(t *testing.T) {
	v := VCard{Name: "Ada"}

	data := v.Data()

	assert.Equal(t, "BEGIN:VCARD\nVERSION:3.0\nFN:Ada\nEND:VCARD", data)
	assert.NotContains(t, data, "EMAIL:")
	assert.NotContains(t, data, "TEL:")
}

func TestCampaignURL(t *testing.T) {
	assert.Equal(t, "https://example.com", CampaignURL("https://example.com", "", "", ""))
	assert.Equal(t,
		"https://example.com?utm_source=qr&utm_medium=print&utm_campaign=launch",
		CampaignURL("https://example.com", "qr", "print", "launch"))
	// Existing query string switches the separator.
	assert.Equal(t,
		"https://example.com?a=1&utm_source=qr",
		CampaignURL("https://example.com?a=1", "qr", "", ""))
}
