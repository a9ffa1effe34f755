package qrcode

import (
	"fmt"
	"strings"
)

// WiFi describes a network join payload.
type WiFi struct {
	SSID       string
	Password   string
	Encryption string // WPA2, WPA, WEP, or nopass
	Hidden     bool
}

// Data renders the WIFI: payload scanners understand. Semicolons and
// commas are significant in the format, so they are escaped inside the
// SSID and password.
func (w WiFi) Data() string {
	enc := w.Encryption
	if enc == "" {
		enc = "WPA2"
	}
	return fmt.Sprintf("WIFI:T:%s;S:%s;P:%s;H:%t;;",
		enc, escapeWiFi(w.SSID), escapeWiFi(w.Password), w.Hidden)
}

func escapeWiFi(s string) string {
	s = strings.ReplaceAll(s, ";", "\\;")
	return strings.ReplaceAll(s, ",", "\\,")
}

// VCard describes a contact card payload. Name is required; empty
// optional fields are omitted from the output.
type VCard struct {
	Name  string
	Email string
	Phone string
	Org   string
	Title string
	URL   string
}

// Data renders a VCARD 3.0 document.
func (v VCard) Data() string {
	var b strings.Builder
	b.WriteString("BEGIN:VCARD\nVERSION:3.0\n")
	fmt.Fprintf(&b, "FN:%s\n", v.Name)
	if v.Email != "" {
		fmt.Fprintf(&b, "EMAIL:%s\n", v.Email)
	}
	if v.Phone != "" {
		fmt.Fprintf(&b, "TEL:%s\n", v.Phone)
	}
	if v.Org != "" {
		fmt.Fprintf(&b, "ORG:%s\n", v.Org)
	}
	if v.Title != "" {
		fmt.Fprintf(&b, "TITLE:%s\n", v.Title)
	}
	if v.URL != "" {
		fmt.Fprintf(&b, "URL:%s\n", v.URL)
	}
	b.WriteString("END:VCARD")
	return b.String()
}

// CampaignURL appends UTM campaign parameters to a URL, skipping the
// ones left empty. The raw URL is returned untouched when no parameter
// is set.
func CampaignURL(raw, source, medium, campaign string) string {
	var params []string
	if source != "" {
		params = append(params, "utm_source="+source)
	}
	if medium != "" {
		params = append(params, "utm_medium="+medium)
	}
	if campaign != "" {
		params = append(params, "utm_campaign="+campaign)
	}
	if len(params) == 0 {
		return raw
	}

	sep := "?"
	if strings.Contains(raw, "?") {
		sep = "&"
	}
	return raw + sep + strings.Join(params, "&")
}
