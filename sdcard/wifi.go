package sdcard

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"text/template"
)

//go:embed assets/wpa_supplicant.conf.tmpl
var wpaSupplicantTemplate string

var wpaSupplicant = template.Must(template.New("wpa_supplicant.conf").Option("missingkey=error").Parse(wpaSupplicantTemplate))

// Validate checks what wpa_supplicant accepts inside a quoted WPA-PSK network block.
func (w WiFi) Validate() error {
	switch {
	case w.SSID == "":
		return fmt.Errorf("%w: ssid is empty", ErrWiFi)
	case len(w.SSID) > 32:
		return fmt.Errorf("%w: ssid is longer than 32 bytes", ErrWiFi)
	case len(w.PSK) < 8 || len(w.PSK) > 63:
		return fmt.Errorf("%w: passphrase must be 8 to 63 characters", ErrWiFi)
	case len(w.Country) != 2:
		return fmt.Errorf("%w: country %q is not a two letter code", ErrWiFi, w.Country)
	}

	for field, value := range map[string]string{"ssid": w.SSID, "psk": w.PSK} {
		if strings.ContainsAny(value, "\"\n\r") {
			return fmt.Errorf("%w: %s contains a quote or line break", ErrWiFi, field)
		}
	}
	return nil
}

// RenderWiFi returns the wpa_supplicant.conf body for the network.
func RenderWiFi(w WiFi) (string, error) {
	w.Country = strings.ToUpper(w.Country)
	if err := w.Validate(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := wpaSupplicant.Execute(&buf, w); err != nil {
		return "", errors.Join(ErrWiFi, err)
	}
	return buf.String(), nil
}
