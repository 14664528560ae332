package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/arbiternet/arbiter/internal/conn"
	"github.com/arbiternet/arbiter/internal/settings"
)

// settingsView is the JSON projection of the persisted settings snapshot.
type settingsView struct {
	AirplaneMode bool      `json:"airplane_mode"`
	Proxy        proxyView `json:"proxy"`
	PACURL       string    `json:"pac_url,omitempty"`
}

type proxyView struct {
	Enabled    bool     `json:"enabled"`
	Host       string   `json:"host,omitempty"`
	Port       uint16   `json:"port,omitempty"`
	Exclusions []string `json:"exclusions,omitempty"`
}

func toSettingsView(s settings.Settings) settingsView {
	return settingsView{
		AirplaneMode: s.AirplaneMode,
		Proxy: proxyView{
			Enabled:    s.Proxy.Enabled,
			Host:       s.Proxy.Host,
			Port:       s.Proxy.Port,
			Exclusions: s.Proxy.Exclusions,
		},
		PACURL: s.PACURL,
	}
}

// HandleGetSettings returns a handler for GET /api/v1/settings.
func HandleGetSettings(svc *conn.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := svc.SettingsSnapshot(conn.System)
		if err != nil {
			writeConnError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, toSettingsView(snap))
	}
}

// HandlePutAirplaneMode returns a handler for PUT /api/v1/settings/airplane-mode.
func HandlePutAirplaneMode(svc *conn.Service) http.HandlerFunc {
	type body struct {
		Enabled bool `json:"enabled"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var b body
		if err := DecodeBody(r, &b); err != nil {
			writeDecodeBodyError(w, err)
			return
		}
		if err := svc.SetAirplaneMode(conn.System, b.Enabled); err != nil {
			writeConnError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]bool{"enabled": b.Enabled})
	}
}

// HandlePutProxy returns a handler for PUT /api/v1/settings/proxy.
func HandlePutProxy(svc *conn.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var b proxyView
		if err := DecodeBody(r, &b); err != nil {
			writeDecodeBodyError(w, err)
			return
		}
		if b.Enabled && strings.TrimSpace(b.Host) == "" {
			writeInvalidArgument(w, "host: required when proxy is enabled")
			return
		}
		if b.Enabled && b.Port == 0 {
			writeInvalidArgument(w, "port: required when proxy is enabled")
			return
		}
		p := settings.HTTPProxy{
			Enabled:    b.Enabled,
			Host:       strings.TrimSpace(b.Host),
			Port:       b.Port,
			Exclusions: b.Exclusions,
		}
		if err := svc.SetGlobalHTTPProxy(conn.System, p); err != nil {
			writeConnError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, b)
	}
}

// HandlePutPACURL returns a handler for PUT /api/v1/settings/pac-url.
func HandlePutPACURL(svc *conn.Service) http.HandlerFunc {
	type body struct {
		URL string `json:"url"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var b body
		if err := DecodeBody(r, &b); err != nil {
			writeDecodeBodyError(w, err)
			return
		}
		b.URL = strings.TrimSpace(b.URL)
		if b.URL != "" {
			if u, err := url.Parse(b.URL); err != nil || u.Scheme == "" || u.Host == "" {
				writeInvalidArgument(w, "url: must be an absolute URL")
				return
			}
		}
		if err := svc.SetPACURL(conn.System, b.URL); err != nil {
			writeConnError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, b)
	}
}

// HandlePutRestrictBackground returns a handler for
// PUT /api/v1/settings/restrict-background.
func HandlePutRestrictBackground(svc *conn.Service) http.HandlerFunc {
	type body struct {
		Enabled bool `json:"enabled"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var b body
		if err := DecodeBody(r, &b); err != nil {
			writeDecodeBodyError(w, err)
			return
		}
		if err := svc.RestrictBackground(conn.System, b.Enabled); err != nil {
			writeConnError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]bool{"enabled": b.Enabled})
	}
}

// HandleFactoryReset returns a handler for
// POST /api/v1/settings/actions/factory-reset.
func HandleFactoryReset(svc *conn.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.FactoryReset(conn.System); err != nil {
			writeConnError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "reset"})
	}
}
