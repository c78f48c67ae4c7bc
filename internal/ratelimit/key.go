package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// GlobalKey ключ единого бюджета на весь деплой
const GlobalKey = "global"

// KeyFunc извлекает ключ бюджета из запроса
type KeyFunc func(r *http.Request) string

// GlobalKeyFunc один бюджет для всех клиентов
func GlobalKeyFunc() KeyFunc {
	return func(*http.Request) string { return GlobalKey }
}

// ClientIPKeyFunc бюджет на адрес клиента.
// X-Forwarded-For учитывается только при trustXFF (сервис за доверенным прокси).
func ClientIPKeyFunc(trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		return "ip:" + clientIP(r, trustXFF)
	}
}

// HeaderKeyFunc бюджет на значение заголовка (API-ключ), иначе на адрес клиента
func HeaderKeyFunc(header string, trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if v := strings.TrimSpace(r.Header.Get(header)); v != "" {
			return "key:" + v
		}
		return "ip:" + clientIP(r, trustXFF)
	}
}

func clientIP(r *http.Request, trustXFF bool) string {
	if trustXFF {
		// первый IP в X-Forwarded-For - исходный клиент
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
