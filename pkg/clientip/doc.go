// Package clientip extracts the client IP address of an HTTP request.
//
// Proxy headers are checked in priority order, then RemoteAddr:
//  1. CF-Connecting-IP (Cloudflare)
//  2. DO-Connecting-IP (DigitalOcean)
//  3. X-Forwarded-For (leftmost entry)
//  4. X-Real-IP (nginx and other proxies)
//
// Header values are validated and normalized with net.ParseIP; invalid values
// and the unspecified address 0.0.0.0 are skipped. When nothing valid is found
// GetIP returns RemoteAddr as given.
//
// The dimreg API uses it for request logging:
//
//	log.Info("request", slog.String("client_ip", clientip.GetIP(r)))
package clientip
