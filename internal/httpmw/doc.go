// Package httpmw provides HTTP middleware for the public site listener.
//
// httpserver composes them, outermost first: security headers, recover,
// request ID, client IP, rate limiting, OTel tracing, trace response headers,
// content headers, metrics, request logger, access log, route annotation and
// body limit, then the chi router. Scope tags a subtree of routes.
//
// Client supplied data (query strings, user agent, arbitrary headers) is kept
// out of logs.
package httpmw
