// Package server exposes today's prayer times over HTTP.
//
// GET /prayer-times (and the legacy /.netlify/functions/prayer-times path) always
// answers 200 with a flat JSON record; degraded answers carry _fallback or _stale
// plus _error. Cross-origin requests from any origin are allowed.
package server
