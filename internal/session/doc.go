// Package session keeps per-browser state in scs sessions stored in the main
// SQLite database, and holds the HTTP middleware that protects it: CSRF
// checks, security headers and request rate limiting.
//
// The only secret a session carries is the user's own OpenRouter key. It is
// encrypted before it reaches the store, so a copied database file does not
// leak it.
package session
