// Package auth provides registration, credential verification, session
// management, CSRF protection and API token handling for the bookshelf
// application.
//
// Accounts only exist when the active storage backend reports user support;
// every entry point degrades cleanly when it does not.
package auth
