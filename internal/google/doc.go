// Package google provides OAuth2 authentication and token management for the
// Gmail API.
//
// Tokens are stored per account under the user cache directory
// (e.g. ~/.cache/mailwright/google-work.token). Account names are restricted
// to letters, digits, hyphens and underscores so they can be used in file
// names safely.
//
// A TokenProvider resolves the token source the Gmail client authorizes
// with. FileTokenProvider writes refreshed tokens back to the account's file.
package google
