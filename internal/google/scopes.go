package google

import gmail "google.golang.org/api/gmail/v1"

// DefaultOAuthScopes are the scopes requested for every account.
//
// Full mail scope is needed because permanently deleting spam
// (users.messages.delete) is not covered by gmail.modify.
var DefaultOAuthScopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
	gmail.MailGoogleComScope,
}
