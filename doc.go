// Package blog implements a small blogging service with email-verified
// accounts.
//
// Account lifecycle:
//   - Registration creates an inactive user and mails an activation link.
//     The link embeds a token derived from the account's activation state,
//     so following it once makes every copy of the link dead.
//   - Password recovery works the same way: the reset token is derived from
//     the current password hash and stops verifying the moment the hash
//     changes, whatever changed it.
//
// Authentication is an HS256 access/refresh token pair; object-level
// authorization is owner-or-superuser, with reads open to any authenticated
// principal. Posts belong to their author forever; tags are shared labels
// anyone may create.
package blog
