// Package kcnotes is the credential and note service core for a multi-user
// note-taking API.
//
// The module is organized around a small set of collaborators:
//
//   - auth: credential hashing, JWT issuance/validation, the account
//     lifecycle (signup, signin, password rotation, deletion), the users
//     repository, and the /auth HTTP controller.
//   - middleware/jwtware: the bearer-token gate that protects routes and
//     attaches the resolved claims to the request context.
//   - notes: user-owned note CRUD behind the bearer gate.
//   - config: the application configuration container.
//
// Tokens are self-contained HS256 JWTs: there is no server-side session
// store and no revocation list, so a token stays valid until it expires
// even after signout, password change, or account deletion.
package kcnotes
