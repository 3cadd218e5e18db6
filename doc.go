// Package identity is a credential and identity service: it registers users,
// authenticates them against stored bcrypt hashes, and issues/verifies signed
// bearer tokens that gate access to protected resources.
//
// Core pieces:
//   - HashPassword/ComparePasswordAndHash wrap bcrypt for one-way credential
//     storage. Mismatches are normal results, not internal failures.
//   - TokenService issues HS256 JWTs binding a subject (the username) with an
//     expiry, and validates presented tokens. Validation failures are opaque:
//     callers see a single invalid-token error whether the signature or the
//     expiry check failed.
//   - CanView/CanModify/CanList/CanDelete implement the self-or-admin policy:
//     an identity may act on its own record, a superuser on any record, and
//     list/delete are superuser-only.
//   - IdentityService orchestrates register/authenticate/get/list/update/delete
//     against a RepositoryManager, emitting ActivityEvents for auditing.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by IdentityService and
//     Auther to describe registration, login, and lifecycle events. Sinks run
//     best-effort (errors are logged) so you can forward to a database or
//     queue without blocking authentication.
//
// The service performs no authorization itself: routing layers resolve the
// caller from a token, consult the policy helpers, and only then invoke the
// service operations.
package identity
