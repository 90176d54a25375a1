// package auth implements the OAuth2 authorization-code-with-PKCE session
// core: verifier/challenge generation, the authorization redirect, token
// exchange and refresh, profile fetching, and the session validator that
// orchestrates them around the credential store.
//
// The flow has two entry points mirroring the redirect round trip:
// [Manager.BeginFlow] builds the authorize URL (the caller performs the
// navigation) and [Manager.ResumeFlow] consumes the code delivered to the
// /auth callback. [Manager.EnsureValid] drives both plus refresh as a single
// idempotent operation.
package auth
