// Package apperr defines the error taxonomy returned at operation boundaries.
//
// Components translate provider errors (googleapi, oauth2, openai) into one
// of four kinds before returning:
//   - CredentialExpired: the caller must re-authenticate (HTTP 401)
//   - CredentialInvalid: malformed or missing credential or request fields (HTTP 400)
//   - ProviderUnavailable: an upstream call failed (HTTP 500)
//   - EmptyInput: the request carried no usable content (HTTP 400)
package apperr
