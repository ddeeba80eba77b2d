// Package jwt issues and verifies the signed access and refresh tokens handed
// out after a successful authentication.
//
// Both token kinds carry the principal storage id as "sub", a "typ" claim (access or refresh) and a random "jti". A refresh token is never
// accepted where an access token is expected and vice versa.
package jwt
