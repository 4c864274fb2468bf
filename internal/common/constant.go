package common

// AuthorizationHeaderName is the HTTP header carrying the bearer access
// token issued by the credential gate.
const AuthorizationHeaderName = "Authorization"
