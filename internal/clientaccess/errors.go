package clientaccess

import "errors"

// ErrInvalidCredentials is returned for both an unknown token and a wrong
// password, so a caller cannot probe which tokens exist.
var ErrInvalidCredentials = errors.New("invalid credentials")
