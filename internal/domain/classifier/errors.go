package classifier

import "errors"

// Sentinel error kinds for this package.
var (
	ErrLoadArtifact    = errors.New("load model artifact failed")
	ErrInvalidArtifact = errors.New("invalid model artifact")
)
