package encoding

import "errors"

// ErrSchemaDrift means a vector or model does not line up with the feature schema.
var ErrSchemaDrift = errors.New("feature schema drift")
