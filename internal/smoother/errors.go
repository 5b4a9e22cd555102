package smoother

import "errors"

var errSensitivityRange = errors.New("smoother: sensitivity must be 0-100")
