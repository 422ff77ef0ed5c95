package idle

import "errors"

var ErrUnknownSignal = errors.New("unknown activity signal")
